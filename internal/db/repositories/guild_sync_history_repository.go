package repositories

import (
	"context"
	"errors"
	"time"

	"scf-community/governor/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// GuildSyncHistoryRepo tracks when synchronizer events last completed
type GuildSyncHistoryRepo struct {
	db *gormlib.DB
}

// NewGuildSyncHistoryRepo creates a new sync history repository
func NewGuildSyncHistoryRepo(db *gormlib.DB) *GuildSyncHistoryRepo {
	return &GuildSyncHistoryRepo{db: db}
}

// RecordSync stamps event as completed now for a guild
func (r *GuildSyncHistoryRepo) RecordSync(ctx context.Context, guildID string, event string) error {
	now := time.Now()

	syncHistory := gorm.GuildSyncHistory{
		GuildID:    guildID,
		Event:      event,
		LastSyncAt: &now,
	}

	return r.db.WithContext(ctx).
		Where("guild_id = ? AND event = ?", guildID, event).
		Assign(gorm.GuildSyncHistory{LastSyncAt: &now}).
		FirstOrCreate(&syncHistory).Error
}

// GetLastSyncTimeForEvent returns the most recent completion of event across guilds, or nil
func (r *GuildSyncHistoryRepo) GetLastSyncTimeForEvent(ctx context.Context, event string) (*time.Time, error) {
	var syncHistory gorm.GuildSyncHistory

	err := r.db.WithContext(ctx).
		Where("event = ?", event).
		Order("last_sync_at DESC").
		First(&syncHistory).Error

	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return syncHistory.LastSyncAt, nil
}
