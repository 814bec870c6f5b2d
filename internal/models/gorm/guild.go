package gorm

import "time"

type Guild struct {
	GuildID   string    `gorm:"column:guild_id;primaryKey"`
	GuildName string    `gorm:"column:guild_name"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Guild) TableName() string {
	return "guilds"
}

// GuildSyncHistory records when a synchronizer event last completed for a guild
type GuildSyncHistory struct {
	ID         uint       `gorm:"column:id;primaryKey;autoIncrement"`
	GuildID    string     `gorm:"column:guild_id;uniqueIndex:idx_guild_sync_event"`
	Event      string     `gorm:"column:event;uniqueIndex:idx_guild_sync_event"`
	LastSyncAt *time.Time `gorm:"column:last_sync_at"`
}

// TableName specifies the table name for GORM
func (GuildSyncHistory) TableName() string {
	return "guild_sync_history"
}
