package db

import (
	"fmt"

	gormModels "scf-community/governor/internal/models/gorm"

	"gorm.io/gorm"
)

// partial indexes are not expressible through struct tags on both dialects
var rawIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_voting_threads_open_nomination
		ON voting_threads (nominee_id, target_tier) WHERE status = 'OPEN'`,
}

// Migrate creates or updates the governance schema.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&gormModels.Guild{},
		&gormModels.GuildSyncHistory{},
		&gormModels.Member{},
		&gormModels.Role{},
		&gormModels.UserRole{},
		&gormModels.VotingThread{},
		&gormModels.Vote{},
		&gormModels.APIKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	for _, stmt := range rawIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
