package repositories

import (
	"context"
	"fmt"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

// DefaultMaxParams is the bind-parameter ceiling of the most restrictive supported driver
const DefaultMaxParams = 999

// SyncRepository writes the platform snapshot (guild, role catalog, roster, tier grants)
// with batched multi-row upserts.
type SyncRepository struct {
	db        *sqlx.DB
	maxParams int
}

func NewSyncRepository(db *sqlx.DB, maxParams int) *SyncRepository {
	if maxParams <= 0 {
		maxParams = DefaultMaxParams
	}
	return &SyncRepository{
		db:        db,
		maxParams: maxParams,
	}
}

// batchSize is how many rows with columns named params fit in one statement
func (svc SyncRepository) batchSize(columns int) int {
	n := svc.maxParams / columns
	if n < 1 {
		return 1
	}
	return n
}

func (svc SyncRepository) UpsertGuild(ctx context.Context, guildID, guildName string) error {
	_, err := svc.db.NamedExecContext(ctx, constants.UpsertGuild, map[string]interface{}{
		"guild_id":   guildID,
		"guild_name": guildName,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert guild %s: %w", guildID, err)
	}
	return nil
}

// UpsertRoles writes the role catalog and returns the number of statements issued
func (svc SyncRepository) UpsertRoles(ctx context.Context, roles []entities.RoleRow) (int, error) {
	size := svc.batchSize(3)
	batches := 0

	for start := 0; start < len(roles); start += size {
		end := min(start+size, len(roles))
		if _, err := svc.db.NamedExecContext(ctx, constants.UpsertRoles, roles[start:end]); err != nil {
			return batches, fmt.Errorf("failed to upsert roles batch %d: %w", batches, err)
		}
		batches++
	}
	return batches, nil
}

// UpsertMembers writes the roster and returns the number of statements issued
func (svc SyncRepository) UpsertMembers(ctx context.Context, members []entities.MemberRow) (int, error) {
	size := svc.batchSize(4)
	batches := 0

	for start := 0; start < len(members); start += size {
		end := min(start+size, len(members))
		if _, err := svc.db.NamedExecContext(ctx, constants.UpsertMembers, members[start:end]); err != nil {
			return batches, fmt.Errorf("failed to upsert members batch %d: %w", batches, err)
		}
		batches++
	}
	return batches, nil
}

// UpsertUserRoles records tier grants and returns the number of statements issued
func (svc SyncRepository) UpsertUserRoles(ctx context.Context, grants []entities.UserRoleRow) (int, error) {
	size := svc.batchSize(4)
	batches := 0

	for start := 0; start < len(grants); start += size {
		end := min(start+size, len(grants))
		if _, err := svc.db.NamedExecContext(ctx, constants.UpsertUserRoles, grants[start:end]); err != nil {
			return batches, fmt.Errorf("failed to upsert user roles batch %d: %w", batches, err)
		}
		batches++
	}
	return batches, nil
}
