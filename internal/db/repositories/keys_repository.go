package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/models/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type KeysRepo struct {
	db *sqlx.DB
}

func NewApiKeysRepo(db *sqlx.DB) *KeysRepo {
	return &KeysRepo{db}
}

// GetStatus returns the key row, or nil when the key does not exist
func (r *KeysRepo) GetStatus(ctx context.Context, key string) (*entities.ApiKey, error) {
	var keyRes entities.ApiKey

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(constants.GetStatusByApiKey), key).StructScan(&keyRes)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &keyRes, nil
}

// Create issues a new active key
func (r *KeysRepo) Create(ctx context.Context, label string) (*entities.ApiKey, error) {
	key := entities.ApiKey{
		ApiKey: uuid.NewString(),
		Label:  label,
		Status: true,
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(constants.InsertApiKey), key.ApiKey, key.Label, key.Status, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert api key: %w", err)
	}

	return &key, nil
}

// Revoke deactivates a key
func (r *KeysRepo) Revoke(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(constants.RevokeApiKey), key)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("api key %s not found", key)
	}
	return nil
}
