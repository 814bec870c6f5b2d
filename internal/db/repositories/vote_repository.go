package repositories

import (
	"context"
	"fmt"
	"time"

	"scf-community/governor/internal/constants"
	gormModels "scf-community/governor/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository is the append-only vote table
type VoteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *VoteRepository) WithTx(tx *gorm.DB) *VoteRepository {
	return &VoteRepository{db: tx}
}

// InsertIfAbsent appends a vote unless the voter already voted in the thread.
// The unique (thread_id, voter_id) index decides; it reports whether a row was written.
func (r *VoteRepository) InsertIfAbsent(ctx context.Context, threadID, voterID string, at time.Time) (bool, error) {
	vote := gormModels.Vote{
		ThreadID:      threadID,
		VoterID:       voterID,
		VoteTimestamp: at,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}, {Name: "voter_id"}},
			DoNothing: true,
		}).
		Create(&vote)

	if result.Error != nil {
		return false, fmt.Errorf("%w: failed to insert vote: %v", constants.ErrStoreUnavailable, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Count returns the number of distinct voters in a thread
func (r *VoteRepository) Count(ctx context.Context, threadID string) (int, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&gormModels.Vote{}).
		Where("thread_id = ?", threadID).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("%w: failed to count votes: %v", constants.ErrStoreUnavailable, err)
	}
	return int(count), nil
}

// ListVoters returns voter ids of a thread in insertion order
func (r *VoteRepository) ListVoters(ctx context.Context, threadID string) ([]string, error) {
	var voters []string

	err := r.db.WithContext(ctx).
		Model(&gormModels.Vote{}).
		Where("thread_id = ?", threadID).
		Order("id ASC").
		Pluck("voter_id", &voters).Error

	if err != nil {
		return nil, fmt.Errorf("%w: failed to list voters: %v", constants.ErrStoreUnavailable, err)
	}
	return voters, nil
}
