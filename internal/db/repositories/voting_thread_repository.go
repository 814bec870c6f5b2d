package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/ladder"
	gormModels "scf-community/governor/internal/models/gorm"

	"gorm.io/gorm"
)

// VotingThreadRepository stores voting sessions and owns their status transitions
type VotingThreadRepository struct {
	db *gorm.DB
}

// NewVotingThreadRepository creates a new voting thread repository
func NewVotingThreadRepository(db *gorm.DB) *VotingThreadRepository {
	return &VotingThreadRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *VotingThreadRepository) WithTx(tx *gorm.DB) *VotingThreadRepository {
	return &VotingThreadRepository{db: tx}
}

// Create persists a new OPEN session. A concurrent nomination for the same nominee and
// tier surfaces as ErrAlreadyNominated.
func (r *VotingThreadRepository) Create(ctx context.Context, thread *gormModels.VotingThread) error {
	thread.Status = gormModels.SessionOpen
	thread.VoteCount = 0
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = time.Now().UTC()
	}

	err := r.db.WithContext(ctx).Create(thread).Error
	if err == nil {
		return nil
	}

	// the partial unique index rejected the row if another OPEN session appeared meanwhile
	existing, findErr := r.FindOpen(ctx, thread.NomineeID, thread.TargetTier)
	if findErr == nil && existing != nil && existing.ThreadID != thread.ThreadID {
		return fmt.Errorf("%w: thread %s", constants.ErrAlreadyNominated, existing.ThreadID)
	}
	return fmt.Errorf("%w: failed to create voting thread: %v", constants.ErrStoreUnavailable, err)
}

// GetByID retrieves a session by thread id
func (r *VotingThreadRepository) GetByID(ctx context.Context, threadID string) (*gormModels.VotingThread, error) {
	var thread gormModels.VotingThread

	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		First(&thread).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", constants.ErrThreadNotFound, threadID)
		}
		return nil, fmt.Errorf("%w: failed to fetch voting thread: %v", constants.ErrStoreUnavailable, err)
	}

	return &thread, nil
}

// FindOpen returns the OPEN session for a nominee and tier, or nil
func (r *VotingThreadRepository) FindOpen(ctx context.Context, nomineeID string, tier ladder.Tier) (*gormModels.VotingThread, error) {
	var thread gormModels.VotingThread

	err := r.db.WithContext(ctx).
		Where("nominee_id = ? AND target_tier = ? AND status = ?", nomineeID, tier, gormModels.SessionOpen).
		First(&thread).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to fetch open voting thread: %v", constants.ErrStoreUnavailable, err)
	}

	return &thread, nil
}

// LastClosed returns the most recently closed session for a nominee and tier with the
// given reason, or nil
func (r *VotingThreadRepository) LastClosed(ctx context.Context, nomineeID string, tier ladder.Tier, reason gormModels.CloseReason) (*gormModels.VotingThread, error) {
	var thread gormModels.VotingThread

	err := r.db.WithContext(ctx).
		Where("nominee_id = ? AND target_tier = ? AND status = ? AND close_reason = ?",
			nomineeID, tier, gormModels.SessionClosed, reason).
		Order("closed_at DESC").
		First(&thread).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to fetch closed voting thread: %v", constants.ErrStoreUnavailable, err)
	}

	return &thread, nil
}

// ListOpen retrieves every OPEN session of a guild, oldest first
func (r *VotingThreadRepository) ListOpen(ctx context.Context, guildID string) ([]gormModels.VotingThread, error) {
	var threads []gormModels.VotingThread

	err := r.db.WithContext(ctx).
		Where("guild_id = ? AND status = ?", guildID, gormModels.SessionOpen).
		Order("created_at ASC").
		Find(&threads).Error

	if err != nil {
		return nil, fmt.Errorf("%w: failed to list open voting threads: %v", constants.ErrStoreUnavailable, err)
	}

	return threads, nil
}

// ListExpired retrieves OPEN sessions created before cutoff across all guilds
func (r *VotingThreadRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]gormModels.VotingThread, error) {
	var threads []gormModels.VotingThread

	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", gormModels.SessionOpen, cutoff).
		Find(&threads).Error

	if err != nil {
		return nil, fmt.Errorf("%w: failed to list expired voting threads: %v", constants.ErrStoreUnavailable, err)
	}

	return threads, nil
}

// IncrementVoteCount bumps the cached count of an OPEN session and returns the new value.
// It returns ErrSessionClosed when the session is no longer OPEN. Callers run it in the
// same transaction as the vote insert so the count moves in lockstep with the ledger.
func (r *VotingThreadRepository) IncrementVoteCount(ctx context.Context, threadID string) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&gormModels.VotingThread{}).
		Where("thread_id = ? AND status = ?", threadID, gormModels.SessionOpen).
		UpdateColumn("vote_count", gorm.Expr("vote_count + 1"))

	if result.Error != nil {
		return 0, fmt.Errorf("%w: failed to increment vote count: %v", constants.ErrStoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: %s", constants.ErrSessionClosed, threadID)
	}

	var count int
	err := r.db.WithContext(ctx).
		Model(&gormModels.VotingThread{}).
		Where("thread_id = ?", threadID).
		Pluck("vote_count", &count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read vote count: %v", constants.ErrStoreUnavailable, err)
	}

	return count, nil
}

// SetVoteCount overwrites the cached count of a session
func (r *VotingThreadRepository) SetVoteCount(ctx context.Context, threadID string, count int) error {
	err := r.db.WithContext(ctx).
		Model(&gormModels.VotingThread{}).
		Where("thread_id = ?", threadID).
		UpdateColumn("vote_count", count).Error

	if err != nil {
		return fmt.Errorf("%w: failed to set vote count: %v", constants.ErrStoreUnavailable, err)
	}
	return nil
}

// ClaimPromotion takes the promotion lease of an OPEN session. Only one caller wins;
// a lease older than staleBefore may be taken over.
func (r *VotingThreadRepository) ClaimPromotion(ctx context.Context, threadID, token string, now, staleBefore time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&gormModels.VotingThread{}).
		Where("thread_id = ? AND status = ? AND (claim_token IS NULL OR claimed_at < ?)",
			threadID, gormModels.SessionOpen, staleBefore).
		Updates(map[string]interface{}{
			"claim_token": token,
			"claimed_at":  now,
		})

	if result.Error != nil {
		return false, fmt.Errorf("%w: failed to claim promotion: %v", constants.ErrStoreUnavailable, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ReleaseClaim drops a lease held by token, leaving the session OPEN
func (r *VotingThreadRepository) ReleaseClaim(ctx context.Context, threadID, token string) error {
	err := r.db.WithContext(ctx).
		Model(&gormModels.VotingThread{}).
		Where("thread_id = ? AND claim_token = ?", threadID, token).
		Updates(map[string]interface{}{
			"claim_token": nil,
			"claimed_at":  nil,
		}).Error

	if err != nil {
		return fmt.Errorf("%w: failed to release promotion claim: %v", constants.ErrStoreUnavailable, err)
	}
	return nil
}

// ClosePromoted flips an OPEN session to CLOSED for the lease holder
func (r *VotingThreadRepository) ClosePromoted(ctx context.Context, threadID, token string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&gormModels.VotingThread{}).
		Where("thread_id = ? AND status = ? AND claim_token = ?", threadID, gormModels.SessionOpen, token).
		Updates(map[string]interface{}{
			"status":       gormModels.SessionClosed,
			"close_reason": gormModels.ClosePromoted,
			"closed_at":    now,
			"claim_token":  nil,
			"claimed_at":   nil,
		})

	if result.Error != nil {
		return false, fmt.Errorf("%w: failed to close voting thread: %v", constants.ErrStoreUnavailable, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// CloseExpired flips an OPEN session to CLOSED unless a live promotion lease holds it
func (r *VotingThreadRepository) CloseExpired(ctx context.Context, threadID string, now, staleBefore time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&gormModels.VotingThread{}).
		Where("thread_id = ? AND status = ? AND (claim_token IS NULL OR claimed_at < ?)",
			threadID, gormModels.SessionOpen, staleBefore).
		Updates(map[string]interface{}{
			"status":       gormModels.SessionClosed,
			"close_reason": gormModels.CloseExpired,
			"closed_at":    now,
			"claim_token":  nil,
			"claimed_at":   nil,
		})

	if result.Error != nil {
		return false, fmt.Errorf("%w: failed to expire voting thread: %v", constants.ErrStoreUnavailable, result.Error)
	}
	return result.RowsAffected == 1, nil
}
