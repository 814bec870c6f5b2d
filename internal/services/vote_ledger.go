package services

import (
	"context"
	"time"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/db/repositories"

	"gorm.io/gorm"
)

type VoteResult struct {
	Accepted bool
	NewCount int
}

// VoteLedger is the single source of truth for votes and the cached count
type VoteLedger struct {
	db      *gorm.DB
	votes   *repositories.VoteRepository
	threads *repositories.VotingThreadRepository
	now     func() time.Time
}

func NewVoteLedger(db *gorm.DB) *VoteLedger {
	return &VoteLedger{
		db:      db,
		votes:   repositories.NewVoteRepository(db),
		threads: repositories.NewVotingThreadRepository(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RecordVote appends a vote and bumps the session count in one transaction.
// A repeat voter gets ErrDuplicateVote; a session that is no longer OPEN gets
// ErrSessionClosed and the vote is rolled back.
func (l *VoteLedger) RecordVote(ctx context.Context, threadID, voterID string) (*VoteResult, error) {
	var result VoteResult

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := l.votes.WithTx(tx).InsertIfAbsent(ctx, threadID, voterID, l.now())
		if err != nil {
			return err
		}
		if !inserted {
			return constants.ErrDuplicateVote
		}

		count, err := l.threads.WithTx(tx).IncrementVoteCount(ctx, threadID)
		if err != nil {
			return err
		}

		result = VoteResult{Accepted: true, NewCount: count}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Tally counts the distinct voters of a thread
func (l *VoteLedger) Tally(ctx context.Context, threadID string) (int, error) {
	return l.votes.Count(ctx, threadID)
}

// Reconcile rewrites the cached count from the tally
func (l *VoteLedger) Reconcile(ctx context.Context, threadID string) (int, error) {
	count, err := l.Tally(ctx, threadID)
	if err != nil {
		return 0, err
	}
	if err := l.threads.SetVoteCount(ctx, threadID, count); err != nil {
		return 0, err
	}
	return count, nil
}
