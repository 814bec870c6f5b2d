package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/db/testdb"
	"scf-community/governor/internal/ladder"
	gormModels "scf-community/governor/internal/models/gorm"
)

func newThread(id, nominee string, tier ladder.Tier, createdAt time.Time) *gormModels.VotingThread {
	return &gormModels.VotingThread{
		ThreadID:    id,
		GuildID:     "guild-1",
		ChannelID:   "channel-1",
		ThreadName:  "Nomination: " + nominee,
		CreatedAt:   createdAt,
		NominatorID: "nominator",
		NomineeID:   nominee,
		TargetTier:  tier,
		RoleName:    ladder.Default().DisplayName(tier),
	}
}

func TestVotingThreadRepository_CreateAndGet(t *testing.T) {
	repo := NewVotingThreadRepository(testdb.Open(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newThread("t1", "alice", ladder.Navigator, now)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := repo.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Status != gormModels.SessionOpen || got.VoteCount != 0 || got.TargetTier != ladder.Navigator {
		t.Errorf("Unexpected session: %+v", got)
	}

	_, err = repo.GetByID(ctx, "missing")
	if !errors.Is(err, constants.ErrThreadNotFound) {
		t.Errorf("Expected ErrThreadNotFound, got %v", err)
	}
}

func TestVotingThreadRepository_OneOpenSessionPerNomineeAndTier(t *testing.T) {
	repo := NewVotingThreadRepository(testdb.Open(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newThread("t1", "alice", ladder.Navigator, now)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	err := repo.Create(ctx, newThread("t2", "alice", ladder.Navigator, now))
	if !errors.Is(err, constants.ErrAlreadyNominated) {
		t.Fatalf("Expected ErrAlreadyNominated, got %v", err)
	}

	// a different tier is a different nomination
	if err := repo.Create(ctx, newThread("t3", "alice", ladder.Pilot, now)); err != nil {
		t.Errorf("Expected no error for other tier, got %v", err)
	}

	// once closed, the nominee can be nominated again
	closed, err := repo.CloseExpired(ctx, "t1", now, now)
	if err != nil || !closed {
		t.Fatalf("Expected t1 closed, got %v (%v)", closed, err)
	}
	if err := repo.Create(ctx, newThread("t4", "alice", ladder.Navigator, now)); err != nil {
		t.Errorf("Expected no error after close, got %v", err)
	}
}

func TestVotingThreadRepository_IncrementVoteCount(t *testing.T) {
	repo := NewVotingThreadRepository(testdb.Open(t))
	ctx := context.Background()
	now := time.Now().UTC()

	repo.Create(ctx, newThread("t1", "alice", ladder.Navigator, now))

	for want := 1; want <= 3; want++ {
		got, err := repo.IncrementVoteCount(ctx, "t1")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got != want {
			t.Errorf("Expected count %d, got %d", want, got)
		}
	}

	repo.CloseExpired(ctx, "t1", now, now)

	_, err := repo.IncrementVoteCount(ctx, "t1")
	if !errors.Is(err, constants.ErrSessionClosed) {
		t.Errorf("Expected ErrSessionClosed, got %v", err)
	}
}

func TestVotingThreadRepository_PromotionLease(t *testing.T) {
	repo := NewVotingThreadRepository(testdb.Open(t))
	ctx := context.Background()
	now := time.Now().UTC()
	stale := now.Add(-2 * time.Minute)

	repo.Create(ctx, newThread("t1", "alice", ladder.Navigator, now))

	won, err := repo.ClaimPromotion(ctx, "t1", "token-a", now, stale)
	if err != nil || !won {
		t.Fatalf("Expected first claim to win, got %v (%v)", won, err)
	}

	won, _ = repo.ClaimPromotion(ctx, "t1", "token-b", now, stale)
	if won {
		t.Fatal("Expected second claim to lose while lease is live")
	}

	// expiry must not close a session with a live lease
	if closed, _ := repo.CloseExpired(ctx, "t1", now, stale); closed {
		t.Fatal("Expected CloseExpired to respect the lease")
	}

	// only the holder can close
	if closed, _ := repo.ClosePromoted(ctx, "t1", "token-b", now); closed {
		t.Fatal("Expected non-holder close to fail")
	}
	closed, err := repo.ClosePromoted(ctx, "t1", "token-a", now)
	if err != nil || !closed {
		t.Fatalf("Expected holder close to succeed, got %v (%v)", closed, err)
	}

	got, _ := repo.GetByID(ctx, "t1")
	if got.IsOpen() || got.CloseReason == nil || *got.CloseReason != gormModels.ClosePromoted {
		t.Errorf("Expected CLOSED/PROMOTED, got %+v", got)
	}

	// closed exactly once
	if closed, _ := repo.CloseExpired(ctx, "t1", now, now.Add(time.Hour)); closed {
		t.Error("Expected closed session to stay closed")
	}
}

func TestVotingThreadRepository_ReleaseAndStaleTakeover(t *testing.T) {
	repo := NewVotingThreadRepository(testdb.Open(t))
	ctx := context.Background()
	now := time.Now().UTC()

	repo.Create(ctx, newThread("t1", "alice", ladder.Navigator, now))
	repo.ClaimPromotion(ctx, "t1", "token-a", now, now.Add(-2*time.Minute))

	if err := repo.ReleaseClaim(ctx, "t1", "token-a"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	won, _ := repo.ClaimPromotion(ctx, "t1", "token-b", now, now.Add(-2*time.Minute))
	if !won {
		t.Fatal("Expected claim after release to win")
	}

	// a lease older than the stale cutoff can be taken over
	later := now.Add(5 * time.Minute)
	won, _ = repo.ClaimPromotion(ctx, "t1", "token-c", later, later.Add(-2*time.Minute))
	if !won {
		t.Error("Expected stale lease to be reclaimable")
	}
}

func TestVotingThreadRepository_ListsAndCooldownLookup(t *testing.T) {
	repo := NewVotingThreadRepository(testdb.Open(t))
	ctx := context.Background()
	now := time.Now().UTC()

	repo.Create(ctx, newThread("old", "alice", ladder.Navigator, now.Add(-6*24*time.Hour)))
	repo.Create(ctx, newThread("new", "bob", ladder.Pathfinder, now))

	open, err := repo.ListOpen(ctx, "guild-1")
	if err != nil || len(open) != 2 || open[0].ThreadID != "old" {
		t.Fatalf("Expected two open sessions oldest first, got %v (%v)", open, err)
	}

	expired, err := repo.ListExpired(ctx, now.Add(-5*24*time.Hour))
	if err != nil || len(expired) != 1 || expired[0].ThreadID != "old" {
		t.Fatalf("Expected only old session past TTL, got %v (%v)", expired, err)
	}

	last, _ := repo.LastClosed(ctx, "alice", ladder.Navigator, gormModels.CloseExpired)
	if last != nil {
		t.Fatal("Expected no closed session yet")
	}

	repo.CloseExpired(ctx, "old", now, now)
	last, err = repo.LastClosed(ctx, "alice", ladder.Navigator, gormModels.CloseExpired)
	if err != nil || last == nil || last.ThreadID != "old" {
		t.Errorf("Expected expired session, got %v (%v)", last, err)
	}
}
