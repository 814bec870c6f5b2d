package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/ladder"
)

func TestVoteLedger_DuplicateVoteSequential(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	session := f.openSession(t, "nominee", ladder.Navigator)

	res, err := f.ledger.RecordVote(ctx, session.ThreadID, "voter-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !res.Accepted || res.NewCount != 1 {
		t.Errorf("Expected accepted vote with count 1, got %+v", res)
	}

	_, err = f.ledger.RecordVote(ctx, session.ThreadID, "voter-1")
	if !errors.Is(err, constants.ErrDuplicateVote) {
		t.Fatalf("Expected ErrDuplicateVote, got %v", err)
	}

	stored, _ := f.threads.GetByID(ctx, session.ThreadID)
	if stored.VoteCount != 1 {
		t.Errorf("Expected count to stay 1, got %d", stored.VoteCount)
	}
	if tally, _ := f.ledger.Tally(ctx, session.ThreadID); tally != 1 {
		t.Errorf("Expected tally 1, got %d", tally)
	}
}

func TestVoteLedger_DuplicateVoteConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	session := f.openSession(t, "nominee", ladder.Navigator)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, duplicates := 0, 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.RecordVote(ctx, session.ThreadID, "voter-1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, constants.ErrDuplicateVote):
				duplicates++
			default:
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 || duplicates != 9 {
		t.Errorf("Expected 1 accepted and 9 duplicates, got %d and %d", accepted, duplicates)
	}
	stored, _ := f.threads.GetByID(ctx, session.ThreadID)
	if stored.VoteCount != 1 {
		t.Errorf("Expected count 1, got %d", stored.VoteCount)
	}
}

func TestVoteLedger_DistinctVotersTally(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	session := f.openSession(t, "nominee", ladder.Navigator)

	const voters = 20
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.ledger.RecordVote(ctx, session.ThreadID, fmt.Sprintf("voter-%d", i)); err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		}(i)
	}
	wg.Wait()

	stored, _ := f.threads.GetByID(ctx, session.ThreadID)
	tally, err := f.ledger.Tally(ctx, session.ThreadID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tally != voters || stored.VoteCount != voters {
		t.Errorf("Expected tally and count %d, got %d and %d", voters, tally, stored.VoteCount)
	}
}

func TestVoteLedger_ClosedSessionRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	session := f.openSession(t, "nominee", ladder.Navigator)

	if ok, err := f.threads.CloseExpired(ctx, session.ThreadID, f.clock, f.clock); err != nil || !ok {
		t.Fatalf("Failed to close session: %v", err)
	}

	_, err := f.ledger.RecordVote(ctx, session.ThreadID, "voter-1")
	if !errors.Is(err, constants.ErrSessionClosed) {
		t.Fatalf("Expected ErrSessionClosed, got %v", err)
	}
	if tally, _ := f.ledger.Tally(ctx, session.ThreadID); tally != 0 {
		t.Errorf("Expected the vote to be rolled back, tally %d", tally)
	}
}

func TestVoteLedger_Reconcile(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	session := f.openSession(t, "nominee", ladder.Navigator)

	for _, voter := range []string{"a", "b", "c"} {
		if _, err := f.ledger.RecordVote(ctx, session.ThreadID, voter); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
	if err := f.threads.SetVoteCount(ctx, session.ThreadID, 7); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	count, err := f.ledger.Reconcile(ctx, session.ThreadID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	stored, _ := f.threads.GetByID(ctx, session.ThreadID)
	if count != 3 || stored.VoteCount != 3 {
		t.Errorf("Expected count reconciled to 3, got %d and %d", count, stored.VoteCount)
	}
}
