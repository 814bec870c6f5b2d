package repositories

import (
	"context"
	"testing"
	"time"

	"scf-community/governor/internal/db/testdb"
	"scf-community/governor/internal/ladder"
)

func TestVoteRepository_InsertIfAbsent(t *testing.T) {
	gdb := testdb.Open(t)
	threads := NewVotingThreadRepository(gdb)
	votes := NewVoteRepository(gdb)
	ctx := context.Background()
	now := time.Now().UTC()

	threads.Create(ctx, newThread("t1", "alice", ladder.Navigator, now))

	inserted, err := votes.InsertIfAbsent(ctx, "t1", "voter-1", now)
	if err != nil || !inserted {
		t.Fatalf("Expected first vote inserted, got %v (%v)", inserted, err)
	}

	inserted, err = votes.InsertIfAbsent(ctx, "t1", "voter-1", now.Add(time.Second))
	if err != nil {
		t.Fatalf("Expected no error on duplicate, got %v", err)
	}
	if inserted {
		t.Error("Expected duplicate vote to be ignored")
	}

	votes.InsertIfAbsent(ctx, "t1", "voter-2", now)

	count, err := votes.Count(ctx, "t1")
	if err != nil || count != 2 {
		t.Errorf("Expected 2 votes, got %d (%v)", count, err)
	}

	voters, _ := votes.ListVoters(ctx, "t1")
	if len(voters) != 2 || voters[0] != "voter-1" {
		t.Errorf("Expected voters in insertion order, got %v", voters)
	}
}
