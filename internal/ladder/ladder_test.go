package ladder

import (
	"errors"
	"testing"

	"scf-community/governor/internal/constants"
)

func TestNextTier_RankMonotonicity(t *testing.T) {
	next, err := NextTier(Verified)
	if err != nil {
		t.Fatalf("Expected no error for Verified, got %v", err)
	}
	if next != Pathfinder {
		t.Errorf("Expected Pathfinder, got %s", next)
	}

	if next, _ := NextTier(Navigator); next != Pilot {
		t.Errorf("Expected Pilot after Navigator, got %s", next)
	}

	for _, tier := range []Tier{Pilot, NoTier} {
		_, err := NextTier(tier)
		if !errors.Is(err, constants.ErrNotNominable) {
			t.Errorf("Expected ErrNotNominable for %s, got %v", tier, err)
		}
	}
}

func TestCanNominateAndVote(t *testing.T) {
	cases := []struct {
		holder, target Tier
		want           bool
	}{
		{Navigator, Navigator, true},
		{Pilot, Navigator, true},
		{Pathfinder, Navigator, false},
		{Navigator, Pilot, false},
		{Pilot, Pilot, true},
		{NoTier, Pathfinder, false},
		{Verified, Pathfinder, false},
	}

	for _, c := range cases {
		if got := CanNominate(c.holder, c.target); got != c.want {
			t.Errorf("CanNominate(%s, %s) = %v, want %v", c.holder, c.target, got, c.want)
		}
		if got := CanVote(c.holder, c.target); got != c.want {
			t.Errorf("CanVote(%s, %s) = %v, want %v", c.holder, c.target, got, c.want)
		}
	}
}

func TestRevokedOnPromotion(t *testing.T) {
	if revoked, ok := RevokedOnPromotion(Pathfinder, Navigator); !ok || revoked != Pathfinder {
		t.Errorf("Expected Pathfinder revoked, got %s (%v)", revoked, ok)
	}
	if _, ok := RevokedOnPromotion(NoTier, Pathfinder); ok {
		t.Error("Expected nothing revoked for a member without a tier")
	}
	if _, ok := RevokedOnPromotion(Pilot, Pilot); ok {
		t.Error("Expected nothing revoked when already at target")
	}
}

func TestGrantsEntitlement(t *testing.T) {
	if !GrantsEntitlement(Pathfinder) {
		t.Error("Expected Verified -> Pathfinder to grant the voter role")
	}
	if GrantsEntitlement(Navigator) || GrantsEntitlement(Pilot) {
		t.Error("Expected only the first promotion to grant the voter role")
	}
}

func TestLadder_TierOf(t *testing.T) {
	l := Default()

	if got := l.TierOf([]string{"@everyone", "SCF Pathfinder"}); got != Pathfinder {
		t.Errorf("Expected Pathfinder, got %s", got)
	}
	if got := l.TierOf([]string{"SCF Pilot", "SCF Pathfinder", "SCF Voter"}); got != Pilot {
		t.Errorf("Expected highest tier Pilot, got %s", got)
	}
	if got := l.TierOf([]string{"SCF Voter"}); got != NoTier {
		t.Errorf("Expected NoTier, got %s", got)
	}

	held := l.TiersHeld([]string{"SCF Pilot", "SCF Verified"})
	if len(held) != 2 || held[0] != Verified || held[1] != Pilot {
		t.Errorf("Expected [verified pilot], got %v", held)
	}
}

func TestLadder_ConfiguredNamesAndQuorum(t *testing.T) {
	l, err := New(Options{
		DisplayNames: map[Tier]string{Navigator: "Navigators"},
		VoterRole:    "Voters",
		Quorum:       map[Tier]int{Pilot: 7},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if l.DisplayName(Navigator) != "Navigators" {
		t.Errorf("Expected configured name, got %s", l.DisplayName(Navigator))
	}
	if l.DisplayName(Pilot) != "SCF Pilot" {
		t.Errorf("Expected default name, got %s", l.DisplayName(Pilot))
	}
	if tier, ok := l.TierByName("Navigators"); !ok || tier != Navigator {
		t.Errorf("Expected Navigators to resolve to navigator, got %s", tier)
	}
	if l.Quorum(Pilot) != 7 || l.Quorum(Navigator) != DefaultQuorum {
		t.Errorf("Unexpected quorum: pilot=%d navigator=%d", l.Quorum(Pilot), l.Quorum(Navigator))
	}
	if l.VoterRole() != "Voters" {
		t.Errorf("Expected voter role Voters, got %s", l.VoterRole())
	}
}

func TestLadder_RejectsDuplicateNames(t *testing.T) {
	_, err := New(Options{DisplayNames: map[Tier]string{Pilot: "SCF Navigator"}})
	if err == nil {
		t.Error("Expected error for duplicate display names")
	}
}

func TestTier_ScanValue(t *testing.T) {
	var tier Tier
	if err := tier.Scan([]byte("navigator")); err != nil || tier != Navigator {
		t.Fatalf("Expected navigator, got %s (%v)", tier, err)
	}
	v, err := Pilot.Value()
	if err != nil || v != "pilot" {
		t.Errorf("Expected pilot, got %v (%v)", v, err)
	}
	if _, err := NoTier.Value(); err == nil {
		t.Error("Expected error storing NoTier")
	}
	if _, err := ParseTier("captain"); err == nil {
		t.Error("Expected error for unknown tier")
	}
}
