package services

import (
	"errors"
	"strings"
	"testing"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/gateway/gatewaytest"
	"scf-community/governor/internal/ladder"
	gormModels "scf-community/governor/internal/models/gorm"
)

func TestPromotionService_PathfinderToNavigator(t *testing.T) {
	f := newFixture(t)
	f.gw.AddMember(testGuild, "alice", "alice", rolePathfinder, roleVoter)

	res, err := f.promotion.Promote(t.Context(), PromotionRequest{
		GuildID: testGuild, MemberID: "alice", MemberName: "alice", Target: ladder.Navigator,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	roles := f.gw.RoleNames(testGuild, "alice")
	if !hasRole(roles, roleNavigator) || hasRole(roles, rolePathfinder) || !hasRole(roles, roleVoter) {
		t.Errorf("Expected Navigator and Voter only, got %v", roles)
	}
	if len(res.Revoked) != 1 || res.Revoked[0] != ladder.Pathfinder {
		t.Errorf("Expected Pathfinder revoked, got %v", res.Revoked)
	}
	if res.EntitlementGranted {
		t.Error("Expected no entitlement grant above Pathfinder")
	}
}

func TestPromotionService_VerifiedToPathfinderGrantsVoter(t *testing.T) {
	f := newFixture(t)
	f.gw.AddMember(testGuild, "bob", "bob", roleVerified)

	res, err := f.promotion.Promote(t.Context(), PromotionRequest{
		GuildID: testGuild, MemberID: "bob", MemberName: "bob", Target: ladder.Pathfinder,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !res.EntitlementGranted {
		t.Error("Expected the voter role to be granted")
	}

	roles := f.gw.RoleNames(testGuild, "bob")
	if !hasRole(roles, rolePathfinder) || !hasRole(roles, roleVoter) || hasRole(roles, roleVerified) {
		t.Errorf("Unexpected roles %v", roles)
	}
}

func TestPromotionService_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.gw.AddMember(testGuild, "alice", "alice", rolePathfinder, roleVoter)
	req := PromotionRequest{GuildID: testGuild, MemberID: "alice", MemberName: "alice", Target: ladder.Navigator}

	if _, err := f.promotion.Promote(t.Context(), req); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	first := f.gw.RoleNames(testGuild, "alice")
	addCalls := f.gw.AddRoleCalls

	res, err := f.promotion.Promote(t.Context(), req)
	if err != nil {
		t.Fatalf("Expected no error on repeat, got %v", err)
	}
	if !res.AlreadyHeld || len(res.Revoked) != 0 {
		t.Errorf("Expected a no-op repeat, got %+v", res)
	}
	if f.gw.AddRoleCalls != addCalls {
		t.Errorf("Expected no further role grants, got %d more", f.gw.AddRoleCalls-addCalls)
	}

	second := f.gw.RoleNames(testGuild, "alice")
	if len(first) != len(second) {
		t.Errorf("Expected the same end state, got %v then %v", first, second)
	}

	var mirrored int64
	f.db.Model(&gormModels.UserRole{}).Where("user_id = ?", "alice").Count(&mirrored)
	if mirrored != 1 {
		t.Errorf("Expected one mirrored grant, got %d", mirrored)
	}
}

func TestPromotionService_MissingRoleMutatesNothing(t *testing.T) {
	f := newFixture(t)
	f.gw = gatewaytest.New()
	f.gw.AddGuild(testGuild, "SCF", rolePathfinder, roleNavigator)
	f.gw.AddMember(testGuild, "alice", "alice", rolePathfinder)
	f.promotion = NewPromotionService(f.gw, f.userRoles, f.members, f.ladder, nil)

	_, err := f.promotion.Promote(t.Context(), PromotionRequest{
		GuildID: testGuild, MemberID: "alice", MemberName: "alice", Target: ladder.Navigator,
	})
	if !errors.Is(err, constants.ErrRoleNotConfigured) {
		t.Fatalf("Expected ErrRoleNotConfigured, got %v", err)
	}
	if f.gw.AddRoleCalls != 0 || f.gw.RemoveRoleCalls != 0 {
		t.Errorf("Expected no role writes, got %d adds and %d removes", f.gw.AddRoleCalls, f.gw.RemoveRoleCalls)
	}
}

func TestPromotionService_MemberNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.promotion.Promote(t.Context(), PromotionRequest{
		GuildID: testGuild, MemberID: "ghost", MemberName: "ghost", Target: ladder.Navigator,
	})
	if !errors.Is(err, constants.ErrMemberNotFound) {
		t.Errorf("Expected ErrMemberNotFound, got %v", err)
	}
}

func TestPromotionService_TargetGrantFailure(t *testing.T) {
	f := newFixture(t)
	f.gw.AddMember(testGuild, "alice", "alice", rolePathfinder)
	f.gw.FailAddRole = errors.New("missing permissions")

	_, err := f.promotion.Promote(t.Context(), PromotionRequest{
		GuildID: testGuild, MemberID: "alice", MemberName: "alice", Target: ladder.Navigator,
	})
	if !errors.Is(err, constants.ErrGatewayUnavailable) {
		t.Fatalf("Expected ErrGatewayUnavailable, got %v", err)
	}

	roles := f.gw.RoleNames(testGuild, "alice")
	if !hasRole(roles, rolePathfinder) {
		t.Errorf("Expected the previous tier to be kept after a failed grant, got %v", roles)
	}
}

func TestPromotionService_GrantRole(t *testing.T) {
	f := newFixture(t)
	f.gw.AddMember(testGuild, "carol", "carol", rolePathfinder, roleVoter)

	if _, err := f.promotion.GrantRole(t.Context(), testGuild, "carol", roleNavigator); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	roles := f.gw.RoleNames(testGuild, "carol")
	if !hasRole(roles, roleNavigator) || hasRole(roles, rolePathfinder) {
		t.Errorf("Expected Navigator in place of Pathfinder, got %v", roles)
	}

	for _, role := range []string{roleNavigator, rolePathfinder} {
		_, err := f.promotion.GrantRole(t.Context(), testGuild, "carol", role)
		if !errors.Is(err, constants.ErrAlreadyAtTarget) {
			t.Errorf("Expected ErrAlreadyAtTarget for %s, got %v", role, err)
		}
	}

	if _, err := f.promotion.GrantRole(t.Context(), testGuild, "carol", "Moderator"); !errors.Is(err, constants.ErrNotNominable) {
		t.Errorf("Expected ErrNotNominable for a non-ladder role, got %v", err)
	}
}

func TestPromotionService_VoterGrantFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.gw.AddMember(testGuild, "bob", "bob", roleVerified)
	f.gw.FailAddRoleIDs = map[string]error{gatewaytest.RoleID(roleVoter): errors.New("missing permissions")}
	req := PromotionRequest{GuildID: testGuild, MemberID: "bob", MemberName: "bob", Target: ladder.Pathfinder}

	if _, err := f.promotion.Promote(t.Context(), req); !errors.Is(err, constants.ErrGatewayUnavailable) {
		t.Fatalf("Expected ErrGatewayUnavailable, got %v", err)
	}

	f.gw.FailAddRoleIDs = nil
	res, err := f.promotion.Promote(t.Context(), req)
	if err != nil {
		t.Fatalf("Expected the rerun to succeed, got %v", err)
	}
	if !res.AlreadyHeld || !res.EntitlementGranted {
		t.Errorf("Expected the rerun to resume at the voter grant, got %+v", res)
	}

	roles := f.gw.RoleNames(testGuild, "bob")
	if !hasRole(roles, rolePathfinder) || !hasRole(roles, roleVoter) || hasRole(roles, roleVerified) {
		t.Errorf("Unexpected roles %v", roles)
	}
}

func TestPromotionService_GrantRoleSkippingTiers(t *testing.T) {
	f := newFixture(t)
	f.gw.AddMember(testGuild, "vera", "vera", roleVerified)

	res, err := f.promotion.GrantRole(t.Context(), testGuild, "vera", roleNavigator)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(res.Revoked) != 1 || res.Revoked[0] != ladder.Verified {
		t.Errorf("Expected Verified revoked, got %v", res.Revoked)
	}

	roles := f.gw.RoleNames(testGuild, "vera")
	if held := f.ladder.TiersHeld(roles); len(held) != 1 || held[0] != ladder.Navigator {
		t.Errorf("Expected Navigator as the only tier role, got %v", roles)
	}
}

func TestPromotionService_GrantRoleUsesStoredName(t *testing.T) {
	f := newFixture(t)
	f.gw.AddMember(testGuild, "123456789", "carol", rolePathfinder)

	if got := f.members.DisplayName(t.Context(), testGuild, "123456789"); got != "123456789" {
		t.Errorf("Expected the id before any sync, got %q", got)
	}

	f.db.Create(&gormModels.Member{MemberID: "123456789", Username: "carol", GuildID: testGuild})
	if got := f.members.DisplayName(t.Context(), testGuild, "123456789"); got != "carol" {
		t.Errorf("Expected the stored username, got %q", got)
	}

	if _, err := f.promotion.GrantRole(t.Context(), testGuild, "123456789", roleNavigator); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n := len(f.gw.AddRoleReasons); n == 0 || !strings.Contains(f.gw.AddRoleReasons[n-1], "carol") {
		t.Errorf("Expected the audit reason to name the member, got %v", f.gw.AddRoleReasons)
	}
}
