package services

import (
	"context"
	"errors"
	"fmt"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/db/repositories"
	"scf-community/governor/internal/gateway"
	"scf-community/governor/internal/ladder"
	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/metrics"
)

type PromotionRequest struct {
	GuildID    string
	MemberID   string
	MemberName string
	Target     ladder.Tier
	// Reason overrides the audit-log reason of the target grant
	Reason string
}

type PromotionResult struct {
	Target             ladder.Tier
	AlreadyHeld        bool
	EntitlementGranted bool
	Revoked            []ladder.Tier
}

// PromotionService moves a member to a tier on the platform and mirrors the change.
// Running it twice for the same member and tier leaves the same end state.
type PromotionService struct {
	gw        gateway.Gateway
	userRoles *repositories.UserRoleRepository
	members   *MemberRoleService
	ladder    *ladder.Ladder
	metrics   *metrics.MetricsRegistry
}

func NewPromotionService(
	gw gateway.Gateway,
	userRoles *repositories.UserRoleRepository,
	members *MemberRoleService,
	l *ladder.Ladder,
	metricsReg *metrics.MetricsRegistry,
) *PromotionService {
	return &PromotionService{
		gw:        gw,
		userRoles: userRoles,
		members:   members,
		ladder:    l,
		metrics:   metricsReg,
	}
}

func (s *PromotionService) Promote(ctx context.Context, req PromotionRequest) (*PromotionResult, error) {
	result, err := s.promote(ctx, req)
	if err != nil {
		s.metrics.Promotion("failed")
		return nil, err
	}
	s.metrics.Promotion("succeeded")
	return result, nil
}

func (s *PromotionService) promote(ctx context.Context, req PromotionRequest) (*PromotionResult, error) {
	if !req.Target.Valid() {
		return nil, fmt.Errorf("%w: invalid target tier %s", constants.ErrNotNominable, req.Target)
	}

	// STEP 1: Resolve the roles involved; nothing is touched if one is missing
	catalog, err := s.gw.FetchRoleCatalog(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}
	idByName := make(map[string]string, len(catalog))
	for _, r := range catalog {
		idByName[r.Name] = r.ID
	}

	targetName := s.ladder.DisplayName(req.Target)
	targetRoleID, ok := idByName[targetName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", constants.ErrRoleNotConfigured, targetName)
	}
	voterRoleID, ok := idByName[s.ladder.VoterRole()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", constants.ErrRoleNotConfigured, s.ladder.VoterRole())
	}

	// STEP 2: Read the live role set, bypassing the cache
	heldIDs, err := s.gw.FetchMemberRoles(ctx, req.GuildID, req.MemberID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", constants.ErrMemberNotFound, req.MemberID)
		}
		return nil, err
	}
	held := make(map[string]bool, len(heldIDs))
	for _, id := range heldIDs {
		held[id] = true
	}

	result := &PromotionResult{Target: req.Target}
	defer s.members.Invalidate(req.GuildID, req.MemberID)

	// STEP 3: Grant the target first so a failure leaves the member where they were
	if held[targetRoleID] {
		result.AlreadyHeld = true
	} else {
		reason := req.Reason
		if reason == "" {
			reason = fmt.Sprintf(constants.ReasonPromotion, req.MemberName, targetName)
		}
		if err := s.gw.AddRole(ctx, req.GuildID, req.MemberID, targetRoleID, reason); err != nil {
			return nil, err
		}
	}
	s.mirrorAssign(ctx, req.GuildID, req.MemberID, targetRoleID)

	// STEP 4: Voter entitlement on the first promotion; never revoked
	if ladder.GrantsEntitlement(req.Target) && !held[voterRoleID] {
		reason := fmt.Sprintf(constants.ReasonEntitlement, req.MemberName, targetName)
		// The target is already held at this point, so a rerun resumes from here
		if err := s.gw.AddRole(ctx, req.GuildID, req.MemberID, voterRoleID, reason); err != nil {
			return nil, fmt.Errorf("failed to grant voter role: %w", err)
		}
		result.EntitlementGranted = true
		s.mirrorAssign(ctx, req.GuildID, req.MemberID, voterRoleID)
	}

	// STEP 5: Drop every lower tier the member holds; admin grants may skip tiers.
	// A failure here leaves two tier roles, which the role sync repairs.
	for _, tier := range s.ladder.TiersHeld(namesOfHeld(catalog, held)) {
		if _, revoke := ladder.RevokedOnPromotion(tier, req.Target); !revoke {
			continue
		}
		s.revoke(ctx, req, tier, idByName[s.ladder.DisplayName(tier)], targetName, result)
	}

	logging.Info("Member promoted",
		"guild_id", req.GuildID,
		"member_id", req.MemberID,
		"target", req.Target.Key(),
		"already_held", result.AlreadyHeld,
		"entitlement_granted", result.EntitlementGranted,
		"revoked", len(result.Revoked),
	)
	return result, nil
}

func namesOfHeld(catalog []gateway.Role, held map[string]bool) []string {
	names := make([]string, 0, len(held))
	for _, r := range catalog {
		if held[r.ID] {
			names = append(names, r.Name)
		}
	}
	return names
}

func (s *PromotionService) mirrorAssign(ctx context.Context, guildID, memberID, roleID string) {
	if err := s.userRoles.Assign(ctx, guildID, memberID, roleID); err != nil {
		logging.Warn("Failed to mirror role grant", "member_id", memberID, "role_id", roleID, "error", err.Error())
	}
}

func (s *PromotionService) revoke(ctx context.Context, req PromotionRequest, tier ladder.Tier, roleID, targetName string, result *PromotionResult) {
	name := s.ladder.DisplayName(tier)
	reason := fmt.Sprintf(constants.ReasonRevocation, req.MemberName, targetName, name)
	if err := s.gw.RemoveRole(ctx, req.GuildID, req.MemberID, roleID, reason); err != nil {
		logging.Error("Failed to revoke previous tier",
			"guild_id", req.GuildID, "member_id", req.MemberID, "tier", tier.Key(), "error", err.Error())
		return
	}
	result.Revoked = append(result.Revoked, tier)
	if err := s.userRoles.Revoke(ctx, req.GuildID, req.MemberID, roleID); err != nil {
		logging.Warn("Failed to mirror role revocation", "member_id", req.MemberID, "error", err.Error())
	}
}

// GrantRole is the admin path into Promote. roleName must be a ladder tier; a member
// already at that tier or above is rejected with ErrAlreadyAtTarget.
func (s *PromotionService) GrantRole(ctx context.Context, guildID, memberID, roleName string) (*PromotionResult, error) {
	target, ok := s.ladder.TierByName(roleName)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a ladder role", constants.ErrNotNominable, roleName)
	}

	s.members.Invalidate(guildID, memberID)
	names, err := s.members.RoleNames(ctx, guildID, memberID)
	if err != nil {
		return nil, err
	}
	if current := s.ladder.TierOf(names); current != ladder.NoTier && current.Rank() >= target.Rank() {
		return nil, fmt.Errorf("%w: member holds %s", constants.ErrAlreadyAtTarget, s.ladder.DisplayName(current))
	}

	name := s.members.DisplayName(ctx, guildID, memberID)
	return s.Promote(ctx, PromotionRequest{
		GuildID:    guildID,
		MemberID:   memberID,
		MemberName: name,
		Target:     target,
		Reason:     fmt.Sprintf(constants.ReasonAdminGrant, name, roleName),
	})
}
