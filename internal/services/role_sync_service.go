package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/db/repositories"
	"scf-community/governor/internal/gateway"
	"scf-community/governor/internal/ladder"
	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/models/entities"
)

type SyncReport struct {
	GuildID       string
	Roles         int
	Members       int
	Grants        int
	RoleBatches   int
	MemberBatches int
	GrantBatches  int
	Fixed         int
}

// RoleOutcome is the result of one revocation made by FixUserRoles
type RoleOutcome struct {
	Tier   ladder.Tier
	RoleID string
	Err    error
}

type FixResult struct {
	Kept     ladder.Tier
	Outcomes []RoleOutcome
}

// RoleSyncService mirrors guild roles and rosters into the store and repairs members
// that ended up with more than one tier role
type RoleSyncService struct {
	gw        gateway.Gateway
	repo      *repositories.SyncRepository
	history   *repositories.GuildSyncHistoryRepo
	userRoles *repositories.UserRoleRepository
	members   *MemberRoleService
	ladder    *ladder.Ladder
}

func NewRoleSyncService(
	gw gateway.Gateway,
	repo *repositories.SyncRepository,
	history *repositories.GuildSyncHistoryRepo,
	userRoles *repositories.UserRoleRepository,
	members *MemberRoleService,
	l *ladder.Ladder,
) *RoleSyncService {
	return &RoleSyncService{
		gw:        gw,
		repo:      repo,
		history:   history,
		userRoles: userRoles,
		members:   members,
		ladder:    l,
	}
}

func (s *RoleSyncService) SyncGuild(ctx context.Context, guildID string) (*SyncReport, error) {
	guild, err := s.gw.FetchGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertGuild(ctx, guild.ID, guild.Name); err != nil {
		return nil, fmt.Errorf("%w: %v", constants.ErrStoreUnavailable, err)
	}

	report := &SyncReport{GuildID: guildID}

	catalog, err := s.SyncRoles(ctx, guildID, report)
	if err != nil {
		return report, err
	}
	s.recordSync(ctx, guildID, constants.SyncEventRoles)

	if err := s.SyncMembers(ctx, guildID, catalog, report); err != nil {
		return report, err
	}
	s.recordSync(ctx, guildID, constants.SyncEventMembers)

	logging.Info("Guild synced",
		"guild_id", guildID,
		"roles", report.Roles,
		"members", report.Members,
		"grants", report.Grants,
		"fixed", report.Fixed,
	)
	return report, nil
}

// SyncRoles stores the role catalog and returns it
func (s *RoleSyncService) SyncRoles(ctx context.Context, guildID string, report *SyncReport) ([]gateway.Role, error) {
	catalog, err := s.gw.FetchRoleCatalog(ctx, guildID)
	if err != nil {
		return nil, err
	}

	rows := make([]entities.RoleRow, 0, len(catalog))
	for _, r := range catalog {
		rows = append(rows, entities.RoleRow{RoleID: r.ID, RoleName: r.Name, GuildID: guildID})
	}

	batches, err := s.repo.UpsertRoles(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constants.ErrStoreUnavailable, err)
	}
	report.Roles = len(rows)
	report.RoleBatches = batches
	return catalog, nil
}

// SyncMembers stores the roster and the tier roles each member holds, then repairs
// members holding several tier roles
func (s *RoleSyncService) SyncMembers(ctx context.Context, guildID string, catalog []gateway.Role, report *SyncReport) error {
	roster, err := s.gw.FetchMembers(ctx, guildID)
	if err != nil {
		return err
	}

	tierOfRole := make(map[string]ladder.Tier)
	for _, r := range catalog {
		if tier, ok := s.ladder.TierByName(r.Name); ok {
			tierOfRole[r.ID] = tier
		}
	}

	now := time.Now().UTC()
	seen := make(map[string]bool, len(roster))
	memberRows := make([]entities.MemberRow, 0, len(roster))
	var grants []entities.UserRoleRow
	var multiTier []string

	for _, m := range roster {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		memberRows = append(memberRows, entities.MemberRow{
			MemberID:      m.ID,
			Username:      m.Username,
			Discriminator: m.Discriminator,
			GuildID:       guildID,
		})

		tiers := 0
		for _, roleID := range m.RoleIDs {
			if _, ok := tierOfRole[roleID]; !ok {
				continue
			}
			tiers++
			grants = append(grants, entities.UserRoleRow{
				UserID:         m.ID,
				RoleID:         roleID,
				GuildID:        guildID,
				RoleAssignedAt: now,
			})
		}
		if tiers > 1 {
			multiTier = append(multiTier, m.ID)
		}
	}

	memberBatches, err := s.repo.UpsertMembers(ctx, memberRows)
	if err != nil {
		return fmt.Errorf("%w: %v", constants.ErrStoreUnavailable, err)
	}
	grantBatches, err := s.repo.UpsertUserRoles(ctx, grants)
	if err != nil {
		return fmt.Errorf("%w: %v", constants.ErrStoreUnavailable, err)
	}
	report.Members = len(memberRows)
	report.Grants = len(grants)
	report.MemberBatches = memberBatches
	report.GrantBatches = grantBatches

	for _, memberID := range multiTier {
		if _, err := s.FixUserRoles(ctx, guildID, memberID); err != nil {
			logging.Warn("Failed to fix member roles", "guild_id", guildID, "member_id", memberID, "error", err.Error())
			continue
		}
		report.Fixed++
	}
	return nil
}

// FixUserRoles keeps the highest tier role of a member and revokes the rest.
// Every revocation is attempted; the failures are joined into the returned error.
func (s *RoleSyncService) FixUserRoles(ctx context.Context, guildID, memberID string) (*FixResult, error) {
	catalog, err := s.gw.FetchRoleCatalog(ctx, guildID)
	if err != nil {
		return nil, err
	}
	idByName := make(map[string]string, len(catalog))
	nameByID := make(map[string]string, len(catalog))
	for _, r := range catalog {
		idByName[r.Name] = r.ID
		nameByID[r.ID] = r.Name
	}

	heldIDs, err := s.gw.FetchMemberRoles(ctx, guildID, memberID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", constants.ErrMemberNotFound, memberID)
		}
		return nil, err
	}
	heldNames := make([]string, 0, len(heldIDs))
	for _, id := range heldIDs {
		heldNames = append(heldNames, nameByID[id])
	}

	held := s.ladder.TiersHeld(heldNames)
	result := &FixResult{Kept: s.ladder.TierOf(heldNames)}
	if len(held) < 2 {
		return result, nil
	}
	defer s.members.Invalidate(guildID, memberID)

	keptName := s.ladder.DisplayName(result.Kept)
	reason := fmt.Sprintf(constants.ReasonFixUserRoles, keptName)

	var errs []error
	for _, tier := range held {
		if tier == result.Kept {
			continue
		}
		roleID := idByName[s.ladder.DisplayName(tier)]
		outcome := RoleOutcome{Tier: tier, RoleID: roleID}

		if err := s.gw.RemoveRole(ctx, guildID, memberID, roleID, reason); err != nil {
			outcome.Err = err
			errs = append(errs, fmt.Errorf("revoke %s: %w", tier, err))
		} else if err := s.userRoles.Revoke(ctx, guildID, memberID, roleID); err != nil {
			logging.Warn("Failed to mirror role revocation", "member_id", memberID, "error", err.Error())
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	logging.Info("Fixed member tier roles",
		"guild_id", guildID,
		"member_id", memberID,
		"kept", result.Kept.Key(),
		"revocations", len(result.Outcomes),
		"failures", len(errs),
	)
	return result, errors.Join(errs...)
}

func (s *RoleSyncService) recordSync(ctx context.Context, guildID, event string) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordSync(ctx, guildID, event); err != nil {
		logging.Warn("Failed to record sync history", "guild_id", guildID, "event", event, "error", err.Error())
	}
}
