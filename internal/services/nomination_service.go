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
	"scf-community/governor/internal/metrics"
	gormModels "scf-community/governor/internal/models/gorm"
)

const nominationEmbedColor = 0x0099FF

type NominationRequest struct {
	GuildID     string
	ChannelID   string
	NominatorID string
	NomineeID   string
	NomineeName string
}

type NominationResult struct {
	ThreadID string
	Target   ladder.Tier
	RoleName string
	Reply    string
}

// NominationService opens voting sessions
type NominationService struct {
	gw       gateway.Gateway
	threads  *repositories.VotingThreadRepository
	guilds   *repositories.GuildRepository
	members  *MemberRoleService
	ladder   *ladder.Ladder
	metrics  *metrics.MetricsRegistry
	ttl      time.Duration
	cooldown time.Duration
	now      func() time.Time
}

func NewNominationService(
	gw gateway.Gateway,
	threads *repositories.VotingThreadRepository,
	guilds *repositories.GuildRepository,
	members *MemberRoleService,
	l *ladder.Ladder,
	metricsReg *metrics.MetricsRegistry,
	ttl, cooldown time.Duration,
) *NominationService {
	return &NominationService{
		gw:       gw,
		threads:  threads,
		guilds:   guilds,
		members:  members,
		ladder:   l,
		metrics:  metricsReg,
		ttl:      ttl,
		cooldown: cooldown,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Nominate checks every guard, then opens a thread with a vote button and records an
// OPEN session for it. A failed guard leaves no trace.
func (s *NominationService) Nominate(ctx context.Context, req NominationRequest) (*NominationResult, error) {
	result, err := s.nominate(ctx, req)
	if err != nil {
		s.metrics.Nomination("rejected")
		return nil, err
	}
	s.metrics.Nomination("opened")
	return result, nil
}

func (s *NominationService) nominate(ctx context.Context, req NominationRequest) (*NominationResult, error) {
	if req.GuildID == "" {
		return nil, constants.ErrNotInGuild
	}
	if req.NominatorID == req.NomineeID {
		return nil, constants.ErrSelfNomination
	}

	target, err := s.checkNominee(ctx, req)
	if err != nil {
		return nil, err
	}

	nominatorRoles, err := s.members.RoleNames(ctx, req.GuildID, req.NominatorID)
	if err != nil {
		return nil, err
	}
	if !ladder.CanNominate(s.ladder.TierOf(nominatorRoles), target) {
		return nil, fmt.Errorf("%w: nominate for %s", constants.ErrUnauthorized, target)
	}

	if err := s.checkOpenAndCooldown(ctx, req.NomineeID, target); err != nil {
		return nil, err
	}

	return s.open(ctx, req, target)
}

// checkNominee resolves the tier the nominee would be promoted to
func (s *NominationService) checkNominee(ctx context.Context, req NominationRequest) (ladder.Tier, error) {
	nomineeRoles, err := s.members.RoleNames(ctx, req.GuildID, req.NomineeID)
	if err != nil {
		return ladder.NoTier, err
	}

	current := s.ladder.TierOf(nomineeRoles)
	target, err := ladder.NextTier(current)
	if err != nil {
		return ladder.NoTier, err
	}

	for _, held := range s.ladder.TiersHeld(nomineeRoles) {
		if held == target {
			return ladder.NoTier, fmt.Errorf("%w: %s", constants.ErrAlreadyAtTarget, target)
		}
	}
	return target, nil
}

func (s *NominationService) checkOpenAndCooldown(ctx context.Context, nomineeID string, target ladder.Tier) error {
	open, err := s.threads.FindOpen(ctx, nomineeID, target)
	if err != nil {
		return err
	}
	if open != nil {
		return fmt.Errorf("%w: thread %s", constants.ErrAlreadyNominated, open.ThreadID)
	}

	last, err := s.threads.LastClosed(ctx, nomineeID, target, gormModels.CloseExpired)
	if err != nil {
		return err
	}
	if last != nil && last.ClosedAt != nil && s.now().Sub(*last.ClosedAt) < s.cooldown {
		return fmt.Errorf("%w: until %s", constants.ErrCooldownActive, last.ClosedAt.Add(s.cooldown).Format(time.RFC3339))
	}
	return nil
}

func (s *NominationService) open(ctx context.Context, req NominationRequest, target ladder.Tier) (*NominationResult, error) {
	roleName := s.ladder.DisplayName(target)
	threadName := fmt.Sprintf("Nomination: %s for %s", req.NomineeName, roleName)
	reason := fmt.Sprintf(constants.ReasonNominationRun, req.NomineeName, roleName)

	threadID, err := s.gw.CreateThread(ctx, req.ChannelID, threadName, s.ttl, reason)
	if err != nil {
		return nil, err
	}

	msg := gateway.Message{
		Content: fmt.Sprintf("**Please Vote!**\n<@%s> has nominated <@%s> to become a %s.",
			req.NominatorID, req.NomineeID, roleName),
		Embeds: []gateway.Embed{{
			Title:       fmt.Sprintf("Nomination for %s", req.NomineeName),
			Description: fmt.Sprintf("Please cast your vote for %s to become a %s.", req.NomineeName, roleName),
			Color:       nominationEmbedColor,
			Timestamp:   s.now(),
		}},
		Buttons: []gateway.Button{{
			Label:    "Vote Yes",
			CustomID: VoteButtonID(req.NomineeID, target),
		}},
	}
	if _, err := s.gw.SendMessage(ctx, threadID, msg); err != nil {
		s.abandonThread(ctx, threadID)
		return nil, err
	}

	session := &gormModels.VotingThread{
		ThreadID:    threadID,
		GuildID:     req.GuildID,
		ChannelID:   req.ChannelID,
		ThreadName:  threadName,
		CreatedAt:   s.now(),
		NominatorID: req.NominatorID,
		NomineeID:   req.NomineeID,
		NomineeName: req.NomineeName,
		TargetTier:  target,
		RoleName:    roleName,
	}
	if role, err := s.guilds.FindRoleByName(ctx, req.GuildID, roleName); err == nil && role != nil {
		session.RoleID = &role.RoleID
	}

	if err := s.threads.Create(ctx, session); err != nil {
		s.abandonThread(ctx, threadID)
		return nil, err
	}

	logging.Info("Nomination opened",
		"guild_id", req.GuildID,
		"thread_id", threadID,
		"nominator_id", req.NominatorID,
		"nominee_id", req.NomineeID,
		"target", target.Key(),
	)

	return &NominationResult{
		ThreadID: threadID,
		Target:   target,
		RoleName: roleName,
		Reply:    fmt.Sprintf("Vote To Promote <@%s> To %s", req.NomineeID, roleName),
	}, nil
}

// abandonThread archives a thread whose session could not be stored
func (s *NominationService) abandonThread(ctx context.Context, threadID string) {
	if err := s.gw.ArchiveThread(context.WithoutCancel(ctx), threadID); err != nil && !errors.Is(err, gateway.ErrNotFound) {
		logging.Warn("Failed to archive orphaned nomination thread", "thread_id", threadID, "error", err.Error())
	}
}
