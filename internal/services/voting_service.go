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

	"github.com/google/uuid"
)

type VoteOutcomeKind string

const (
	VoteRecorded        VoteOutcomeKind = "recorded"
	VoteExpired         VoteOutcomeKind = "expired"
	VotePromoted        VoteOutcomeKind = "promoted"
	VotePromotionFailed VoteOutcomeKind = "promotion_failed"
	VoteResolving       VoteOutcomeKind = "resolving"
)

type VoteClick struct {
	GuildID    string
	ThreadID   string
	VoterID    string
	NomineeID  string
	TargetTier ladder.Tier
}

// VoteOutcome is what the channel is told after a vote. Message is public.
type VoteOutcome struct {
	Kind    VoteOutcomeKind
	Count   int
	Quorum  int
	Message string
}

type RefreshResult struct {
	Count   int
	Outcome *VoteOutcome
	Message string
}

type ActiveSession struct {
	ThreadID    string
	NomineeID   string
	NomineeName string
	NominatorID string
	VoteCount   int
	Quorum      int
	CreatedAt   time.Time
	URL         string
}

type ActiveGroup struct {
	Tier     ladder.Tier
	RoleName string
	Sessions []ActiveSession
}

// Promoter applies a successful vote to the platform
type Promoter interface {
	Promote(ctx context.Context, req PromotionRequest) (*PromotionResult, error)
}

type VotingOptions struct {
	SessionTTL   time.Duration
	Cooldown     time.Duration
	LeaseTimeout time.Duration
}

// VotingService drives a session from its first vote to PROMOTED or EXPIRED
type VotingService struct {
	gw       gateway.Gateway
	threads  *repositories.VotingThreadRepository
	ledger   *VoteLedger
	promoter Promoter
	notifier *AdminNotifier
	members  *MemberRoleService
	ladder   *ladder.Ladder
	metrics  *metrics.MetricsRegistry
	opts     VotingOptions
	now      func() time.Time
}

func NewVotingService(
	gw gateway.Gateway,
	threads *repositories.VotingThreadRepository,
	ledger *VoteLedger,
	promoter Promoter,
	notifier *AdminNotifier,
	members *MemberRoleService,
	l *ladder.Ladder,
	metricsReg *metrics.MetricsRegistry,
	opts VotingOptions,
) *VotingService {
	return &VotingService{
		gw:       gw,
		threads:  threads,
		ledger:   ledger,
		promoter: promoter,
		notifier: notifier,
		members:  members,
		ladder:   l,
		metrics:  metricsReg,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// OnVoteClick records a vote and resolves the session when it reaches quorum.
// Expiry is checked before the ledger so a late vote never counts.
func (s *VotingService) OnVoteClick(ctx context.Context, click VoteClick) (*VoteOutcome, error) {
	voterRoles, err := s.members.RoleNames(ctx, click.GuildID, click.VoterID)
	if err != nil {
		return nil, err
	}
	if !ladder.CanVote(s.ladder.TierOf(voterRoles), click.TargetTier) {
		s.metrics.Vote("unauthorized")
		return nil, fmt.Errorf("%w: vote for %s", constants.ErrUnauthorized, click.TargetTier)
	}

	session, err := s.loadSession(ctx, click.GuildID, click.ThreadID)
	if err != nil {
		return nil, err
	}
	if session.NomineeID != click.NomineeID || session.TargetTier != click.TargetTier {
		return nil, fmt.Errorf("%w: button does not match thread %s", constants.ErrThreadNotFound, click.ThreadID)
	}
	if !session.IsOpen() {
		return nil, constants.ErrSessionClosed
	}

	quorum := s.ladder.Quorum(session.TargetTier)

	if session.Expired(s.now(), s.opts.SessionTTL) {
		return s.expire(ctx, session, quorum)
	}

	result, err := s.ledger.RecordVote(ctx, session.ThreadID, click.VoterID)
	if err != nil {
		switch {
		case errors.Is(err, constants.ErrDuplicateVote):
			s.metrics.Vote("duplicate")
		case errors.Is(err, constants.ErrSessionClosed):
			s.metrics.Vote("closed")
		default:
			s.metrics.Vote("failed")
		}
		return nil, err
	}
	s.metrics.Vote("accepted")

	logging.Info("Vote recorded",
		"guild_id", click.GuildID,
		"thread_id", session.ThreadID,
		"voter_id", click.VoterID,
		"count", result.NewCount,
		"quorum", quorum,
	)

	if result.NewCount < quorum {
		s.renameWithCount(ctx, session, result.NewCount)
		return &VoteOutcome{
			Kind:    VoteRecorded,
			Count:   result.NewCount,
			Quorum:  quorum,
			Message: "Vote recorded but not enough votes to assign the role yet.",
		}, nil
	}

	return s.resolve(ctx, session, result.NewCount, quorum)
}

// Refresh reconciles the count of a thread with its ledger and retries resolution of a
// session that already reached quorum
func (s *VotingService) Refresh(ctx context.Context, guildID, threadID string) (*RefreshResult, error) {
	session, err := s.loadSession(ctx, guildID, threadID)
	if err != nil {
		return nil, err
	}

	count, err := s.ledger.Reconcile(ctx, threadID)
	if err != nil {
		return nil, err
	}
	refresh := &RefreshResult{
		Count:   count,
		Message: fmt.Sprintf("The vote count has been updated to %d.", count),
	}
	if !session.IsOpen() {
		return refresh, nil
	}

	quorum := s.ladder.Quorum(session.TargetTier)
	switch {
	case session.Expired(s.now(), s.opts.SessionTTL):
		refresh.Outcome, err = s.expire(ctx, session, quorum)
	case count >= quorum:
		refresh.Outcome, err = s.resolve(ctx, session, count, quorum)
	default:
		s.renameWithCount(ctx, session, count)
	}
	if err != nil {
		return nil, err
	}
	return refresh, nil
}

// SweepExpired closes every OPEN session older than the session TTL at now
func (s *VotingService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.threads.ListExpired(ctx, now.Add(-s.opts.SessionTTL))
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range expired {
		if ctx.Err() != nil {
			return closed, ctx.Err()
		}
		session := &expired[i]
		ok, err := s.threads.CloseExpired(ctx, session.ThreadID, now, now.Add(-s.opts.LeaseTimeout))
		if err != nil {
			logging.Error("Failed to expire session", "thread_id", session.ThreadID, "error", err.Error())
			continue
		}
		if !ok {
			continue
		}
		closed++
		s.metrics.SessionClosed(string(gormModels.CloseExpired))
		if _, err := s.gw.SendMessage(ctx, session.ThreadID, gateway.Message{Content: s.expiryMessage()}); err != nil {
			logging.Warn("Failed to announce expiry", "thread_id", session.ThreadID, "error", err.Error())
		}
		s.closeThread(ctx, session.ThreadID)
	}
	return closed, nil
}

// ListActive returns the OPEN sessions of a guild whose thread is still active, grouped
// by target tier in ladder order
func (s *VotingService) ListActive(ctx context.Context, guildID string) ([]ActiveGroup, error) {
	if guildID == "" {
		return nil, constants.ErrNotInGuild
	}

	open, err := s.threads.ListOpen(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, nil
	}

	active, err := s.gw.ActiveThreadIDs(ctx, guildID)
	if err != nil {
		return nil, err
	}

	byTier := make(map[ladder.Tier][]ActiveSession)
	for _, session := range open {
		if !active[session.ThreadID] {
			continue
		}
		byTier[session.TargetTier] = append(byTier[session.TargetTier], ActiveSession{
			ThreadID:    session.ThreadID,
			NomineeID:   session.NomineeID,
			NomineeName: session.NomineeName,
			NominatorID: session.NominatorID,
			VoteCount:   session.VoteCount,
			Quorum:      s.ladder.Quorum(session.TargetTier),
			CreatedAt:   session.CreatedAt,
			URL:         gateway.ThreadURL(guildID, session.ThreadID),
		})
	}

	var groups []ActiveGroup
	for _, tier := range ladder.Tiers {
		if sessions := byTier[tier]; len(sessions) > 0 {
			groups = append(groups, ActiveGroup{
				Tier:     tier,
				RoleName: s.ladder.DisplayName(tier),
				Sessions: sessions,
			})
		}
	}
	return groups, nil
}

func (s *VotingService) loadSession(ctx context.Context, guildID, threadID string) (*gormModels.VotingThread, error) {
	session, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if session.GuildID != guildID {
		return nil, fmt.Errorf("%w: %s", constants.ErrThreadNotFound, threadID)
	}
	return session, nil
}

func (s *VotingService) expire(ctx context.Context, session *gormModels.VotingThread, quorum int) (*VoteOutcome, error) {
	now := s.now()
	closed, err := s.threads.CloseExpired(ctx, session.ThreadID, now, now.Add(-s.opts.LeaseTimeout))
	if err != nil {
		return nil, err
	}
	if !closed {
		// a live promotion lease blocks expiry; the promotion decides the outcome
		current, err := s.threads.GetByID(ctx, session.ThreadID)
		if err != nil {
			return nil, err
		}
		if !current.IsOpen() {
			return nil, constants.ErrSessionClosed
		}
		return &VoteOutcome{
			Kind:    VoteResolving,
			Count:   current.VoteCount,
			Quorum:  quorum,
			Message: "The promotion for this vote is already being processed.",
		}, nil
	}

	s.metrics.SessionClosed(string(gormModels.CloseExpired))
	logging.Info("Session expired", "thread_id", session.ThreadID, "nominee_id", session.NomineeID)
	s.closeThread(ctx, session.ThreadID)

	return &VoteOutcome{
		Kind:    VoteExpired,
		Count:   session.VoteCount,
		Quorum:  quorum,
		Message: s.expiryMessage(),
	}, nil
}

// resolve promotes the nominee under the session's promotion lease
func (s *VotingService) resolve(ctx context.Context, session *gormModels.VotingThread, count, quorum int) (*VoteOutcome, error) {
	now := s.now()
	token := uuid.NewString()

	claimed, err := s.threads.ClaimPromotion(ctx, session.ThreadID, token, now, now.Add(-s.opts.LeaseTimeout))
	if err != nil {
		return nil, err
	}
	if !claimed {
		return &VoteOutcome{
			Kind:    VoteResolving,
			Count:   count,
			Quorum:  quorum,
			Message: "Vote recorded. The promotion is already being processed.",
		}, nil
	}

	_, err = s.promoter.Promote(ctx, PromotionRequest{
		GuildID:    session.GuildID,
		MemberID:   session.NomineeID,
		MemberName: session.NomineeName,
		Target:     session.TargetTier,
	})
	if err != nil {
		return s.promotionFailed(ctx, session, token, count, quorum, err), nil
	}

	closed, err := s.threads.ClosePromoted(ctx, session.ThreadID, token, s.now())
	if err != nil {
		return nil, err
	}
	if !closed {
		// the lease went stale and another caller took over; the roles are already set
		logging.Warn("Promotion lease lost before close", "thread_id", session.ThreadID)
	} else {
		s.metrics.SessionClosed(string(gormModels.ClosePromoted))
	}

	s.closeThread(ctx, session.ThreadID)
	logging.Info("Session promoted", "thread_id", session.ThreadID, "nominee_id", session.NomineeID, "target", session.TargetTier.Key())

	return &VoteOutcome{
		Kind:    VotePromoted,
		Count:   count,
		Quorum:  quorum,
		Message: fmt.Sprintf("The vote is complete, and the role %s has been assigned.", s.ladder.DisplayName(session.TargetTier)),
	}, nil
}

func (s *VotingService) promotionFailed(ctx context.Context, session *gormModels.VotingThread, token string, count, quorum int, cause error) *VoteOutcome {
	logging.Error("Promotion failed",
		"thread_id", session.ThreadID,
		"nominee_id", session.NomineeID,
		"target", session.TargetTier.Key(),
		"error", cause.Error(),
	)

	if err := s.threads.ReleaseClaim(context.WithoutCancel(ctx), session.ThreadID, token); err != nil {
		logging.Error("Failed to release promotion lease", "thread_id", session.ThreadID, "error", err.Error())
	}

	s.notifier.Notify(ctx, session.GuildID, fmt.Sprintf(
		"Promotion of <@%s> to %s failed in %s: %s. Run /%s in the thread once fixed.",
		session.NomineeID,
		s.ladder.DisplayName(session.TargetTier),
		gateway.ThreadURL(session.GuildID, session.ThreadID),
		cause.Error(),
		constants.CommandUpdateVote,
	))

	return &VoteOutcome{
		Kind:    VotePromotionFailed,
		Count:   count,
		Quorum:  quorum,
		Message: "Error: Unable to assign role, contact the admin",
	}
}

func (s *VotingService) renameWithCount(ctx context.Context, session *gormModels.VotingThread, count int) {
	name := fmt.Sprintf("%s [Votes: %d]", session.ThreadName, count)
	if err := s.gw.EditThreadName(ctx, session.ThreadID, name); err != nil {
		logging.Warn("Failed to rename voting thread", "thread_id", session.ThreadID, "error", err.Error())
	}
}

// closeThread locks and archives a resolved thread; both are best effort
func (s *VotingService) closeThread(ctx context.Context, threadID string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.gw.LockThread(ctx, threadID); err != nil {
		logging.Warn("Failed to lock voting thread", "thread_id", threadID, "error", err.Error())
	}
	if err := s.gw.ArchiveThread(ctx, threadID); err != nil {
		logging.Warn("Failed to archive voting thread", "thread_id", threadID, "error", err.Error())
	}
}

func (s *VotingService) expiryMessage() string {
	days := int(s.opts.Cooldown.Hours() / 24)
	return fmt.Sprintf("The voting period for this thread has expired and it has been closed. "+
		"This user will need to wait at least %d days before trying again.", days)
}
