package services

import (
	"testing"
	"time"

	"scf-community/governor/internal/common"
	"scf-community/governor/internal/db/repositories"
	"scf-community/governor/internal/db/testdb"
	"scf-community/governor/internal/gateway/gatewaytest"
	"scf-community/governor/internal/ladder"
	gormModels "scf-community/governor/internal/models/gorm"

	"gorm.io/gorm"
)

const (
	testGuild        = "guild-1"
	testChannel      = "channel-1"
	testAdminChannel = "admin-channel"
)

var (
	roleVerified   = "SCF Verified"
	rolePathfinder = "SCF Pathfinder"
	roleNavigator  = "SCF Navigator"
	rolePilot      = "SCF Pilot"
	roleVoter      = "SCF Voter"
)

type fixture struct {
	db     *gorm.DB
	gw     *gatewaytest.Fake
	ladder *ladder.Ladder
	clock  time.Time

	threads   *repositories.VotingThreadRepository
	guilds    *repositories.GuildRepository
	userRoles *repositories.UserRoleRepository

	members     *MemberRoleService
	ledger      *VoteLedger
	promotion   *PromotionService
	notifier    *AdminNotifier
	nominations *NominationService
	voting      *VotingService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithLadder(t, ladder.Default())
}

func newFixtureWithLadder(t *testing.T, l *ladder.Ladder) *fixture {
	t.Helper()

	gdb := testdb.Open(t)
	gw := gatewaytest.New()
	gw.AddGuild(testGuild, "SCF", roleVerified, rolePathfinder, roleNavigator, rolePilot, roleVoter, "Moderator")

	f := &fixture{
		db:        gdb,
		gw:        gw,
		ladder:    l,
		clock:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		threads:   repositories.NewVotingThreadRepository(gdb),
		guilds:    repositories.NewGuildRepository(gdb),
		userRoles: repositories.NewUserRoleRepository(gdb),
	}
	now := func() time.Time { return f.clock }

	// short ttl keeps promotion writes visible to the next lookup
	f.members = NewMemberRoleService(gw, f.guilds, common.NewCacheService(time.Minute, 0), time.Minute, nil)
	f.ledger = NewVoteLedger(gdb)
	f.ledger.now = now
	f.promotion = NewPromotionService(gw, f.userRoles, f.members, l, nil)
	f.notifier = NewAdminNotifier(gw, testAdminChannel, nil, nil)

	f.nominations = NewNominationService(gw, f.threads, f.guilds, f.members, l, nil, 120*time.Hour, 720*time.Hour)
	f.nominations.now = now

	f.voting = NewVotingService(gw, f.threads, f.ledger, f.promotion, f.notifier, f.members, l, nil, VotingOptions{
		SessionTTL:   120 * time.Hour,
		Cooldown:     720 * time.Hour,
		LeaseTimeout: 2 * time.Minute,
	})
	f.voting.now = now

	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

// addVoters adds n members holding role, named <prefix>-<i>
func (f *fixture) addVoters(n int, prefix, role string) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := prefix + "-" + string(rune('a'+i))
		f.gw.AddMember(testGuild, id, id, role, roleVoter)
		ids = append(ids, id)
	}
	return ids
}

// openSession opens a platform thread and stores an OPEN session for it at the fixture clock
func (f *fixture) openSession(t *testing.T, nomineeID string, target ladder.Tier) *gormModels.VotingThread {
	t.Helper()

	threadID, err := f.gw.CreateThread(t.Context(), testChannel, "Nomination: "+nomineeID, 0, "test")
	if err != nil {
		t.Fatalf("Failed to create thread: %v", err)
	}
	session := &gormModels.VotingThread{
		ThreadID:    threadID,
		GuildID:     testGuild,
		ChannelID:   testChannel,
		ThreadName:  "Nomination: " + nomineeID + " for " + f.ladder.DisplayName(target),
		CreatedAt:   f.clock,
		NominatorID: "nominator",
		NomineeID:   nomineeID,
		NomineeName: nomineeID,
		TargetTier:  target,
		RoleName:    f.ladder.DisplayName(target),
	}
	if err := f.threads.Create(t.Context(), session); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return session
}

func hasRole(names []string, role string) bool {
	for _, n := range names {
		if n == role {
			return true
		}
	}
	return false
}
