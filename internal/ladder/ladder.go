package ladder

import (
	"fmt"

	"scf-community/governor/internal/constants"
)

const DefaultQuorum = 5

// Ladder binds the tier sequence to the display names used by a guild's role catalog
// and holds the per-tier quorum.
type Ladder struct {
	names     map[Tier]string
	byName    map[string]Tier
	voterRole string
	quorum    map[Tier]int
}

// Options configures a Ladder. Missing names fall back to the defaults.
type Options struct {
	DisplayNames map[Tier]string
	VoterRole    string
	Quorum       map[Tier]int
}

var defaultNames = map[Tier]string{
	Verified:   "SCF Verified",
	Pathfinder: "SCF Pathfinder",
	Navigator:  "SCF Navigator",
	Pilot:      "SCF Pilot",
}

const defaultVoterRole = "SCF Voter"

// New builds a ladder from options.
func New(opts Options) (*Ladder, error) {
	l := &Ladder{
		names:     make(map[Tier]string, len(Tiers)),
		byName:    make(map[string]Tier, len(Tiers)),
		voterRole: opts.VoterRole,
		quorum:    make(map[Tier]int, len(Tiers)),
	}
	if l.voterRole == "" {
		l.voterRole = defaultVoterRole
	}

	for _, t := range Tiers {
		name := opts.DisplayNames[t]
		if name == "" {
			name = defaultNames[t]
		}
		if prev, dup := l.byName[name]; dup {
			return nil, fmt.Errorf("display name %q used by both %s and %s", name, prev, t)
		}
		if name == l.voterRole {
			return nil, fmt.Errorf("display name %q clashes with the voter role", name)
		}
		l.names[t] = name
		l.byName[name] = t

		q := opts.Quorum[t]
		if q <= 0 {
			q = DefaultQuorum
		}
		l.quorum[t] = q
	}
	return l, nil
}

// Default returns the ladder used by the SCF community.
func Default() *Ladder {
	l, _ := New(Options{})
	return l
}

// DisplayName is the platform role name of a tier.
func (l *Ladder) DisplayName(t Tier) string { return l.names[t] }

// VoterRole is the name of the entitlement granted on the first promotion.
func (l *Ladder) VoterRole() string { return l.voterRole }

// Quorum is the number of distinct votes that resolves a session for target t.
func (l *Ladder) Quorum(t Tier) int {
	if q, ok := l.quorum[t]; ok {
		return q
	}
	return DefaultQuorum
}

// TierByName resolves a platform role name to a tier.
func (l *Ladder) TierByName(name string) (Tier, bool) {
	t, ok := l.byName[name]
	return t, ok
}

// TiersHeld returns every tier whose role appears in roleNames, in rank order.
func (l *Ladder) TiersHeld(roleNames []string) []Tier {
	held := make(map[Tier]bool)
	for _, n := range roleNames {
		if t, ok := l.byName[n]; ok {
			held[t] = true
		}
	}
	out := make([]Tier, 0, len(held))
	for _, t := range Tiers {
		if held[t] {
			out = append(out, t)
		}
	}
	return out
}

// TierOf returns the highest tier held, or NoTier.
func (l *Ladder) TierOf(roleNames []string) Tier {
	held := l.TiersHeld(roleNames)
	if len(held) == 0 {
		return NoTier
	}
	return held[len(held)-1]
}

// NextTier is the tier a member at current may be nominated for.
func NextTier(current Tier) (Tier, error) {
	if !current.Valid() || current == Pilot {
		return NoTier, fmt.Errorf("%w: current tier %s", constants.ErrNotNominable, current)
	}
	return current + 1, nil
}

// CanNominate reports whether a member at holder may nominate for target.
func CanNominate(holder, target Tier) bool {
	return holder.Valid() && target.Valid() && holder.Rank() >= target.Rank()
}

// CanVote reports whether a member at holder may vote on a promotion to target.
func CanVote(holder, target Tier) bool {
	return CanNominate(holder, target)
}

// RevokedOnPromotion is the tier role removed when a member at current is promoted to
// target: their current tier, which for a ladder nomination is the one immediately below
// target. Members without a tier lose nothing.
func RevokedOnPromotion(current, target Tier) (Tier, bool) {
	if !current.Valid() || current.Rank() >= target.Rank() {
		return NoTier, false
	}
	return current, true
}

// GrantsEntitlement reports whether promotion to target also grants the voter role.
func GrantsEntitlement(target Tier) bool {
	return target == Pathfinder
}
