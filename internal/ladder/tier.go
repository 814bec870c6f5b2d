package ladder

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Tier is a membership rank. The numeric value is the rank.
type Tier int

const (
	NoTier     Tier = -1
	Verified   Tier = 0
	Pathfinder Tier = 1
	Navigator  Tier = 2
	Pilot      Tier = 3
)

// Tiers lists every tier in rank order.
var Tiers = []Tier{Verified, Pathfinder, Navigator, Pilot}

var tierKeys = map[Tier]string{
	Verified:   "verified",
	Pathfinder: "pathfinder",
	Navigator:  "navigator",
	Pilot:      "pilot",
}

// Rank returns the position of the tier in the ladder, -1 for NoTier.
func (t Tier) Rank() int { return int(t) }

// Valid reports whether t is one of the ladder tiers.
func (t Tier) Valid() bool { return t >= Verified && t <= Pilot }

// Key is the stable identifier used in storage and button tags.
func (t Tier) Key() string {
	if k, ok := tierKeys[t]; ok {
		return k
	}
	return "none"
}

// String implements fmt.Stringer.
func (t Tier) String() string { return t.Key() }

// ParseTier resolves a tier key (case-insensitive).
func ParseTier(key string) (Tier, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for t, k := range tierKeys {
		if k == key {
			return t, nil
		}
	}
	return NoTier, fmt.Errorf("unknown tier %q", key)
}

/* ---------- DB adapters so gorm / sqlx scan and store the key ---------- */

// Scan implements the sql.Scanner interface
func (t *Tier) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		*t = NoTier
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("Tier: cannot scan type %T", src)
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements the driver.Valuer interface
func (t Tier) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("Tier: cannot store %d", int(t))
	}
	return t.Key(), nil
}
