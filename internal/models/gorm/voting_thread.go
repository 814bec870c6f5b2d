package gorm

import (
	"time"

	"scf-community/governor/internal/ladder"
)

type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionClosed SessionStatus = "CLOSED"
)

type CloseReason string

const (
	ClosePromoted CloseReason = "PROMOTED"
	CloseExpired  CloseReason = "EXPIRED"
)

// VotingThread is one promotion vote, keyed by its discussion thread
type VotingThread struct {
	ThreadID    string        `gorm:"column:thread_id;primaryKey"`
	GuildID     string        `gorm:"column:guild_id;index"`
	ChannelID   string        `gorm:"column:channel_id"`
	ThreadName  string        `gorm:"column:thread_name"`
	CreatedAt   time.Time     `gorm:"column:created_at"`
	NominatorID string        `gorm:"column:nominator_id"`
	NomineeID   string        `gorm:"column:nominee_id;index:idx_voting_threads_nominee"`
	NomineeName string        `gorm:"column:nominee_name"`
	TargetTier  ladder.Tier   `gorm:"column:target_tier;type:varchar(16);index:idx_voting_threads_nominee"`
	RoleID      *string       `gorm:"column:role_id"`
	RoleName    string        `gorm:"column:role_name"`
	Status      SessionStatus `gorm:"column:status;type:varchar(8);default:OPEN;index"`
	VoteCount   int           `gorm:"column:vote_count;default:0"`
	CloseReason *CloseReason  `gorm:"column:close_reason;type:varchar(16)"`
	ClosedAt    *time.Time    `gorm:"column:closed_at"`
	ClaimToken  *string       `gorm:"column:claim_token"`
	ClaimedAt   *time.Time    `gorm:"column:claimed_at"`

	// Relationships
	Votes []Vote `gorm:"foreignKey:ThreadID;references:ThreadID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (VotingThread) TableName() string {
	return "voting_threads"
}

// IsOpen reports whether the session still accepts votes
func (v *VotingThread) IsOpen() bool {
	return v.Status == SessionOpen
}

// Expired reports whether the session outlived ttl at now
func (v *VotingThread) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(v.CreatedAt) > ttl
}

type Vote struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement"`
	ThreadID      string    `gorm:"column:thread_id;uniqueIndex:idx_votes_thread_voter"`
	VoterID       string    `gorm:"column:voter_id;uniqueIndex:idx_votes_thread_voter"`
	VoteTimestamp time.Time `gorm:"column:vote_timestamp"`
}

// TableName specifies the table name for GORM
func (Vote) TableName() string {
	return "votes"
}
