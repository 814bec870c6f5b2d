// Package gateway is the boundary to the chat platform: messages, threads, roles and rosters.
package gateway

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the platform does not know the member, thread or guild
	ErrNotFound = errors.New("not found on platform")
	// ErrTransient marks failures worth retrying (rate limits, 5xx, network)
	ErrTransient = errors.New("transient platform failure")
	// ErrRateLimited marks a request the platform rejected before processing it
	ErrRateLimited = errors.New("rate limited")
)

type Role struct {
	ID   string
	Name string
}

type Member struct {
	ID            string
	Username      string
	Discriminator string
	RoleIDs       []string
}

type Guild struct {
	ID   string
	Name string
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Timestamp   time.Time
}

// Button is an interactive button (CustomID) or a link button (URL)
type Button struct {
	Label    string
	CustomID string
	URL      string
}

type Message struct {
	Content string
	Embeds  []Embed
	Buttons []Button
}

// Gateway is everything the governance services need from the platform.
// Errors are wrapped in constants.ErrGatewayUnavailable unless they are ErrNotFound.
type Gateway interface {
	SendMessage(ctx context.Context, channelID string, msg Message) (string, error)
	CreateThread(ctx context.Context, channelID, name string, autoArchive time.Duration, reason string) (string, error)
	EditThreadName(ctx context.Context, threadID, name string) error
	LockThread(ctx context.Context, threadID string) error
	ArchiveThread(ctx context.Context, threadID string) error

	FetchMemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
	AddRole(ctx context.Context, guildID, userID, roleID, reason string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID, reason string) error
	FetchRoleCatalog(ctx context.Context, guildID string) ([]Role, error)

	FetchGuild(ctx context.Context, guildID string) (*Guild, error)
	FetchMembers(ctx context.Context, guildID string) ([]Member, error)
	ActiveThreadIDs(ctx context.Context, guildID string) (map[string]bool, error)
}

// thread auto-archive durations accepted by the platform, in minutes
var archiveDurations = []int{60, 1440, 4320, 10080}

// ArchiveMinutes returns the shortest accepted auto-archive duration covering d
func ArchiveMinutes(d time.Duration) int {
	minutes := int(d / time.Minute)
	for _, a := range archiveDurations {
		if minutes <= a {
			return a
		}
	}
	return archiveDurations[len(archiveDurations)-1]
}

// ThreadURL links to a thread in the platform client
func ThreadURL(guildID, threadID string) string {
	return "https://discord.com/channels/" + guildID + "/" + threadID
}
