package constants

import "errors"

// Governance errors. Handlers match them with errors.Is and turn them into replies.
var (
	ErrSelfNomination     = errors.New("self nomination")
	ErrNotNominable       = errors.New("member cannot be nominated")
	ErrAlreadyAtTarget    = errors.New("member already holds the target tier")
	ErrUnauthorized       = errors.New("member lacks standing")
	ErrDuplicateVote      = errors.New("duplicate vote")
	ErrRoleNotConfigured  = errors.New("role not configured in guild")
	ErrThreadNotFound     = errors.New("voting thread not found")
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	ErrStoreUnavailable   = errors.New("store unavailable")

	ErrAlreadyNominated = errors.New("open nomination already exists")
	ErrCooldownActive   = errors.New("nomination cooldown active")
	ErrSessionClosed    = errors.New("voting session closed")
	ErrNotInGuild       = errors.New("not in a guild")
	ErrNotVotingThread  = errors.New("not a voting thread")
	ErrMemberNotFound   = errors.New("member not found in guild")
	ErrNotTextChannel   = errors.New("not a text channel")
)

var governanceMessages = []struct {
	err error
	msg string
}{
	{ErrSelfNomination, "You cannot nominate yourself."},
	{ErrNotNominable, "This member does not have a role that can be nominated."},
	{ErrAlreadyAtTarget, "This member already has the role they would be nominated for."},
	{ErrUnauthorized, "You do not have permission to do that for this role."},
	{ErrDuplicateVote, "You have already voted in this thread."},
	{ErrRoleNotConfigured, "A required role is missing from this server. Please contact an admin."},
	{ErrThreadNotFound, "This thread does not correspond to a valid voting session."},
	{ErrAlreadyNominated, "There is already an open nomination for this member and role."},
	{ErrCooldownActive, "A recent nomination for this member expired. They need to wait 30 days before trying again."},
	{ErrSessionClosed, "This vote has already been closed."},
	{ErrNotInGuild, "This command can only be used in a server."},
	{ErrNotVotingThread, "This command can only be used within a voting thread."},
	{ErrMemberNotFound, "That member is not in this server."},
	{ErrNotTextChannel, "You can only nominate within a server text channel."},
	{ErrGatewayUnavailable, "Discord is not responding right now. Please try again shortly."},
	{ErrStoreUnavailable, "The vote database is unavailable right now. Please try again shortly."},
}

// UserMessage returns the short reply shown to a member for err.
func UserMessage(err error) string {
	for _, m := range governanceMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Something went wrong. Please contact an admin."
}
