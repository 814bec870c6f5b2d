package constants

type (
	APIStatus   string
	CachePrefix string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixMemberRoles CachePrefix = "member_roles:"
	CachePrefixUsedToken   CachePrefix = "admin_token_used:"
)

// Button actions carried in component custom ids.
const (
	ActionVoteYes = "vote-yes"
)

// Slash command names.
const (
	CommandListMembers     = "listmembers"
	CommandNominate        = "nominate"
	CommandGetVerified     = "getverified"
	CommandUpdateVote      = "updatevote"
	CommandListActiveVotes = "listactivevotes"
)
