package constants

// Sync event types for guild_sync_history table
const (
	SyncEventRoles   = "ROLE_CATALOG_SYNC"
	SyncEventMembers = "MEMBER_ROSTER_SYNC"
)
