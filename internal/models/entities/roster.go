package entities

import "time"

// RoleRow is a role catalog entry as written by the synchronizer
type RoleRow struct {
	RoleID   string `db:"role_id"`
	RoleName string `db:"role_name"`
	GuildID  string `db:"guild_id"`
}

// MemberRow is a roster entry as written by the synchronizer
type MemberRow struct {
	MemberID      string `db:"member_id"`
	Username      string `db:"username"`
	Discriminator string `db:"discriminator"`
	GuildID       string `db:"guild_id"`
}

// UserRoleRow is a role grant as written by the synchronizer
type UserRoleRow struct {
	UserID         string    `db:"user_id"`
	RoleID         string    `db:"role_id"`
	GuildID        string    `db:"guild_id"`
	RoleAssignedAt time.Time `db:"role_assigned_at"`
}
