package gorm

import "time"

type Member struct {
	MemberID      string    `gorm:"column:member_id;primaryKey"`
	Username      string    `gorm:"column:username"`
	Discriminator string    `gorm:"column:discriminator"`
	GuildID       string    `gorm:"column:guild_id;index"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Member) TableName() string {
	return "members"
}

type Role struct {
	RoleID   string `gorm:"column:role_id;primaryKey"`
	RoleName string `gorm:"column:role_name"`
	GuildID  string `gorm:"column:guild_id;index"`
}

// TableName specifies the table name for GORM
func (Role) TableName() string {
	return "roles"
}

// UserRole mirrors a platform role grant
type UserRole struct {
	UserID         string    `gorm:"column:user_id;primaryKey"`
	RoleID         string    `gorm:"column:role_id;primaryKey"`
	GuildID        string    `gorm:"column:guild_id;primaryKey"`
	RoleAssignedAt time.Time `gorm:"column:role_assigned_at"`
}

// TableName specifies the table name for GORM
func (UserRole) TableName() string {
	return "user_roles"
}
