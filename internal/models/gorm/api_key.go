package gorm

import "time"

type APIKey struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	Label     string    `gorm:"column:label"`
	Status    bool      `gorm:"column:status;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (APIKey) TableName() string {
	return "api_keys"
}
