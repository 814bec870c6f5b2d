package repositories

import (
	"context"
	"fmt"
	"time"

	models "scf-community/governor/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRoleRepository mirrors platform role grants
type UserRoleRepository struct {
	db *gorm.DB
}

// NewUserRoleRepository creates a new user role repository
func NewUserRoleRepository(db *gorm.DB) *UserRoleRepository {
	return &UserRoleRepository{db: db}
}

// Assign records a grant; an existing grant is left untouched
func (r *UserRoleRepository) Assign(ctx context.Context, guildID, userID, roleID string) error {
	grant := models.UserRole{
		UserID:         userID,
		RoleID:         roleID,
		GuildID:        guildID,
		RoleAssignedAt: time.Now().UTC(),
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&grant).Error
	if err != nil {
		return fmt.Errorf("failed to assign role %s to %s: %w", roleID, userID, err)
	}
	return nil
}

// Revoke removes a grant; a missing grant is not an error
func (r *UserRoleRepository) Revoke(ctx context.Context, guildID, userID, roleID string) error {
	err := r.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ? AND role_id = ?", guildID, userID, roleID).
		Delete(&models.UserRole{}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke role %s from %s: %w", roleID, userID, err)
	}
	return nil
}

// RoleNamesForUser returns the stored role names of a member
func (r *UserRoleRepository) RoleNamesForUser(ctx context.Context, guildID, userID string) ([]string, error) {
	var names []string

	err := r.db.WithContext(ctx).
		Table("user_roles").
		Select("roles.role_name").
		Joins("JOIN roles ON roles.role_id = user_roles.role_id").
		Where("user_roles.guild_id = ? AND user_roles.user_id = ?", guildID, userID).
		Order("roles.role_name ASC").
		Pluck("roles.role_name", &names).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles for %s: %w", userID, err)
	}
	return names, nil
}
