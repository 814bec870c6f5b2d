package repositories

import (
	"context"
	"errors"
	"fmt"

	"scf-community/governor/internal/constants"
	gormModels "scf-community/governor/internal/models/gorm"

	"gorm.io/gorm"
)

// GuildRepository reads the stored guild snapshot written by the synchronizer
type GuildRepository struct {
	db *gorm.DB
}

// NewGuildRepository creates a new guild repository
func NewGuildRepository(db *gorm.DB) *GuildRepository {
	return &GuildRepository{db: db}
}

// List returns every known guild
func (r *GuildRepository) List(ctx context.Context) ([]gormModels.Guild, error) {
	var guilds []gormModels.Guild

	if err := r.db.WithContext(ctx).Order("guild_id ASC").Find(&guilds).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list guilds: %v", constants.ErrStoreUnavailable, err)
	}
	return guilds, nil
}

// ListMembers returns the stored roster of a guild ordered by username
func (r *GuildRepository) ListMembers(ctx context.Context, guildID string) ([]gormModels.Member, error) {
	var members []gormModels.Member

	err := r.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("username ASC").
		Find(&members).Error

	if err != nil {
		return nil, fmt.Errorf("%w: failed to list members: %v", constants.ErrStoreUnavailable, err)
	}
	return members, nil
}

// FindMember returns a stored member of a guild, or nil
func (r *GuildRepository) FindMember(ctx context.Context, guildID, memberID string) (*gormModels.Member, error) {
	var member gormModels.Member

	err := r.db.WithContext(ctx).
		Where("guild_id = ? AND member_id = ?", guildID, memberID).
		First(&member).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to fetch member: %v", constants.ErrStoreUnavailable, err)
	}
	return &member, nil
}

// ListRoles returns the stored role catalog of a guild
func (r *GuildRepository) ListRoles(ctx context.Context, guildID string) ([]gormModels.Role, error) {
	var roles []gormModels.Role

	err := r.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Find(&roles).Error

	if err != nil {
		return nil, fmt.Errorf("%w: failed to list roles: %v", constants.ErrStoreUnavailable, err)
	}
	return roles, nil
}

// FindRoleByName returns a stored role by display name, or nil
func (r *GuildRepository) FindRoleByName(ctx context.Context, guildID, name string) (*gormModels.Role, error) {
	var role gormModels.Role

	err := r.db.WithContext(ctx).
		Where("guild_id = ? AND role_name = ?", guildID, name).
		First(&role).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to fetch role: %v", constants.ErrStoreUnavailable, err)
	}
	return &role, nil
}
