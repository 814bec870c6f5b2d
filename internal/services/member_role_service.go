package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scf-community/governor/internal/common"
	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/db/repositories"
	"scf-community/governor/internal/gateway"
	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// MemberRoleService resolves a member's role names, caching them for a short while so
// a single interaction never fetches the same member twice
type MemberRoleService struct {
	gw      gateway.Gateway
	guilds  *repositories.GuildRepository
	cache   common.CacheInterface
	ttl     time.Duration
	metrics *metrics.MetricsRegistry

	group singleflight.Group
}

func NewMemberRoleService(
	gw gateway.Gateway,
	guilds *repositories.GuildRepository,
	cache common.CacheInterface,
	ttl time.Duration,
	metricsReg *metrics.MetricsRegistry,
) *MemberRoleService {
	return &MemberRoleService{
		gw:      gw,
		guilds:  guilds,
		cache:   cache,
		ttl:     ttl,
		metrics: metricsReg,
	}
}

func memberRolesKey(guildID, userID string) string {
	return fmt.Sprintf("%s%s:%s", constants.CachePrefixMemberRoles, guildID, userID)
}

// RoleNames returns the display names of the roles a member holds.
// A member unknown to the platform holds no roles.
func (s *MemberRoleService) RoleNames(ctx context.Context, guildID, userID string) ([]string, error) {
	key := memberRolesKey(guildID, userID)

	if cached, found := s.cache.Get(key); found {
		if names, ok := common.StringSlice(cached); ok {
			s.metrics.CacheLookup(string(constants.CachePrefixMemberRoles), true)
			return names, nil
		}
	}
	s.metrics.CacheLookup(string(constants.CachePrefixMemberRoles), false)

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		names, err := s.load(ctx, guildID, userID)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, names, s.ttl)
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// DisplayName returns the stored username of a member, falling back to the id when the
// roster has not been synced yet
func (s *MemberRoleService) DisplayName(ctx context.Context, guildID, userID string) string {
	member, err := s.guilds.FindMember(ctx, guildID, userID)
	if err != nil {
		logging.Warn("Failed to look up member name", "guild_id", guildID, "member_id", userID, "error", err.Error())
		return userID
	}
	if member == nil || member.Username == "" {
		return userID
	}
	return member.Username
}

// Invalidate drops the cached roles of a member after a role write
func (s *MemberRoleService) Invalidate(guildID, userID string) {
	s.cache.Delete(memberRolesKey(guildID, userID))
}

func (s *MemberRoleService) load(ctx context.Context, guildID, userID string) ([]string, error) {
	roleIDs, err := s.gw.FetchMemberRoles(ctx, guildID, userID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	names, missing := s.resolveStored(ctx, guildID, roleIDs)
	if len(missing) == 0 {
		return names, nil
	}

	// the stored catalog lags behind the platform until the next sync
	catalog, err := s.gw.FetchRoleCatalog(ctx, guildID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]string, len(catalog))
	for _, r := range catalog {
		byID[r.ID] = r.Name
	}
	for _, id := range missing {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *MemberRoleService) resolveStored(ctx context.Context, guildID string, roleIDs []string) ([]string, []string) {
	names := make([]string, 0, len(roleIDs))
	if s.guilds == nil {
		return names, roleIDs
	}

	stored, err := s.guilds.ListRoles(ctx, guildID)
	if err != nil {
		logging.Warn("Falling back to platform role catalog", "guild_id", guildID, "error", err.Error())
		return names, roleIDs
	}
	byID := make(map[string]string, len(stored))
	for _, r := range stored {
		byID[r.RoleID] = r.RoleName
	}

	var missing []string
	for _, id := range roleIDs {
		if name, ok := byID[id]; ok {
			names = append(names, name)
			continue
		}
		missing = append(missing, id)
	}
	return names, missing
}
