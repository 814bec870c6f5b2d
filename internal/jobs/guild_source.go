package jobs

import (
	"context"

	"scf-community/governor/internal/db/repositories"
)

// StoredGuilds lists the guilds already known to the store
type StoredGuilds struct {
	repo *repositories.GuildRepository
}

func NewStoredGuilds(repo *repositories.GuildRepository) *StoredGuilds {
	return &StoredGuilds{repo: repo}
}

func (s *StoredGuilds) GuildIDs(ctx context.Context) ([]string, error) {
	guilds, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(guilds))
	for _, g := range guilds {
		ids = append(ids, g.GuildID)
	}
	return ids, nil
}

// StaticGuilds is a fixed guild list
type StaticGuilds []string

func (s StaticGuilds) GuildIDs(context.Context) ([]string, error) {
	return s, nil
}

// MergedGuilds unions several sources, skipping sources that fail
type MergedGuilds []GuildSource

func (m MergedGuilds) GuildIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	var lastErr error
	ok := 0

	for _, src := range m {
		list, err := src.GuildIDs(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		ok++
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if ok == 0 && lastErr != nil {
		return nil, lastErr
	}
	return ids, nil
}
