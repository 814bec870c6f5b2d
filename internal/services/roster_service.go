package services

import (
	"context"
	"strings"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/db/repositories"
)

// MaxChunkLength keeps each roster message under the platform's 2000 character limit
const MaxChunkLength = 1900

type RosterService struct {
	guilds *repositories.GuildRepository
}

func NewRosterService(guilds *repositories.GuildRepository) *RosterService {
	return &RosterService{guilds: guilds}
}

// MemberChunks lists the stored usernames of a guild joined by ", " and split into
// messages of at most MaxChunkLength characters
func (s *RosterService) MemberChunks(ctx context.Context, guildID string) ([]string, error) {
	if guildID == "" {
		return nil, constants.ErrNotInGuild
	}

	members, err := s.guilds.ListMembers(ctx, guildID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Username)
	}
	return ChunkNames(names, MaxChunkLength), nil
}

// ChunkNames joins names with ", " without splitting a name across chunks
func ChunkNames(names []string, limit int) []string {
	var chunks []string
	var current strings.Builder

	for i, name := range names {
		next := name
		if i < len(names)-1 {
			next += ", "
		}
		if current.Len() > 0 && current.Len()+len(next) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(next)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
