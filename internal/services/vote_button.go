package services

import (
	"fmt"
	"strings"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/ladder"
)

// VoteButtonID encodes the vote button payload as vote-yes:<nomineeID>:<tierKey>
func VoteButtonID(nomineeID string, target ladder.Tier) string {
	return fmt.Sprintf("%s:%s:%s", constants.ActionVoteYes, nomineeID, target.Key())
}

// ParseVoteButtonID decodes a vote button payload
func ParseVoteButtonID(customID string) (string, ladder.Tier, error) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != constants.ActionVoteYes || parts[1] == "" {
		return "", ladder.NoTier, fmt.Errorf("malformed vote button %q", customID)
	}

	tier, err := ladder.ParseTier(parts[2])
	if err != nil {
		return "", ladder.NoTier, err
	}
	return parts[1], tier, nil
}
