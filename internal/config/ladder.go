package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"scf-community/governor/internal/ladder"

	"gopkg.in/yaml.v3"
)

type ladderFile struct {
	VoterRole string               `yaml:"voterRole"`
	Tiers     map[string]tierEntry `yaml:"tiers"`
}

type tierEntry struct {
	Role   string `yaml:"role"`
	Quorum int    `yaml:"quorum"`
}

// LoadLadder builds the role ladder from a YAML file. A missing file yields the defaults.
func LoadLadder(path string) (*ladder.Ladder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ladder.Default(), nil
		}
		return nil, fmt.Errorf("failed to read ladder file: %w", err)
	}
	return ParseLadder(data)
}

// ParseLadder builds the role ladder from YAML content.
func ParseLadder(data []byte) (*ladder.Ladder, error) {
	var lf ladderFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse ladder file: %w", err)
	}

	opts := ladder.Options{
		DisplayNames: make(map[ladder.Tier]string),
		VoterRole:    lf.VoterRole,
		Quorum:       make(map[ladder.Tier]int),
	}
	for key, entry := range lf.Tiers {
		tier, err := ladder.ParseTier(key)
		if err != nil {
			return nil, fmt.Errorf("ladder file: %w", err)
		}
		if entry.Quorum < 0 {
			return nil, fmt.Errorf("ladder file: negative quorum for %s", tier)
		}
		opts.DisplayNames[tier] = entry.Role
		opts.Quorum[tier] = entry.Quorum
	}

	return ladder.New(opts)
}
