// Package etl coordinates the per-file import pipeline: hash check, parse,
// id remapping, transactional load, and batch bookkeeping.
package etl

import (
	"fmt"
	"log"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Override names a manually decided winner for one externally tracked match.
type Override struct {
	PlayerName string
	Reason     string
}

// OverrideSource resolves winner overrides keyed by external tournament
// match id. A nil source means no overrides.
type OverrideSource interface {
	Resolve(challongeMatchID int64) (Override, bool)
}

// StaticOverrides is an in-memory OverrideSource.
type StaticOverrides map[int64]Override

// Resolve implements OverrideSource.
func (s StaticOverrides) Resolve(challongeMatchID int64) (Override, bool) {
	o, ok := s[challongeMatchID]
	return o, ok
}

// overridesFile is the TOML shape of a winner-overrides file:
//
//	[[override]]
//	match_id = 426504724
//	player = "moose"
//	reason = "opponent disconnect, admin ruling"
type overridesFile struct {
	Overrides []overrideEntry `toml:"override"`
}

type overrideEntry struct {
	MatchID int64  `toml:"match_id"`
	Player  string `toml:"player"`
	Reason  string `toml:"reason"`
}

// LoadOverrides reads a winner-overrides TOML file. Malformed entries are
// reported once as warnings and skipped; they are never fatal.
func LoadOverrides(path string) (StaticOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides file: %w", err)
	}

	var file overridesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse overrides file: %w", err)
	}

	overrides := make(StaticOverrides, len(file.Overrides))
	for i, entry := range file.Overrides {
		if entry.MatchID <= 0 {
			log.Printf("Warning: overrides entry %d has no valid match_id, skipping", i+1)
			continue
		}
		if entry.Player == "" {
			log.Printf("Warning: overrides entry for match %d has no player, skipping", entry.MatchID)
			continue
		}
		if _, exists := overrides[entry.MatchID]; exists {
			log.Printf("Warning: duplicate override for match %d, keeping the first", entry.MatchID)
			continue
		}
		overrides[entry.MatchID] = Override{
			PlayerName: entry.Player,
			Reason:     entry.Reason,
		}
	}

	return overrides, nil
}
