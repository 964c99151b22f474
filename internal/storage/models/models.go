// Package models defines the typed records persisted by the importer.
package models

import "time"

// Winner determination methods recorded on match_winners.
const (
	DeterminationParser   = "parser_determined"
	DeterminationOverride = "manual_override"
)

// Match represents one played game imported from a save archive.
// A match is immutable after import except for winner backfill.
type Match struct {
	ID                int64
	ChallongeMatchID  *int64 // Nullable: external tournament match id
	FileName          string
	FileHash          string // SHA-256 hex digest of the archive
	GameName          *string
	MapSize           *string
	MapClass          *string
	MapAspect         *string
	TurnStyle         *string
	TurnTimer         *int
	VictoryConditions *string
	TotalTurns        int
	MapWidth          int
	MapHeight         int
	Year              *int       // Nullable: game-calendar year at save time
	SaveDate          *time.Time // Nullable: archive modification time
	CreatedAt         time.Time
}

// Player represents one competitor slot within a match.
type Player struct {
	ID             int64
	MatchID        int64
	OriginalIndex  int // 1-based position in save document order
	Name           string
	NormalizedName string
	Civilization   *string
	Team           *int
	OnlineID       *string // Nullable: platform account identifier
	Score          *int
	IsHuman        bool
}

// MatchWinner records the resolved winner of a match.
// Kept in its own table because determination may be deferred or overridden.
type MatchWinner struct {
	ID            int64
	MatchID       int64
	PlayerID      int64
	Determination string  // parser_determined or manual_override
	Reason        *string // Nullable: free-form override reason
}

// MatchMetadata is a one-to-one extension of Match for optional settings.
type MatchMetadata struct {
	ID          int64
	MatchID     int64
	Difficulty  *string
	VictoryTurn *int
	GameOptions *string // Nullable JSON blob
	DLC         *string // Nullable JSON blob
	MapSettings *string // Nullable JSON blob
}

// Event is one discrete game-log occurrence.
type Event struct {
	ID         int64
	MatchID    int64
	TurnNumber int
	EventType  string
	PlayerID   *int64 // Nullable: acting player
	X          *int   // Nullable map coordinates
	Y          *int
	Payload    *string // Nullable free-form text
}

// Territory is a full-map tile state capture for one turn.
type Territory struct {
	ID            int64
	MatchID       int64
	X             int
	Y             int
	TurnNumber    int
	OwnerPlayerID *int64
	Terrain       *string
	Improvement   *string
	Specialist    *string
	Resource      *string
	Road          bool
}

// Resource is one point of a per-player yield time series.
type Resource struct {
	ID           int64
	MatchID      int64
	PlayerID     int64
	TurnNumber   int
	ResourceType string
	Amount       float64
}

// TechnologyProgress records the final count of a technology per player.
type TechnologyProgress struct {
	ID       int64
	MatchID  int64
	PlayerID int64
	TechName string
	Count    int
}

// PlayerStatistic records one final per-player statistic.
type PlayerStatistic struct {
	ID           int64
	MatchID      int64
	PlayerID     int64
	StatCategory string
	StatName     string
	Value        float64
}

// UnitProduced records the final production count of a unit type per player.
type UnitProduced struct {
	ID       int64
	MatchID  int64
	PlayerID int64
	UnitType string
	Count    int
}

// UnitClassification is static reference data mapping unit types to classes.
type UnitClassification struct {
	ID             int64
	UnitType       string
	Classification string
}

// Ruler is one leader in a player's succession sequence.
type Ruler struct {
	ID              int64
	MatchID         int64
	PlayerID        int64
	CharacterID     int64
	Name            *string
	Archetype       *string
	StartingTrait   *string
	SuccessionOrder int // Dense 0-based sequence per (match, player)
	SuccessionTurn  int
}

// TurnHistory is one point of a per-player per-turn numeric series.
// Used for the points and military history tables.
type TurnHistory struct {
	ID         int64
	MatchID    int64
	PlayerID   int64
	TurnNumber int
	Value      float64
}

// OpinionHistory is a turn series with a sub-key (family or religion name).
// Values are bounded to the 0-100 opinion scale.
type OpinionHistory struct {
	ID         int64
	MatchID    int64
	PlayerID   int64
	SubKey     string
	TurnNumber int
	Value      float64
}

// GameState is a per-turn global state snapshot for a match.
type GameState struct {
	ID             int64
	MatchID        int64
	TurnNumber     int
	Year           *int
	ActivePlayerID *int64
}
