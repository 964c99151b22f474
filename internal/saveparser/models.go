// Package saveparser reads zipped XML save archives and decodes them into
// typed in-memory records. Player references inside a bundle are 1-based
// original indices in save document order; remapping them to database ids is
// the loader's job.
package saveparser

// Bundle is everything parsed from one save archive.
type Bundle struct {
	Match            MatchInfo
	Players          []PlayerInfo // Document order; index i has original index i+1
	WinnerIndex      int          // 1-based original index of the winner, 0 if none
	Events           []EventInfo
	Territories      []TerritoryInfo
	Yields           []YieldInfo
	TechCounts       []TechCount
	StatCounts       []StatCount
	UnitCounts       []UnitCount
	Rulers           []RulerInfo
	Points           []HistoryPoint
	Military         []HistoryPoint
	Legitimacy       []HistoryPoint
	FamilyOpinions   []OpinionPoint
	ReligionOpinions []OpinionPoint
	GameStates       []GameStateInfo
	Metadata         MetadataInfo
}

// MatchInfo holds the match-level attributes from the document root.
type MatchInfo struct {
	GameName          string
	MapWidth          int
	MapHeight         int
	TotalTurns        int
	Year              int // Game-calendar year at save time
	HasYear           bool
	MapSize           string
	MapClass          string
	MapAspect         string
	TurnStyle         string
	TurnTimer         int // 0 = no timer
	VictoryConditions string
}

// PlayerInfo is one competitor slot in document order.
type PlayerInfo struct {
	Name         string
	Civilization string
	Team         int
	OnlineID     string
	Score        int
	IsHuman      bool
}

// EventInfo is one game-log occurrence.
type EventInfo struct {
	Turn        int
	Type        string
	PlayerIndex int // 1-based original index, 0 if no acting player
	X           int
	Y           int
	HasCoords   bool
	Payload     string
}

// TerritoryInfo is one tile state for one turn.
type TerritoryInfo struct {
	X           int
	Y           int
	Turn        int
	OwnerIndex  int // 1-based original index, 0 if unowned
	Terrain     string
	Improvement string
	Specialist  string
	Resource    string
	Road        bool
}

// YieldInfo is one point of a per-player yield time series.
type YieldInfo struct {
	PlayerIndex  int
	Turn         int
	ResourceType string
	Amount       float64
}

// TechCount is a final per-player technology count.
type TechCount struct {
	PlayerIndex int
	TechName    string
	Count       int
}

// StatCount is a final per-player statistic.
type StatCount struct {
	PlayerIndex int
	Category    string
	Name        string
	Value       float64
}

// UnitCount is a final per-player unit production count.
type UnitCount struct {
	PlayerIndex int
	UnitType    string
	Count       int
}

// RulerInfo is one leader in a player's succession.
type RulerInfo struct {
	PlayerIndex     int
	CharacterID     int64
	Name            string
	Archetype       string
	StartingTrait   string
	SuccessionOrder int // 0-based position in the succession list
	SuccessionTurn  int
}

// HistoryPoint is one point of a per-player per-turn numeric series.
type HistoryPoint struct {
	PlayerIndex int
	Turn        int
	Value       float64
}

// OpinionPoint is a turn series point with a family or religion sub-key.
type OpinionPoint struct {
	PlayerIndex int
	SubKey      string
	Turn        int
	Value       float64
}

// GameStateInfo is a per-turn global state snapshot.
type GameStateInfo struct {
	Turn              int
	Year              int
	HasYear           bool
	ActivePlayerIndex int // 1-based original index, 0 if absent
}

// MetadataInfo holds the optional settings blobs; fields are empty strings
// when the save predates them.
type MetadataInfo struct {
	Difficulty  string
	VictoryTurn int // 0 = not recorded
	GameOptions string
	DLC         string
	MapSettings string
}
