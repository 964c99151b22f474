package storage

// Re-export record types from the models package so most callers only import
// storage.
import "github.com/oldworldstats/save-importer/internal/storage/models"

type (
	Match              = models.Match
	Player             = models.Player
	MatchWinner        = models.MatchWinner
	MatchMetadata      = models.MatchMetadata
	Event              = models.Event
	Territory          = models.Territory
	Resource           = models.Resource
	TechnologyProgress = models.TechnologyProgress
	PlayerStatistic    = models.PlayerStatistic
	UnitProduced       = models.UnitProduced
	UnitClassification = models.UnitClassification
	Ruler              = models.Ruler
	TurnHistory        = models.TurnHistory
	OpinionHistory     = models.OpinionHistory
	GameState          = models.GameState
	Summary            = models.Summary
	IntegrityIssue     = models.IntegrityIssue
)
