package models

import "time"

// Summary holds aggregate statistics across all imported matches.
type Summary struct {
	TotalMatches     int
	TotalPlayers     int
	UniquePlayers    int
	TotalEvents      int
	TotalTerritories int
	TotalResources   int
	EarliestSave     *time.Time
	LatestSave       *time.Time
}

// Integrity issue severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// IntegrityIssue is one finding of the post-load validation pass.
type IntegrityIssue struct {
	Severity string // error or warning
	Check    string
	Detail   string
}
