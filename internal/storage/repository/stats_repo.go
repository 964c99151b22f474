package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oldworldstats/save-importer/internal/storage/models"
)

// StatsRepository calculates aggregate statistics and runs the referential
// integrity checks performed after a batch import.
type StatsRepository interface {
	// GetSummary returns totals across all imported matches.
	GetSummary(ctx context.Context) (*models.Summary, error)

	// FindOrphanedPlayers returns players whose match row is missing.
	FindOrphanedPlayers(ctx context.Context) ([]int64, error)

	// FindMatchesWithoutPlayers returns matches that have no player rows.
	FindMatchesWithoutPlayers(ctx context.Context) ([]int64, error)

	// CountOutOfBoundsTerritories returns the number of territory rows whose
	// coordinates exceed their match's declared map dimensions.
	CountOutOfBoundsTerritories(ctx context.Context) (int, error)
}

type statsRepository struct {
	q Querier
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(q Querier) StatsRepository {
	return &statsRepository{q: q}
}

func (r *statsRepository) GetSummary(ctx context.Context) (*models.Summary, error) {
	summary := &models.Summary{}

	counts := `
		SELECT
			(SELECT COUNT(*) FROM matches),
			(SELECT COUNT(*) FROM players),
			(SELECT COUNT(DISTINCT normalized_name) FROM players),
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM territories),
			(SELECT COUNT(*) FROM resources)
	`
	err := r.q.QueryRowContext(ctx, counts).Scan(
		&summary.TotalMatches,
		&summary.TotalPlayers,
		&summary.UniquePlayers,
		&summary.TotalEvents,
		&summary.TotalTerritories,
		&summary.TotalResources,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary counts: %w", err)
	}

	var earliest, latest sql.NullTime
	err = r.q.QueryRowContext(ctx,
		`SELECT MIN(save_date), MAX(save_date) FROM matches WHERE save_date IS NOT NULL`,
	).Scan(&earliest, &latest)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get save date range: %w", err)
	}
	if earliest.Valid {
		t := earliest.Time
		summary.EarliestSave = &t
	}
	if latest.Valid {
		t := latest.Time
		summary.LatestSave = &t
	}

	return summary, nil
}

func (r *statsRepository) FindOrphanedPlayers(ctx context.Context) ([]int64, error) {
	query := `
		SELECT p.id
		FROM players p
		LEFT JOIN matches m ON p.match_id = m.id
		WHERE m.id IS NULL
		ORDER BY p.id
	`
	return r.queryIDs(ctx, query, "orphaned players")
}

func (r *statsRepository) FindMatchesWithoutPlayers(ctx context.Context) ([]int64, error) {
	query := `
		SELECT m.id
		FROM matches m
		LEFT JOIN players p ON p.match_id = m.id
		WHERE p.id IS NULL
		ORDER BY m.id
	`
	return r.queryIDs(ctx, query, "matches without players")
}

func (r *statsRepository) CountOutOfBoundsTerritories(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM territories t
		JOIN matches m ON t.match_id = m.id
		WHERE t.x >= m.map_width OR t.y >= m.map_height
	`

	var count int
	if err := r.q.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count out-of-bounds territories: %w", err)
	}
	return count, nil
}

func (r *statsRepository) queryIDs(ctx context.Context, query, what string) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", what, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id for %s: %w", what, err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", what, err)
	}

	return ids, nil
}
