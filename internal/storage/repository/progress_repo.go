package repository

import (
	"context"
	"fmt"

	"github.com/oldworldstats/save-importer/internal/storage/models"
)

// ProgressRepository handles the final per-player aggregates: technology
// progress, player statistics and unit production, plus the static unit
// classification reference data.
type ProgressRepository interface {
	BulkInsertTechnology(ctx context.Context, techs []*models.TechnologyProgress) error
	BulkInsertStatistics(ctx context.Context, stats []*models.PlayerStatistic) error
	BulkInsertUnitsProduced(ctx context.Context, units []*models.UnitProduced) error

	// ListTechnologyByPlayer retrieves a player's technology counts.
	ListTechnologyByPlayer(ctx context.Context, matchID, playerID int64) ([]*models.TechnologyProgress, error)

	// ListUnitClassifications retrieves the static reference data.
	ListUnitClassifications(ctx context.Context) ([]*models.UnitClassification, error)
}

type progressRepository struct {
	q Querier
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(q Querier) ProgressRepository {
	return &progressRepository{q: q}
}

func (r *progressRepository) BulkInsertTechnology(ctx context.Context, techs []*models.TechnologyProgress) error {
	if len(techs) == 0 {
		return nil
	}

	query := `
		INSERT INTO technology_progress (match_id, player_id, tech_name, count)
		VALUES (?, ?, ?, ?)
	`

	stmt, err := r.q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare technology insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, tech := range techs {
		_, err := stmt.ExecContext(ctx, tech.MatchID, tech.PlayerID, tech.TechName, tech.Count)
		if err != nil {
			return fmt.Errorf("failed to insert technology %s: %w", tech.TechName, err)
		}
	}

	return nil
}

func (r *progressRepository) BulkInsertStatistics(ctx context.Context, stats []*models.PlayerStatistic) error {
	if len(stats) == 0 {
		return nil
	}

	query := `
		INSERT INTO player_statistics (match_id, player_id, stat_category, stat_name, value)
		VALUES (?, ?, ?, ?, ?)
	`

	stmt, err := r.q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statistic insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, stat := range stats {
		_, err := stmt.ExecContext(ctx,
			stat.MatchID, stat.PlayerID, stat.StatCategory, stat.StatName, stat.Value)
		if err != nil {
			return fmt.Errorf("failed to insert statistic %s/%s: %w",
				stat.StatCategory, stat.StatName, err)
		}
	}

	return nil
}

func (r *progressRepository) BulkInsertUnitsProduced(ctx context.Context, units []*models.UnitProduced) error {
	if len(units) == 0 {
		return nil
	}

	query := `
		INSERT INTO units_produced (match_id, player_id, unit_type, count)
		VALUES (?, ?, ?, ?)
	`

	stmt, err := r.q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare units produced insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, unit := range units {
		_, err := stmt.ExecContext(ctx, unit.MatchID, unit.PlayerID, unit.UnitType, unit.Count)
		if err != nil {
			return fmt.Errorf("failed to insert units produced %s: %w", unit.UnitType, err)
		}
	}

	return nil
}

func (r *progressRepository) ListTechnologyByPlayer(ctx context.Context, matchID, playerID int64) ([]*models.TechnologyProgress, error) {
	query := `
		SELECT id, match_id, player_id, tech_name, count
		FROM technology_progress
		WHERE match_id = ? AND player_id = ?
		ORDER BY tech_name ASC
	`

	rows, err := r.q.QueryContext(ctx, query, matchID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list technology progress: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var techs []*models.TechnologyProgress
	for rows.Next() {
		tech := &models.TechnologyProgress{}
		if err := rows.Scan(&tech.ID, &tech.MatchID, &tech.PlayerID, &tech.TechName, &tech.Count); err != nil {
			return nil, fmt.Errorf("failed to scan technology progress: %w", err)
		}
		techs = append(techs, tech)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating technology progress: %w", err)
	}

	return techs, nil
}

func (r *progressRepository) ListUnitClassifications(ctx context.Context) ([]*models.UnitClassification, error) {
	query := `
		SELECT id, unit_type, classification
		FROM unit_classifications
		ORDER BY unit_type ASC
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unit classifications: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var classifications []*models.UnitClassification
	for rows.Next() {
		uc := &models.UnitClassification{}
		if err := rows.Scan(&uc.ID, &uc.UnitType, &uc.Classification); err != nil {
			return nil, fmt.Errorf("failed to scan unit classification: %w", err)
		}
		classifications = append(classifications, uc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unit classifications: %w", err)
	}

	return classifications, nil
}
