package repository

import (
	"context"
	"fmt"

	"github.com/oldworldstats/save-importer/internal/storage/models"
)

// HistoryRepository handles the per-turn time-series tables: yield history,
// points/military/legitimacy histories, family and religion opinions, and
// per-turn game state snapshots. All are append-only; every BulkInsert is a
// no-op on an empty batch.
type HistoryRepository interface {
	BulkInsertResources(ctx context.Context, resources []*models.Resource) error
	BulkInsertPoints(ctx context.Context, entries []*models.TurnHistory) error
	BulkInsertMilitary(ctx context.Context, entries []*models.TurnHistory) error
	BulkInsertLegitimacy(ctx context.Context, entries []*models.TurnHistory) error
	BulkInsertFamilyOpinions(ctx context.Context, entries []*models.OpinionHistory) error
	BulkInsertReligionOpinions(ctx context.Context, entries []*models.OpinionHistory) error
	BulkInsertGameStates(ctx context.Context, states []*models.GameState) error

	// CountResources returns the number of yield-history rows for a match.
	CountResources(ctx context.Context, matchID int64) (int, error)
}

type historyRepository struct {
	q Querier
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(q Querier) HistoryRepository {
	return &historyRepository{q: q}
}

func (r *historyRepository) BulkInsertResources(ctx context.Context, resources []*models.Resource) error {
	if len(resources) == 0 {
		return nil
	}

	query := `
		INSERT INTO resources (match_id, player_id, turn_number, resource_type, amount)
		VALUES (?, ?, ?, ?, ?)
	`

	stmt, err := r.q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare resource insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, res := range resources {
		_, err := stmt.ExecContext(ctx,
			res.MatchID, res.PlayerID, res.TurnNumber, res.ResourceType, res.Amount)
		if err != nil {
			return fmt.Errorf("failed to insert resource %s turn %d: %w",
				res.ResourceType, res.TurnNumber, err)
		}
	}

	return nil
}

// insertTurnHistory covers the three tables that share the
// (match, player, turn) -> value shape.
func (r *historyRepository) insertTurnHistory(ctx context.Context, table string, entries []*models.TurnHistory) error {
	if len(entries) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (match_id, player_id, turn_number, value)
		VALUES (?, ?, ?, ?)
	`, table)

	stmt, err := r.q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare %s insert: %w", table, err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, entry := range entries {
		_, err := stmt.ExecContext(ctx,
			entry.MatchID, entry.PlayerID, entry.TurnNumber, entry.Value)
		if err != nil {
			return fmt.Errorf("failed to insert %s row turn %d: %w", table, entry.TurnNumber, err)
		}
	}

	return nil
}

func (r *historyRepository) BulkInsertPoints(ctx context.Context, entries []*models.TurnHistory) error {
	return r.insertTurnHistory(ctx, "points_history", entries)
}

func (r *historyRepository) BulkInsertMilitary(ctx context.Context, entries []*models.TurnHistory) error {
	return r.insertTurnHistory(ctx, "military_history", entries)
}

func (r *historyRepository) BulkInsertLegitimacy(ctx context.Context, entries []*models.TurnHistory) error {
	return r.insertTurnHistory(ctx, "legitimacy_history", entries)
}

// insertOpinionHistory covers the two sub-keyed opinion tables.
func (r *historyRepository) insertOpinionHistory(ctx context.Context, table, keyColumn string, entries []*models.OpinionHistory) error {
	if len(entries) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (match_id, player_id, %s, turn_number, value)
		VALUES (?, ?, ?, ?, ?)
	`, table, keyColumn)

	stmt, err := r.q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare %s insert: %w", table, err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, entry := range entries {
		_, err := stmt.ExecContext(ctx,
			entry.MatchID, entry.PlayerID, entry.SubKey, entry.TurnNumber, entry.Value)
		if err != nil {
			return fmt.Errorf("failed to insert %s row %s turn %d: %w",
				table, entry.SubKey, entry.TurnNumber, err)
		}
	}

	return nil
}

func (r *historyRepository) BulkInsertFamilyOpinions(ctx context.Context, entries []*models.OpinionHistory) error {
	return r.insertOpinionHistory(ctx, "family_opinion_history", "family_name", entries)
}

func (r *historyRepository) BulkInsertReligionOpinions(ctx context.Context, entries []*models.OpinionHistory) error {
	return r.insertOpinionHistory(ctx, "religion_opinion_history", "religion_name", entries)
}

func (r *historyRepository) BulkInsertGameStates(ctx context.Context, states []*models.GameState) error {
	if len(states) == 0 {
		return nil
	}

	query := `
		INSERT INTO game_state (match_id, turn_number, year, active_player_id)
		VALUES (?, ?, ?, ?)
	`

	stmt, err := r.q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare game state insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, state := range states {
		_, err := stmt.ExecContext(ctx,
			state.MatchID, state.TurnNumber, state.Year, state.ActivePlayerID)
		if err != nil {
			return fmt.Errorf("failed to insert game state turn %d: %w", state.TurnNumber, err)
		}
	}

	return nil
}

func (r *historyRepository) CountResources(ctx context.Context, matchID int64) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM resources WHERE match_id = ?`, matchID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return count, nil
}
