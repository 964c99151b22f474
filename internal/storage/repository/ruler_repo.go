package repository

import (
	"context"
	"fmt"

	"github.com/oldworldstats/save-importer/internal/storage/models"
)

// RulerRepository handles database operations for leader successions.
type RulerRepository interface {
	// BulkInsert inserts a batch of rulers. An empty batch is a no-op.
	BulkInsert(ctx context.Context, rulers []*models.Ruler) error

	// ListByPlayer retrieves a player's rulers ordered by succession order.
	ListByPlayer(ctx context.Context, matchID, playerID int64) ([]*models.Ruler, error)
}

type rulerRepository struct {
	q Querier
}

// NewRulerRepository creates a new ruler repository.
func NewRulerRepository(q Querier) RulerRepository {
	return &rulerRepository{q: q}
}

func (r *rulerRepository) BulkInsert(ctx context.Context, rulers []*models.Ruler) error {
	if len(rulers) == 0 {
		return nil
	}

	query := `
		INSERT INTO rulers (
			match_id, player_id, character_id, name, archetype,
			starting_trait, succession_order, succession_turn
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := r.q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare ruler insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, ruler := range rulers {
		_, err := stmt.ExecContext(ctx,
			ruler.MatchID,
			ruler.PlayerID,
			ruler.CharacterID,
			ruler.Name,
			ruler.Archetype,
			ruler.StartingTrait,
			ruler.SuccessionOrder,
			ruler.SuccessionTurn,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ruler (character %d, order %d): %w",
				ruler.CharacterID, ruler.SuccessionOrder, err)
		}
	}

	return nil
}

func (r *rulerRepository) ListByPlayer(ctx context.Context, matchID, playerID int64) ([]*models.Ruler, error) {
	query := `
		SELECT id, match_id, player_id, character_id, name, archetype,
			starting_trait, succession_order, succession_turn
		FROM rulers
		WHERE match_id = ? AND player_id = ?
		ORDER BY succession_order ASC
	`

	rows, err := r.q.QueryContext(ctx, query, matchID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rulers: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var rulers []*models.Ruler
	for rows.Next() {
		ruler := &models.Ruler{}
		err := rows.Scan(
			&ruler.ID,
			&ruler.MatchID,
			&ruler.PlayerID,
			&ruler.CharacterID,
			&ruler.Name,
			&ruler.Archetype,
			&ruler.StartingTrait,
			&ruler.SuccessionOrder,
			&ruler.SuccessionTurn,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ruler: %w", err)
		}
		rulers = append(rulers, ruler)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rulers: %w", err)
	}

	return rulers, nil
}
