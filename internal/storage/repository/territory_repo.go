package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oldworldstats/save-importer/internal/storage/models"
)

// TerritoryRepository handles database operations for per-turn map snapshots.
type TerritoryRepository interface {
	// BulkInsert inserts a batch of territory snapshots. An empty batch is
	// a no-op. This is the write-heaviest path of the importer.
	BulkInsert(ctx context.Context, territories []*models.Territory) error

	// CountByMatch returns the number of territory rows for a match.
	CountByMatch(ctx context.Context, matchID int64) (int, error)

	// GetAt retrieves one tile snapshot, or nil if absent.
	GetAt(ctx context.Context, matchID int64, x, y, turn int) (*models.Territory, error)
}

type territoryRepository struct {
	q Querier
}

// NewTerritoryRepository creates a new territory repository.
func NewTerritoryRepository(q Querier) TerritoryRepository {
	return &territoryRepository{q: q}
}

func (r *territoryRepository) BulkInsert(ctx context.Context, territories []*models.Territory) error {
	if len(territories) == 0 {
		return nil
	}

	query := `
		INSERT INTO territories (
			match_id, x, y, turn_number, owner_player_id,
			terrain, improvement, specialist, resource, road
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := r.q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare territory insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, t := range territories {
		_, err := stmt.ExecContext(ctx,
			t.MatchID,
			t.X,
			t.Y,
			t.TurnNumber,
			t.OwnerPlayerID,
			t.Terrain,
			t.Improvement,
			t.Specialist,
			t.Resource,
			t.Road,
		)
		if err != nil {
			return fmt.Errorf("failed to insert territory (%d,%d) turn %d: %w",
				t.X, t.Y, t.TurnNumber, err)
		}
	}

	return nil
}

func (r *territoryRepository) CountByMatch(ctx context.Context, matchID int64) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM territories WHERE match_id = ?`, matchID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count territories: %w", err)
	}
	return count, nil
}

func (r *territoryRepository) GetAt(ctx context.Context, matchID int64, x, y, turn int) (*models.Territory, error) {
	query := `
		SELECT id, match_id, x, y, turn_number, owner_player_id,
			terrain, improvement, specialist, resource, road
		FROM territories
		WHERE match_id = ? AND x = ? AND y = ? AND turn_number = ?
	`

	t := &models.Territory{}
	err := r.q.QueryRowContext(ctx, query, matchID, x, y, turn).Scan(
		&t.ID,
		&t.MatchID,
		&t.X,
		&t.Y,
		&t.TurnNumber,
		&t.OwnerPlayerID,
		&t.Terrain,
		&t.Improvement,
		&t.Specialist,
		&t.Resource,
		&t.Road,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get territory: %w", err)
	}

	return t, nil
}
