package repository

import (
	"context"
	"fmt"

	"github.com/oldworldstats/save-importer/internal/storage/models"
)

// PlayerRepository handles database operations for match players.
type PlayerRepository interface {
	// Create inserts a new player and sets its generated id.
	Create(ctx context.Context, player *models.Player) error

	// ListByMatch retrieves all players of a match ordered by original index.
	ListByMatch(ctx context.Context, matchID int64) ([]*models.Player, error)
}

type playerRepository struct {
	q Querier
}

// NewPlayerRepository creates a new player repository.
func NewPlayerRepository(q Querier) PlayerRepository {
	return &playerRepository{q: q}
}

func (r *playerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (
			match_id, original_index, name, normalized_name,
			civilization, team, online_id, score, is_human
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		player.MatchID,
		player.OriginalIndex,
		player.Name,
		player.NormalizedName,
		player.Civilization,
		player.Team,
		player.OnlineID,
		player.Score,
		player.IsHuman,
	)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	player.ID = id

	return nil
}

func (r *playerRepository) ListByMatch(ctx context.Context, matchID int64) ([]*models.Player, error) {
	query := `
		SELECT id, match_id, original_index, name, normalized_name,
			civilization, team, online_id, score, is_human
		FROM players
		WHERE match_id = ?
		ORDER BY original_index ASC
	`

	rows, err := r.q.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for match: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var players []*models.Player
	for rows.Next() {
		player := &models.Player{}
		err := rows.Scan(
			&player.ID,
			&player.MatchID,
			&player.OriginalIndex,
			&player.Name,
			&player.NormalizedName,
			&player.Civilization,
			&player.Team,
			&player.OnlineID,
			&player.Score,
			&player.IsHuman,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return players, nil
}
