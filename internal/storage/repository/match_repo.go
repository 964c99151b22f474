package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oldworldstats/save-importer/internal/storage/models"
)

// MatchRepository handles database operations for matches, winners and
// match metadata.
type MatchRepository interface {
	// Create inserts a new match and sets its generated id.
	Create(ctx context.Context, match *models.Match) error

	// FindByFileIdentity returns the id of the match imported from the given
	// (file name, file hash) pair, or found=false if none exists.
	FindByFileIdentity(ctx context.Context, fileName, fileHash string) (id int64, found bool, err error)

	// GetByID retrieves a match by its id, or nil if it does not exist.
	GetByID(ctx context.Context, id int64) (*models.Match, error)

	// CreateWinner records the resolved winner for a match.
	CreateWinner(ctx context.Context, winner *models.MatchWinner) error

	// GetWinner retrieves the winner row for a match, or nil if undetermined.
	GetWinner(ctx context.Context, matchID int64) (*models.MatchWinner, error)

	// CreateMetadata inserts the optional one-to-one metadata extension.
	CreateMetadata(ctx context.Context, meta *models.MatchMetadata) error

	// ListDuplicateIDs returns ids of match rows that share a
	// (file_name, file_hash) pair with an earlier row. The first (lowest id)
	// row of each group is kept out of the result.
	ListDuplicateIDs(ctx context.Context) ([]int64, error)

	// DeleteCascade removes a match and every row that references it.
	DeleteCascade(ctx context.Context, matchID int64) error
}

type matchRepository struct {
	q Querier
}

// NewMatchRepository creates a new match repository.
func NewMatchRepository(q Querier) MatchRepository {
	return &matchRepository{q: q}
}

func (r *matchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (
			challonge_match_id, file_name, file_hash, game_name,
			map_size, map_class, map_aspect, turn_style, turn_timer,
			victory_conditions, total_turns, map_width, map_height,
			year, save_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		match.ChallongeMatchID,
		match.FileName,
		match.FileHash,
		match.GameName,
		match.MapSize,
		match.MapClass,
		match.MapAspect,
		match.TurnStyle,
		match.TurnTimer,
		match.VictoryConditions,
		match.TotalTurns,
		match.MapWidth,
		match.MapHeight,
		match.Year,
		match.SaveDate,
		match.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	match.ID = id

	return nil
}

func (r *matchRepository) FindByFileIdentity(ctx context.Context, fileName, fileHash string) (int64, bool, error) {
	query := `SELECT id FROM matches WHERE file_name = ? AND file_hash = ?`

	var id int64
	err := r.q.QueryRowContext(ctx, query, fileName, fileHash).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up match by file identity: %w", err)
	}

	return id, true, nil
}

func (r *matchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	query := `
		SELECT
			id, challonge_match_id, file_name, file_hash, game_name,
			map_size, map_class, map_aspect, turn_style, turn_timer,
			victory_conditions, total_turns, map_width, map_height,
			year, save_date, created_at
		FROM matches
		WHERE id = ?
	`

	match := &models.Match{}
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&match.ID,
		&match.ChallongeMatchID,
		&match.FileName,
		&match.FileHash,
		&match.GameName,
		&match.MapSize,
		&match.MapClass,
		&match.MapAspect,
		&match.TurnStyle,
		&match.TurnTimer,
		&match.VictoryConditions,
		&match.TotalTurns,
		&match.MapWidth,
		&match.MapHeight,
		&match.Year,
		&match.SaveDate,
		&match.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	return match, nil
}

func (r *matchRepository) CreateWinner(ctx context.Context, winner *models.MatchWinner) error {
	// The winner must belong to the same match; enforced here because SQLite
	// foreign keys cannot express the cross-column condition.
	check := `SELECT match_id FROM players WHERE id = ?`
	var playerMatch int64
	if err := r.q.QueryRowContext(ctx, check, winner.PlayerID).Scan(&playerMatch); err != nil {
		return fmt.Errorf("failed to verify winner player: %w", err)
	}
	if playerMatch != winner.MatchID {
		return fmt.Errorf("winner player %d belongs to match %d, not match %d",
			winner.PlayerID, playerMatch, winner.MatchID)
	}

	query := `
		INSERT INTO match_winners (match_id, player_id, determination, reason)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		winner.MatchID,
		winner.PlayerID,
		winner.Determination,
		winner.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to create match winner: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	winner.ID = id

	return nil
}

func (r *matchRepository) GetWinner(ctx context.Context, matchID int64) (*models.MatchWinner, error) {
	query := `
		SELECT id, match_id, player_id, determination, reason
		FROM match_winners
		WHERE match_id = ?
	`

	winner := &models.MatchWinner{}
	err := r.q.QueryRowContext(ctx, query, matchID).Scan(
		&winner.ID,
		&winner.MatchID,
		&winner.PlayerID,
		&winner.Determination,
		&winner.Reason,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match winner: %w", err)
	}

	return winner, nil
}

func (r *matchRepository) CreateMetadata(ctx context.Context, meta *models.MatchMetadata) error {
	query := `
		INSERT INTO match_metadata (
			match_id, difficulty, victory_turn, game_options, dlc, map_settings
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		meta.MatchID,
		meta.Difficulty,
		meta.VictoryTurn,
		meta.GameOptions,
		meta.DLC,
		meta.MapSettings,
	)
	if err != nil {
		return fmt.Errorf("failed to create match metadata: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	meta.ID = id

	return nil
}

func (r *matchRepository) ListDuplicateIDs(ctx context.Context) ([]int64, error) {
	// Safety net for rows created before the uniqueness constraint existed.
	query := `
		SELECT m.id
		FROM matches m
		WHERE m.id NOT IN (
			SELECT MIN(id) FROM matches GROUP BY file_name, file_hash
		)
		ORDER BY m.id
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list duplicate matches: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate match id: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating duplicate matches: %w", err)
	}

	return ids, nil
}

func (r *matchRepository) DeleteCascade(ctx context.Context, matchID int64) error {
	// Children first; the schema declares plain foreign keys without
	// ON DELETE CASCADE so deletion order matters.
	childTables := []string{
		"religion_opinion_history",
		"family_opinion_history",
		"legitimacy_history",
		"military_history",
		"points_history",
		"rulers",
		"units_produced",
		"player_statistics",
		"technology_progress",
		"resources",
		"events",
		"territories",
		"game_state",
		"match_metadata",
		"match_winners",
		"players",
	}

	for _, table := range childTables {
		query := fmt.Sprintf("DELETE FROM %s WHERE match_id = ?", table)
		if _, err := r.q.ExecContext(ctx, query, matchID); err != nil {
			return fmt.Errorf("failed to delete from %s for match %d: %w", table, matchID, err)
		}
	}

	if _, err := r.q.ExecContext(ctx, "DELETE FROM matches WHERE id = ?", matchID); err != nil {
		return fmt.Errorf("failed to delete match %d: %w", matchID, err)
	}

	return nil
}
