package repository

import (
	"context"
	"fmt"

	"github.com/oldworldstats/save-importer/internal/storage/models"
)

// EventRepository handles database operations for game-log events.
type EventRepository interface {
	// BulkInsert inserts a batch of events. An empty batch is a no-op.
	BulkInsert(ctx context.Context, events []*models.Event) error

	// CountByMatch returns the number of events recorded for a match.
	CountByMatch(ctx context.Context, matchID int64) (int, error)

	// ListByMatch retrieves all events of a match ordered by turn.
	ListByMatch(ctx context.Context, matchID int64) ([]*models.Event, error)
}

type eventRepository struct {
	q Querier
}

// NewEventRepository creates a new event repository.
func NewEventRepository(q Querier) EventRepository {
	return &eventRepository{q: q}
}

func (r *eventRepository) BulkInsert(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}

	query := `
		INSERT INTO events (
			match_id, turn_number, event_type, player_id, x, y, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := r.q.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, event := range events {
		_, err := stmt.ExecContext(ctx,
			event.MatchID,
			event.TurnNumber,
			event.EventType,
			event.PlayerID,
			event.X,
			event.Y,
			event.Payload,
		)
		if err != nil {
			return fmt.Errorf("failed to insert event (turn %d, type %s): %w",
				event.TurnNumber, event.EventType, err)
		}
	}

	return nil
}

func (r *eventRepository) CountByMatch(ctx context.Context, matchID int64) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE match_id = ?`, matchID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func (r *eventRepository) ListByMatch(ctx context.Context, matchID int64) ([]*models.Event, error) {
	query := `
		SELECT id, match_id, turn_number, event_type, player_id, x, y, payload
		FROM events
		WHERE match_id = ?
		ORDER BY turn_number ASC, id ASC
	`

	rows, err := r.q.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []*models.Event
	for rows.Next() {
		event := &models.Event{}
		err := rows.Scan(
			&event.ID,
			&event.MatchID,
			&event.TurnNumber,
			&event.EventType,
			&event.PlayerID,
			&event.X,
			&event.Y,
			&event.Payload,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}
