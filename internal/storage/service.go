package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/oldworldstats/save-importer/internal/storage/repository"
)

// Service provides high-level read operations over the imported data. It is
// safe to share from a multi-threaded host (the dashboard); the mutex
// serializes access on top of the single-connection pool.
type Service struct {
	mu       sync.Mutex
	db       *DB
	matches  repository.MatchRepository
	players  repository.PlayerRepository
	rulers   repository.RulerRepository
	progress repository.ProgressRepository
	stats    repository.StatsRepository
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	conn := db.Conn()
	return &Service{
		db:       db,
		matches:  repository.NewMatchRepository(conn),
		players:  repository.NewPlayerRepository(conn),
		rulers:   repository.NewRulerRepository(conn),
		progress: repository.NewProgressRepository(conn),
		stats:    repository.NewStatsRepository(conn),
	}
}

// DB returns the underlying database handle.
func (s *Service) DB() *DB {
	return s.db
}

// Summary returns aggregate statistics across all imported matches.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := s.stats.GetSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary: %w", err)
	}
	return summary, nil
}

// Match retrieves a match by id, or nil if it does not exist.
func (s *Service) Match(ctx context.Context, id int64) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches.GetByID(ctx, id)
}

// MatchWinner retrieves the winner row for a match, or nil if undetermined.
func (s *Service) MatchWinner(ctx context.Context, matchID int64) (*MatchWinner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches.GetWinner(ctx, matchID)
}

// Players retrieves the players of a match in original-index order.
func (s *Service) Players(ctx context.Context, matchID int64) ([]*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players.ListByMatch(ctx, matchID)
}

// Rulers retrieves a player's succession in order.
func (s *Service) Rulers(ctx context.Context, matchID, playerID int64) ([]*Ruler, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rulers.ListByPlayer(ctx, matchID, playerID)
}

// UnitClassifications retrieves the static unit reference data.
func (s *Service) UnitClassifications(ctx context.Context) ([]*UnitClassification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.ListUnitClassifications(ctx)
}
