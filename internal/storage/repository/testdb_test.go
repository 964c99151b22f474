package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/oldworldstats/save-importer/internal/storage/models"
	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory database with the importer schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	schema := `
		CREATE TABLE matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			challonge_match_id INTEGER,
			file_name TEXT NOT NULL,
			file_hash TEXT NOT NULL,
			game_name TEXT,
			map_size TEXT,
			map_class TEXT,
			map_aspect TEXT,
			turn_style TEXT,
			turn_timer INTEGER,
			victory_conditions TEXT,
			total_turns INTEGER NOT NULL CHECK (total_turns >= 0),
			map_width INTEGER NOT NULL CHECK (map_width > 0),
			map_height INTEGER NOT NULL CHECK (map_height > 0),
			year INTEGER,
			save_date DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (file_name, file_hash)
		);

		CREATE TABLE players (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			original_index INTEGER NOT NULL CHECK (original_index >= 1),
			name TEXT NOT NULL,
			normalized_name TEXT NOT NULL,
			civilization TEXT,
			team INTEGER,
			online_id TEXT,
			score INTEGER,
			is_human INTEGER NOT NULL DEFAULT 1 CHECK (is_human IN (0, 1)),
			FOREIGN KEY (match_id) REFERENCES matches(id),
			UNIQUE (match_id, original_index)
		);

		CREATE TABLE match_winners (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL UNIQUE,
			player_id INTEGER NOT NULL,
			determination TEXT NOT NULL CHECK (determination IN ('parser_determined', 'manual_override')),
			reason TEXT,
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (player_id) REFERENCES players(id)
		);

		CREATE TABLE match_metadata (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL UNIQUE,
			difficulty TEXT,
			victory_turn INTEGER CHECK (victory_turn IS NULL OR victory_turn >= 0),
			game_options TEXT,
			dlc TEXT,
			map_settings TEXT,
			FOREIGN KEY (match_id) REFERENCES matches(id)
		);

		CREATE TABLE game_state (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			turn_number INTEGER NOT NULL CHECK (turn_number >= 0),
			year INTEGER,
			active_player_id INTEGER,
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (active_player_id) REFERENCES players(id),
			UNIQUE (match_id, turn_number)
		);

		CREATE TABLE territories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			x INTEGER NOT NULL CHECK (x >= 0 AND x <= 45),
			y INTEGER NOT NULL CHECK (y >= 0 AND y <= 45),
			turn_number INTEGER NOT NULL CHECK (turn_number >= 0),
			owner_player_id INTEGER,
			terrain TEXT,
			improvement TEXT,
			specialist TEXT,
			resource TEXT,
			road INTEGER NOT NULL DEFAULT 0 CHECK (road IN (0, 1)),
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (owner_player_id) REFERENCES players(id),
			UNIQUE (match_id, x, y, turn_number)
		);

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			turn_number INTEGER NOT NULL CHECK (turn_number >= 0),
			event_type TEXT NOT NULL,
			player_id INTEGER,
			x INTEGER CHECK (x IS NULL OR (x >= 0 AND x <= 45)),
			y INTEGER CHECK (y IS NULL OR (y >= 0 AND y <= 45)),
			payload TEXT,
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (player_id) REFERENCES players(id)
		);

		CREATE TABLE resources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			turn_number INTEGER NOT NULL CHECK (turn_number >= 0),
			resource_type TEXT NOT NULL,
			amount REAL NOT NULL,
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (player_id) REFERENCES players(id),
			UNIQUE (match_id, player_id, turn_number, resource_type)
		);

		CREATE TABLE technology_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			tech_name TEXT NOT NULL,
			count INTEGER NOT NULL CHECK (count >= 0),
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (player_id) REFERENCES players(id),
			UNIQUE (match_id, player_id, tech_name)
		);

		CREATE TABLE player_statistics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			stat_category TEXT NOT NULL,
			stat_name TEXT NOT NULL,
			value REAL NOT NULL,
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (player_id) REFERENCES players(id),
			UNIQUE (match_id, player_id, stat_category, stat_name)
		);

		CREATE TABLE units_produced (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			unit_type TEXT NOT NULL,
			count INTEGER NOT NULL CHECK (count >= 0),
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (player_id) REFERENCES players(id),
			UNIQUE (match_id, player_id, unit_type)
		);

		CREATE TABLE unit_classifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			unit_type TEXT NOT NULL UNIQUE,
			classification TEXT NOT NULL
		);

		CREATE TABLE rulers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			character_id INTEGER NOT NULL,
			name TEXT,
			archetype TEXT,
			starting_trait TEXT,
			succession_order INTEGER NOT NULL CHECK (succession_order >= 0),
			succession_turn INTEGER NOT NULL CHECK (succession_turn >= 1),
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (player_id) REFERENCES players(id),
			UNIQUE (match_id, player_id, succession_order),
			UNIQUE (match_id, player_id, character_id)
		);

		CREATE TABLE points_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			turn_number INTEGER NOT NULL CHECK (turn_number >= 0),
			value REAL NOT NULL,
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (player_id) REFERENCES players(id),
			UNIQUE (match_id, player_id, turn_number)
		);

		CREATE TABLE military_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			turn_number INTEGER NOT NULL CHECK (turn_number >= 0),
			value REAL NOT NULL,
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (player_id) REFERENCES players(id),
			UNIQUE (match_id, player_id, turn_number)
		);

		CREATE TABLE legitimacy_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			turn_number INTEGER NOT NULL CHECK (turn_number >= 0),
			value REAL NOT NULL CHECK (value >= 0 AND value <= 100),
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (player_id) REFERENCES players(id),
			UNIQUE (match_id, player_id, turn_number)
		);

		CREATE TABLE family_opinion_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			family_name TEXT NOT NULL,
			turn_number INTEGER NOT NULL CHECK (turn_number >= 0),
			value REAL NOT NULL CHECK (value >= 0 AND value <= 100),
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (player_id) REFERENCES players(id),
			UNIQUE (match_id, player_id, family_name, turn_number)
		);

		CREATE TABLE religion_opinion_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			religion_name TEXT NOT NULL,
			turn_number INTEGER NOT NULL CHECK (turn_number >= 0),
			value REAL NOT NULL CHECK (value >= 0 AND value <= 100),
			FOREIGN KEY (match_id) REFERENCES matches(id),
			FOREIGN KEY (player_id) REFERENCES players(id),
			UNIQUE (match_id, player_id, religion_name, turn_number)
		);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return db
}

// createTestMatch inserts a match with the given file identity and returns it.
func createTestMatch(t *testing.T, db *sql.DB, fileName, fileHash string) *models.Match {
	t.Helper()

	match := &models.Match{
		FileName:   fileName,
		FileHash:   fileHash,
		TotalTurns: 50,
		MapWidth:   30,
		MapHeight:  22,
		CreatedAt:  time.Now(),
	}
	if err := NewMatchRepository(db).Create(context.Background(), match); err != nil {
		t.Fatalf("failed to create test match: %v", err)
	}
	return match
}

// createTestPlayer inserts a player for the given match and returns it.
func createTestPlayer(t *testing.T, db *sql.DB, matchID int64, index int, name string) *models.Player {
	t.Helper()

	player := &models.Player{
		MatchID:        matchID,
		OriginalIndex:  index,
		Name:           name,
		NormalizedName: name,
		IsHuman:        true,
	}
	if err := NewPlayerRepository(db).Create(context.Background(), player); err != nil {
		t.Fatalf("failed to create test player: %v", err)
	}
	return player
}
