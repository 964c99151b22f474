package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/oldworldstats/save-importer/internal/storage/models"
	_ "modernc.org/sqlite"
)

func TestMatchRepository_Create(t *testing.T) {
	db := setupTestDB(t)

	repo := NewMatchRepository(db)
	ctx := context.Background()

	challongeID := int64(426504724)
	gameName := "Finals"
	year := -430
	match := &models.Match{
		ChallongeMatchID: &challongeID,
		FileName:         "match_426504724_finals.zip",
		FileHash:         "abc123",
		GameName:         &gameName,
		TotalTurns:       80,
		MapWidth:         30,
		MapHeight:        22,
		Year:             &year,
		CreatedAt:        time.Now(),
	}

	if err := repo.Create(ctx, match); err != nil {
		t.Fatalf("failed to create match: %v", err)
	}

	if match.ID == 0 {
		t.Error("expected match ID to be set")
	}

	retrieved, err := repo.GetByID(ctx, match.ID)
	if err != nil {
		t.Fatalf("failed to retrieve match: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected match to be found")
	}

	if retrieved.FileName != match.FileName {
		t.Errorf("expected file name %s, got %s", match.FileName, retrieved.FileName)
	}
	if retrieved.ChallongeMatchID == nil || *retrieved.ChallongeMatchID != challongeID {
		t.Errorf("expected challonge match id %d, got %v", challongeID, retrieved.ChallongeMatchID)
	}
	if retrieved.TotalTurns != 80 {
		t.Errorf("expected 80 total turns, got %d", retrieved.TotalTurns)
	}
	if retrieved.TurnTimer != nil {
		t.Errorf("expected nil turn timer, got %v", *retrieved.TurnTimer)
	}
	if retrieved.Year == nil || *retrieved.Year != year {
		t.Errorf("expected year %d, got %v", year, retrieved.Year)
	}
}

func TestMatchRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)

	match, err := NewMatchRepository(db).GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Error("expected nil match for nonexistent id")
	}
}

func TestMatchRepository_FindByFileIdentity(t *testing.T) {
	db := setupTestDB(t)

	repo := NewMatchRepository(db)
	ctx := context.Background()

	created := createTestMatch(t, db, "save1.zip", "hash1")

	id, found, err := repo.FindByFileIdentity(ctx, "save1.zip", "hash1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected match to be found")
	}
	if id != created.ID {
		t.Errorf("expected id %d, got %d", created.ID, id)
	}

	// Same name, different content: a distinct match
	_, found, err = repo.FindByFileIdentity(ctx, "save1.zip", "hash2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected no match for different hash")
	}

	_, found, err = repo.FindByFileIdentity(ctx, "other.zip", "hash1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected no match for different name")
	}
}

func TestMatchRepository_CreateWinner(t *testing.T) {
	db := setupTestDB(t)

	repo := NewMatchRepository(db)
	ctx := context.Background()

	match := createTestMatch(t, db, "save1.zip", "hash1")
	player := createTestPlayer(t, db, match.ID, 1, "alice")

	winner := &models.MatchWinner{
		MatchID:       match.ID,
		PlayerID:      player.ID,
		Determination: models.DeterminationParser,
	}
	if err := repo.CreateWinner(ctx, winner); err != nil {
		t.Fatalf("failed to create winner: %v", err)
	}

	retrieved, err := repo.GetWinner(ctx, match.ID)
	if err != nil {
		t.Fatalf("failed to get winner: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected winner to be found")
	}
	if retrieved.PlayerID != player.ID {
		t.Errorf("expected player id %d, got %d", player.ID, retrieved.PlayerID)
	}
	if retrieved.Determination != models.DeterminationParser {
		t.Errorf("expected determination %s, got %s", models.DeterminationParser, retrieved.Determination)
	}
}

func TestMatchRepository_CreateWinner_WrongMatch(t *testing.T) {
	db := setupTestDB(t)

	repo := NewMatchRepository(db)
	ctx := context.Background()

	match1 := createTestMatch(t, db, "save1.zip", "hash1")
	match2 := createTestMatch(t, db, "save2.zip", "hash2")
	outsider := createTestPlayer(t, db, match2.ID, 1, "bob")

	winner := &models.MatchWinner{
		MatchID:       match1.ID,
		PlayerID:      outsider.ID,
		Determination: models.DeterminationOverride,
	}
	if err := repo.CreateWinner(ctx, winner); err == nil {
		t.Error("expected error for winner from a different match")
	}
}

func TestMatchRepository_GetWinner_Undetermined(t *testing.T) {
	db := setupTestDB(t)

	match := createTestMatch(t, db, "save1.zip", "hash1")

	winner, err := NewMatchRepository(db).GetWinner(context.Background(), match.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winner != nil {
		t.Error("expected nil winner for undetermined match")
	}
}

func TestMatchRepository_CreateMetadata(t *testing.T) {
	db := setupTestDB(t)

	repo := NewMatchRepository(db)
	ctx := context.Background()

	match := createTestMatch(t, db, "save1.zip", "hash1")

	difficulty := "The Great"
	victoryTurn := 74
	meta := &models.MatchMetadata{
		MatchID:     match.ID,
		Difficulty:  &difficulty,
		VictoryTurn: &victoryTurn,
	}
	if err := repo.CreateMetadata(ctx, meta); err != nil {
		t.Fatalf("failed to create metadata: %v", err)
	}
	if meta.ID == 0 {
		t.Error("expected metadata ID to be set")
	}

	// One-to-one: a second metadata row for the same match must fail
	if err := repo.CreateMetadata(ctx, &models.MatchMetadata{MatchID: match.ID}); err == nil {
		t.Error("expected error for duplicate metadata")
	}
}

// setupLegacyDB builds a schema without the (file_name, file_hash) uniqueness
// constraint to simulate rows imported before it existed. Only the tables
// touched by duplicate cleanup are needed.
func setupLegacyDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

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
			total_turns INTEGER NOT NULL,
			map_width INTEGER NOT NULL,
			map_height INTEGER NOT NULL,
			year INTEGER,
			save_date DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	childTables := []string{
		"players", "match_winners", "match_metadata", "game_state",
		"territories", "events", "resources", "technology_progress",
		"player_statistics", "units_produced", "rulers", "points_history",
		"military_history", "legitimacy_history", "family_opinion_history",
		"religion_opinion_history",
	}
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	for _, table := range childTables {
		if _, err := db.Exec("CREATE TABLE " + table + " (id INTEGER PRIMARY KEY AUTOINCREMENT, match_id INTEGER NOT NULL)"); err != nil {
			t.Fatalf("failed to create %s: %v", table, err)
		}
	}

	return db
}

func TestMatchRepository_DuplicateCleanup(t *testing.T) {
	db := setupLegacyDB(t)

	repo := NewMatchRepository(db)
	ctx := context.Background()

	first := createTestMatch(t, db, "save1.zip", "hash1")
	second := createTestMatch(t, db, "save1.zip", "hash1")
	third := createTestMatch(t, db, "save1.zip", "hash1")
	distinct := createTestMatch(t, db, "save2.zip", "hash2")

	if _, err := db.Exec("INSERT INTO players (match_id) VALUES (?), (?)", second.ID, third.ID); err != nil {
		t.Fatalf("failed to seed players: %v", err)
	}

	ids, err := repo.ListDuplicateIDs(ctx)
	if err != nil {
		t.Fatalf("failed to list duplicates: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 duplicates, got %d: %v", len(ids), ids)
	}
	if ids[0] != second.ID || ids[1] != third.ID {
		t.Errorf("expected duplicates [%d %d], got %v", second.ID, third.ID, ids)
	}

	for _, id := range ids {
		if err := repo.DeleteCascade(ctx, id); err != nil {
			t.Fatalf("failed to delete match %d: %v", id, err)
		}
	}

	var remaining int
	if err := db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&remaining); err != nil {
		t.Fatalf("failed to count matches: %v", err)
	}
	if remaining != 2 {
		t.Errorf("expected 2 matches after cleanup, got %d", remaining)
	}

	var orphans int
	if err := db.QueryRow("SELECT COUNT(*) FROM players").Scan(&orphans); err != nil {
		t.Fatalf("failed to count players: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected players of deleted matches to be removed, got %d", orphans)
	}

	// The first of each group and the distinct match survive
	kept, err := repo.GetByID(ctx, first.ID)
	if err != nil || kept == nil {
		t.Fatalf("expected kept match %d to survive: %v", first.ID, err)
	}
	keptDistinct, err := repo.GetByID(ctx, distinct.ID)
	if err != nil || keptDistinct == nil {
		t.Fatalf("expected distinct match %d to survive: %v", distinct.ID, err)
	}
}
