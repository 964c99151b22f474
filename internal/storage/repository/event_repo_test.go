package repository

import (
	"context"
	"testing"

	"github.com/oldworldstats/save-importer/internal/storage/models"
)

func TestEventRepository_BulkInsert(t *testing.T) {
	db := setupTestDB(t)

	repo := NewEventRepository(db)
	ctx := context.Background()

	match := createTestMatch(t, db, "save1.zip", "hash1")
	player := createTestPlayer(t, db, match.ID, 1, "alice")

	x, y := 12, 7
	payload := "CITY_FOUNDED Roma"
	events := []*models.Event{
		{MatchID: match.ID, TurnNumber: 1, EventType: "CITY_FOUNDED", PlayerID: &player.ID, X: &x, Y: &y, Payload: &payload},
		{MatchID: match.ID, TurnNumber: 3, EventType: "WAR_DECLARED", PlayerID: &player.ID},
		{MatchID: match.ID, TurnNumber: 5, EventType: "BARBARIAN_RAID"},
	}

	if err := repo.BulkInsert(ctx, events); err != nil {
		t.Fatalf("failed to bulk insert events: %v", err)
	}

	count, err := repo.CountByMatch(ctx, match.ID)
	if err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 events, got %d", count)
	}

	listed, err := repo.ListByMatch(ctx, match.ID)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 events, got %d", len(listed))
	}
	if listed[0].EventType != "CITY_FOUNDED" {
		t.Errorf("expected CITY_FOUNDED first, got %s", listed[0].EventType)
	}
	if listed[0].X == nil || *listed[0].X != 12 {
		t.Errorf("expected x 12, got %v", listed[0].X)
	}
	if listed[2].PlayerID != nil {
		t.Errorf("expected nil player for system event, got %v", *listed[2].PlayerID)
	}
}

func TestEventRepository_BulkInsert_Empty(t *testing.T) {
	db := setupTestDB(t)

	if err := NewEventRepository(db).BulkInsert(context.Background(), nil); err != nil {
		t.Fatalf("expected empty insert to be a no-op, got %v", err)
	}
}

func TestEventRepository_NegativeTurn(t *testing.T) {
	db := setupTestDB(t)

	match := createTestMatch(t, db, "save1.zip", "hash1")

	bad := []*models.Event{
		{MatchID: match.ID, TurnNumber: -1, EventType: "CITY_FOUNDED"},
	}
	if err := NewEventRepository(db).BulkInsert(context.Background(), bad); err == nil {
		t.Error("expected error for negative turn number")
	}
}
