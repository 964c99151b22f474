package etl

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oldworldstats/save-importer/internal/saveparser"
	"github.com/oldworldstats/save-importer/internal/storage"
	"github.com/oldworldstats/save-importer/internal/storage/models"
	"github.com/oldworldstats/save-importer/internal/storage/repository"
)

// Importer loads one save archive at a time into the database. It guarantees
// at-most-once ingestion per distinct (file name, content hash) pair and
// wraps the whole multi-table load of a file in a single transaction.
type Importer struct {
	db        *storage.DB
	overrides OverrideSource
}

// NewImporter creates an importer over an open database handle. The override
// source may be nil when no winner overrides are configured.
func NewImporter(db *storage.DB, overrides OverrideSource) *Importer {
	return &Importer{db: db, overrides: overrides}
}

// FileResult describes the outcome of importing one file.
type FileResult struct {
	Path    string
	MatchID int64
	Skipped bool // Already imported; counted as success
}

// ImportFile runs the per-file pipeline: duplicate check, parse, and the
// transactional multi-table load. A duplicate archive is a no-op success.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*FileResult, error) {
	fileName := filepath.Base(path)

	fileHash, err := saveparser.HashFile(path)
	if err != nil {
		return nil, err
	}

	matches := repository.NewMatchRepository(imp.db.Conn())
	existingID, found, err := matches.FindByFileIdentity(ctx, fileName, fileHash)
	if err != nil {
		return nil, err
	}
	if found {
		log.Printf("Skipping %s: already imported as match %d", fileName, existingID)
		return &FileResult{Path: path, MatchID: existingID, Skipped: true}, nil
	}

	bundle, err := saveparser.ParseArchive(path)
	if err != nil {
		return nil, err
	}

	var saveDate *time.Time
	if info, statErr := os.Stat(path); statErr == nil {
		modTime := info.ModTime().UTC()
		saveDate = &modTime
	}

	challongeID := saveparser.ExternalMatchID(fileName)

	result := &FileResult{Path: path}
	err = imp.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		matchID, err := imp.loadBundle(ctx, tx, bundle, fileName, fileHash, challongeID, saveDate)
		if err != nil {
			return err
		}
		result.MatchID = matchID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", fileName, err)
	}

	return result, nil
}

// loadBundle performs the in-transaction load: match skeleton, players and
// the original-index to database-id map, winner resolution, then every bulk
// entity kind with player references remapped.
func (imp *Importer) loadBundle(ctx context.Context, tx *sql.Tx, bundle *saveparser.Bundle,
	fileName, fileHash string, challongeID int64, saveDate *time.Time) (int64, error) {

	matches := repository.NewMatchRepository(tx)
	players := repository.NewPlayerRepository(tx)
	events := repository.NewEventRepository(tx)
	territories := repository.NewTerritoryRepository(tx)
	histories := repository.NewHistoryRepository(tx)
	progress := repository.NewProgressRepository(tx)
	rulers := repository.NewRulerRepository(tx)

	match := buildMatch(bundle, fileName, fileHash, challongeID, saveDate)
	if err := matches.Create(ctx, match); err != nil {
		return 0, err
	}

	idMap, err := insertPlayers(ctx, players, bundle, match.ID)
	if err != nil {
		return 0, err
	}

	if err := imp.resolveWinner(ctx, matches, bundle, match.ID, challongeID, idMap); err != nil {
		return 0, err
	}

	if err := insertMetadata(ctx, matches, bundle, match.ID); err != nil {
		return 0, err
	}

	remap := newPlayerRemap(fileName, idMap, len(bundle.Players))

	if err := events.BulkInsert(ctx, buildEvents(bundle, match.ID, remap)); err != nil {
		return 0, err
	}
	if err := territories.BulkInsert(ctx, buildTerritories(bundle, match.ID, remap)); err != nil {
		return 0, err
	}

	yieldRows, err := buildResources(bundle, match.ID, remap)
	if err != nil {
		return 0, err
	}
	if err := histories.BulkInsertResources(ctx, yieldRows); err != nil {
		return 0, err
	}

	techRows, err := buildTechnology(bundle, match.ID, remap)
	if err != nil {
		return 0, err
	}
	if err := progress.BulkInsertTechnology(ctx, techRows); err != nil {
		return 0, err
	}

	statRows, err := buildStatistics(bundle, match.ID, remap)
	if err != nil {
		return 0, err
	}
	if err := progress.BulkInsertStatistics(ctx, statRows); err != nil {
		return 0, err
	}

	unitRows, err := buildUnitsProduced(bundle, match.ID, remap)
	if err != nil {
		return 0, err
	}
	if err := progress.BulkInsertUnitsProduced(ctx, unitRows); err != nil {
		return 0, err
	}

	rulerRows, err := buildRulers(bundle, match.ID, remap)
	if err != nil {
		return 0, err
	}
	if err := rulers.BulkInsert(ctx, rulerRows); err != nil {
		return 0, err
	}

	pointRows, err := buildTurnHistory(bundle.Points, match.ID, remap, "points")
	if err != nil {
		return 0, err
	}
	if err := histories.BulkInsertPoints(ctx, pointRows); err != nil {
		return 0, err
	}

	militaryRows, err := buildTurnHistory(bundle.Military, match.ID, remap, "military")
	if err != nil {
		return 0, err
	}
	if err := histories.BulkInsertMilitary(ctx, militaryRows); err != nil {
		return 0, err
	}

	legitimacyRows, err := buildTurnHistory(bundle.Legitimacy, match.ID, remap, "legitimacy")
	if err != nil {
		return 0, err
	}
	if err := histories.BulkInsertLegitimacy(ctx, legitimacyRows); err != nil {
		return 0, err
	}

	familyRows, err := buildOpinionHistory(bundle.FamilyOpinions, match.ID, remap, "family opinion")
	if err != nil {
		return 0, err
	}
	if err := histories.BulkInsertFamilyOpinions(ctx, familyRows); err != nil {
		return 0, err
	}

	religionRows, err := buildOpinionHistory(bundle.ReligionOpinions, match.ID, remap, "religion opinion")
	if err != nil {
		return 0, err
	}
	if err := histories.BulkInsertReligionOpinions(ctx, religionRows); err != nil {
		return 0, err
	}

	if err := histories.BulkInsertGameStates(ctx, buildGameStates(bundle, match.ID, remap)); err != nil {
		return 0, err
	}

	return match.ID, nil
}

// resolveWinner records the match winner. A configured override for the
// file's external match id beats the parser-determined winner; a missing or
// unmatchable override falls back to the parsed winner with a warning.
func (imp *Importer) resolveWinner(ctx context.Context, matches repository.MatchRepository,
	bundle *saveparser.Bundle, matchID int64, challongeID int64, idMap map[int]int64) error {

	var winner *models.MatchWinner

	if imp.overrides != nil && challongeID != 0 {
		if override, ok := imp.overrides.Resolve(challongeID); ok {
			playerID, found := findPlayerByName(bundle, idMap, override.PlayerName)
			if found {
				reason := override.Reason
				winner = &models.MatchWinner{
					MatchID:       matchID,
					PlayerID:      playerID,
					Determination: models.DeterminationOverride,
				}
				if reason != "" {
					winner.Reason = &reason
				}
			} else {
				log.Printf("Warning: override for match %d names unknown player %q, using parsed winner",
					challongeID, override.PlayerName)
			}
		}
	}

	if winner == nil && bundle.WinnerIndex != 0 {
		playerID, ok := idMap[bundle.WinnerIndex]
		if !ok {
			log.Printf("Warning: parsed winner index %d outside player list, leaving winner unset",
				bundle.WinnerIndex)
			return nil
		}
		winner = &models.MatchWinner{
			MatchID:       matchID,
			PlayerID:      playerID,
			Determination: models.DeterminationParser,
		}
	}

	if winner == nil {
		return nil
	}
	return matches.CreateWinner(ctx, winner)
}

// findPlayerByName matches an override player name against the parsed
// roster using the same normalization as stored names.
func findPlayerByName(bundle *saveparser.Bundle, idMap map[int]int64, name string) (int64, bool) {
	want := NormalizeName(name)
	for i, player := range bundle.Players {
		if NormalizeName(player.Name) == want {
			id, ok := idMap[i+1]
			return id, ok
		}
	}
	return 0, false
}

// NormalizeName lowercases a display name and collapses interior whitespace,
// so the same competitor counts once across files.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func buildMatch(bundle *saveparser.Bundle, fileName, fileHash string,
	challongeID int64, saveDate *time.Time) *models.Match {

	match := &models.Match{
		FileName:   fileName,
		FileHash:   fileHash,
		TotalTurns: bundle.Match.TotalTurns,
		MapWidth:   bundle.Match.MapWidth,
		MapHeight:  bundle.Match.MapHeight,
		SaveDate:   saveDate,
		CreatedAt:  time.Now().UTC(),
	}
	if challongeID != 0 {
		match.ChallongeMatchID = &challongeID
	}
	match.GameName = optionalString(bundle.Match.GameName)
	match.MapSize = optionalString(bundle.Match.MapSize)
	match.MapClass = optionalString(bundle.Match.MapClass)
	match.MapAspect = optionalString(bundle.Match.MapAspect)
	match.TurnStyle = optionalString(bundle.Match.TurnStyle)
	match.VictoryConditions = optionalString(bundle.Match.VictoryConditions)
	if bundle.Match.TurnTimer > 0 {
		timer := bundle.Match.TurnTimer
		match.TurnTimer = &timer
	}
	if bundle.Match.HasYear {
		year := bundle.Match.Year
		match.Year = &year
	}

	return match
}

// insertPlayers stores the roster in original-index order and returns the
// original index -> database id map every later step remaps through.
func insertPlayers(ctx context.Context, repo repository.PlayerRepository,
	bundle *saveparser.Bundle, matchID int64) (map[int]int64, error) {

	idMap := make(map[int]int64, len(bundle.Players))
	for i, info := range bundle.Players {
		player := &models.Player{
			MatchID:        matchID,
			OriginalIndex:  i + 1,
			Name:           info.Name,
			NormalizedName: NormalizeName(info.Name),
			IsHuman:        info.IsHuman,
		}
		player.Civilization = optionalString(info.Civilization)
		player.OnlineID = optionalString(info.OnlineID)
		if info.Team != 0 {
			team := info.Team
			player.Team = &team
		}
		score := info.Score
		player.Score = &score

		if err := repo.Create(ctx, player); err != nil {
			return nil, err
		}
		idMap[i+1] = player.ID
	}

	return idMap, nil
}

func insertMetadata(ctx context.Context, matches repository.MatchRepository,
	bundle *saveparser.Bundle, matchID int64) error {

	m := bundle.Metadata
	if m.Difficulty == "" && m.VictoryTurn == 0 && m.GameOptions == "" && m.DLC == "" && m.MapSettings == "" {
		// Older saves carry no metadata section at all.
		return nil
	}

	meta := &models.MatchMetadata{MatchID: matchID}
	meta.Difficulty = optionalString(m.Difficulty)
	meta.GameOptions = optionalString(m.GameOptions)
	meta.DLC = optionalString(m.DLC)
	meta.MapSettings = optionalString(m.MapSettings)
	if m.VictoryTurn > 0 {
		turn := m.VictoryTurn
		meta.VictoryTurn = &turn
	}

	return matches.CreateMetadata(ctx, meta)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
