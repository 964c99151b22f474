package etl

import (
	"fmt"

	"github.com/oldworldstats/save-importer/internal/saveparser"
	"github.com/oldworldstats/save-importer/internal/storage/models"
)

// playerRemap translates 1-based original player indices from a parsed
// bundle into database ids. Required references outside the roster fail the
// whole file; optional references outside the roster become nulls.
type playerRemap struct {
	fileName string
	idMap    map[int]int64
	count    int
}

func newPlayerRemap(fileName string, idMap map[int]int64, count int) *playerRemap {
	return &playerRemap{fileName: fileName, idMap: idMap, count: count}
}

// required resolves an index that every row of its kind must carry.
func (r *playerRemap) required(index int, kind string) (int64, error) {
	id, ok := r.idMap[index]
	if !ok {
		return 0, fmt.Errorf("%s references player index %d outside roster of %d in %s",
			kind, index, r.count, r.fileName)
	}
	return id, nil
}

// optional resolves an index that may legitimately be absent or stale.
// Index 0 means no player; an out-of-range index is dropped to nil.
func (r *playerRemap) optional(index int) *int64 {
	if index == 0 {
		return nil
	}
	id, ok := r.idMap[index]
	if !ok {
		return nil
	}
	return &id
}

func buildEvents(bundle *saveparser.Bundle, matchID int64, remap *playerRemap) []*models.Event {
	rows := make([]*models.Event, 0, len(bundle.Events))
	for _, e := range bundle.Events {
		event := &models.Event{
			MatchID:    matchID,
			TurnNumber: e.Turn,
			EventType:  e.Type,
			PlayerID:   remap.optional(e.PlayerIndex),
		}
		if e.HasCoords {
			x, y := e.X, e.Y
			event.X = &x
			event.Y = &y
		}
		if e.Payload != "" {
			payload := e.Payload
			event.Payload = &payload
		}
		rows = append(rows, event)
	}
	return rows
}

func buildTerritories(bundle *saveparser.Bundle, matchID int64, remap *playerRemap) []*models.Territory {
	rows := make([]*models.Territory, 0, len(bundle.Territories))
	for _, t := range bundle.Territories {
		territory := &models.Territory{
			MatchID:       matchID,
			X:             t.X,
			Y:             t.Y,
			TurnNumber:    t.Turn,
			OwnerPlayerID: remap.optional(t.OwnerIndex),
			Road:          t.Road,
		}
		territory.Terrain = optionalString(t.Terrain)
		territory.Improvement = optionalString(t.Improvement)
		territory.Specialist = optionalString(t.Specialist)
		territory.Resource = optionalString(t.Resource)
		rows = append(rows, territory)
	}
	return rows
}

func buildResources(bundle *saveparser.Bundle, matchID int64, remap *playerRemap) ([]*models.Resource, error) {
	rows := make([]*models.Resource, 0, len(bundle.Yields))
	for _, y := range bundle.Yields {
		playerID, err := remap.required(y.PlayerIndex, "yield series")
		if err != nil {
			return nil, err
		}
		rows = append(rows, &models.Resource{
			MatchID:      matchID,
			PlayerID:     playerID,
			TurnNumber:   y.Turn,
			ResourceType: y.ResourceType,
			Amount:       y.Amount,
		})
	}
	return rows, nil
}

func buildTechnology(bundle *saveparser.Bundle, matchID int64, remap *playerRemap) ([]*models.TechnologyProgress, error) {
	rows := make([]*models.TechnologyProgress, 0, len(bundle.TechCounts))
	for _, t := range bundle.TechCounts {
		playerID, err := remap.required(t.PlayerIndex, "technology count")
		if err != nil {
			return nil, err
		}
		rows = append(rows, &models.TechnologyProgress{
			MatchID:  matchID,
			PlayerID: playerID,
			TechName: t.TechName,
			Count:    t.Count,
		})
	}
	return rows, nil
}

func buildStatistics(bundle *saveparser.Bundle, matchID int64, remap *playerRemap) ([]*models.PlayerStatistic, error) {
	rows := make([]*models.PlayerStatistic, 0, len(bundle.StatCounts))
	for _, s := range bundle.StatCounts {
		playerID, err := remap.required(s.PlayerIndex, "statistic")
		if err != nil {
			return nil, err
		}
		rows = append(rows, &models.PlayerStatistic{
			MatchID:      matchID,
			PlayerID:     playerID,
			StatCategory: s.Category,
			StatName:     s.Name,
			Value:        s.Value,
		})
	}
	return rows, nil
}

func buildUnitsProduced(bundle *saveparser.Bundle, matchID int64, remap *playerRemap) ([]*models.UnitProduced, error) {
	rows := make([]*models.UnitProduced, 0, len(bundle.UnitCounts))
	for _, u := range bundle.UnitCounts {
		playerID, err := remap.required(u.PlayerIndex, "unit count")
		if err != nil {
			return nil, err
		}
		rows = append(rows, &models.UnitProduced{
			MatchID:  matchID,
			PlayerID: playerID,
			UnitType: u.UnitType,
			Count:    u.Count,
		})
	}
	return rows, nil
}

func buildRulers(bundle *saveparser.Bundle, matchID int64, remap *playerRemap) ([]*models.Ruler, error) {
	rows := make([]*models.Ruler, 0, len(bundle.Rulers))
	for _, r := range bundle.Rulers {
		playerID, err := remap.required(r.PlayerIndex, "ruler succession")
		if err != nil {
			return nil, err
		}
		ruler := &models.Ruler{
			MatchID:         matchID,
			PlayerID:        playerID,
			CharacterID:     r.CharacterID,
			SuccessionOrder: r.SuccessionOrder,
			SuccessionTurn:  r.SuccessionTurn,
		}
		ruler.Name = optionalString(r.Name)
		ruler.Archetype = optionalString(r.Archetype)
		ruler.StartingTrait = optionalString(r.StartingTrait)
		rows = append(rows, ruler)
	}
	return rows, nil
}

func buildTurnHistory(points []saveparser.HistoryPoint, matchID int64,
	remap *playerRemap, kind string) ([]*models.TurnHistory, error) {

	rows := make([]*models.TurnHistory, 0, len(points))
	for _, p := range points {
		playerID, err := remap.required(p.PlayerIndex, kind+" history")
		if err != nil {
			return nil, err
		}
		rows = append(rows, &models.TurnHistory{
			MatchID:    matchID,
			PlayerID:   playerID,
			TurnNumber: p.Turn,
			Value:      p.Value,
		})
	}
	return rows, nil
}

func buildOpinionHistory(points []saveparser.OpinionPoint, matchID int64,
	remap *playerRemap, kind string) ([]*models.OpinionHistory, error) {

	rows := make([]*models.OpinionHistory, 0, len(points))
	for _, p := range points {
		playerID, err := remap.required(p.PlayerIndex, kind+" history")
		if err != nil {
			return nil, err
		}
		rows = append(rows, &models.OpinionHistory{
			MatchID:    matchID,
			PlayerID:   playerID,
			SubKey:     p.SubKey,
			TurnNumber: p.Turn,
			Value:      p.Value,
		})
	}
	return rows, nil
}

func buildGameStates(bundle *saveparser.Bundle, matchID int64, remap *playerRemap) []*models.GameState {
	rows := make([]*models.GameState, 0, len(bundle.GameStates))
	for _, g := range bundle.GameStates {
		state := &models.GameState{
			MatchID:        matchID,
			TurnNumber:     g.Turn,
			ActivePlayerID: remap.optional(g.ActivePlayerIndex),
		}
		if g.HasYear {
			year := g.Year
			state.Year = &year
		}
		rows = append(rows, state)
	}
	return rows
}
