package saveparser

import "fmt"

// validateBundle enforces the numeric and structural invariants of a parsed
// bundle. Out-of-range values are an error, never clamped.
func validateBundle(path string, bundle *Bundle) error {
	fail := func(format string, args ...any) error {
		return &ParseError{Path: path, Msg: fmt.Sprintf(format, args...)}
	}

	if len(bundle.Players) == 0 {
		return fail("save document contains no players")
	}

	width, height := bundle.Match.MapWidth, bundle.Match.MapHeight

	for _, event := range bundle.Events {
		if event.Turn < 0 {
			return fail("event %s has negative turn %d", event.Type, event.Turn)
		}
		if event.HasCoords && !inBounds(event.X, event.Y, width, height) {
			return fail("event %s at (%d,%d) outside %dx%d map",
				event.Type, event.X, event.Y, width, height)
		}
	}

	for _, t := range bundle.Territories {
		if t.Turn < 0 {
			return fail("territory (%d,%d) has negative turn %d", t.X, t.Y, t.Turn)
		}
		if !inBounds(t.X, t.Y, width, height) {
			return fail("territory (%d,%d) outside %dx%d map", t.X, t.Y, width, height)
		}
	}

	for _, y := range bundle.Yields {
		if y.Turn < 0 {
			return fail("yield %s has negative turn %d", y.ResourceType, y.Turn)
		}
	}
	for _, p := range bundle.Points {
		if p.Turn < 0 {
			return fail("points history has negative turn %d", p.Turn)
		}
	}
	for _, p := range bundle.Military {
		if p.Turn < 0 {
			return fail("military history has negative turn %d", p.Turn)
		}
	}
	for _, p := range bundle.Legitimacy {
		if p.Turn < 0 {
			return fail("legitimacy history has negative turn %d", p.Turn)
		}
		if p.Value < 0 || p.Value > 100 {
			return fail("legitimacy %g at turn %d outside the 0-100 scale", p.Value, p.Turn)
		}
	}
	for _, o := range bundle.FamilyOpinions {
		if o.Turn < 0 {
			return fail("family opinion %s has negative turn %d", o.SubKey, o.Turn)
		}
		if o.Value < 0 || o.Value > 100 {
			return fail("family opinion %s value %g outside the 0-100 scale", o.SubKey, o.Value)
		}
	}
	for _, o := range bundle.ReligionOpinions {
		if o.Turn < 0 {
			return fail("religion opinion %s has negative turn %d", o.SubKey, o.Turn)
		}
		if o.Value < 0 || o.Value > 100 {
			return fail("religion opinion %s value %g outside the 0-100 scale", o.SubKey, o.Value)
		}
	}

	for _, tech := range bundle.TechCounts {
		if tech.Count < 0 {
			return fail("technology %s has negative count %d", tech.TechName, tech.Count)
		}
	}
	for _, unit := range bundle.UnitCounts {
		if unit.Count < 0 {
			return fail("unit %s has negative count %d", unit.UnitType, unit.Count)
		}
	}

	for _, state := range bundle.GameStates {
		if state.Turn < 0 {
			return fail("turn summary has negative turn %d", state.Turn)
		}
	}

	return validateSuccessions(path, bundle)
}

// validateSuccessions checks the per-player ruler invariants: the founding
// ruler takes the throne on turn 1, later rulers after it, and a character
// never appears twice in one player's succession.
func validateSuccessions(path string, bundle *Bundle) error {
	fail := func(format string, args ...any) error {
		return &ParseError{Path: path, Msg: fmt.Sprintf(format, args...)}
	}

	seen := make(map[int]map[int64]bool)
	for _, ruler := range bundle.Rulers {
		if ruler.SuccessionOrder == 0 && ruler.SuccessionTurn != 1 {
			return fail("player %d founding ruler has succession turn %d, want 1",
				ruler.PlayerIndex, ruler.SuccessionTurn)
		}
		if ruler.SuccessionOrder > 0 && ruler.SuccessionTurn <= 1 {
			return fail("player %d ruler %d (order %d) has succession turn %d, want > 1",
				ruler.PlayerIndex, ruler.CharacterID, ruler.SuccessionOrder, ruler.SuccessionTurn)
		}

		chars := seen[ruler.PlayerIndex]
		if chars == nil {
			chars = make(map[int64]bool)
			seen[ruler.PlayerIndex] = chars
		}
		if chars[ruler.CharacterID] {
			return fail("player %d has duplicate ruler character %d",
				ruler.PlayerIndex, ruler.CharacterID)
		}
		chars[ruler.CharacterID] = true
	}

	return nil
}

func inBounds(x, y, width, height int) bool {
	return x >= 0 && x < width && y >= 0 && y < height
}
