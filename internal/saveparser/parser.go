package saveparser

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// ParseError indicates a malformed archive or save document. It always
// carries the path of the offending file.
type ParseError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Path, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// rootElement is the expected document root of a save.
const rootElement = "GameSave"

// ParseArchive opens the save archive at path and decodes its embedded XML
// document into a Bundle. Missing optional sections yield empty lists; a
// malformed container, missing required root attributes or an unparsable
// document fail with a *ParseError.
func ParseArchive(path string) (*Bundle, error) {
	doc, closeArchive, err := openSaveDocument(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = closeArchive()
	}()
	defer func() {
		_ = doc.Close()
	}()

	bundle, err := parseDocument(path, doc)
	if err != nil {
		return nil, err
	}

	if err := validateBundle(path, bundle); err != nil {
		return nil, err
	}

	return bundle, nil
}

// Intermediate XML shapes. The decoder only materializes one top-level
// element at a time, so document size is bounded by its largest element,
// not the whole save.
type xmlPoint struct {
	Turn  int    `xml:"Turn,attr"`
	Value string `xml:"Value,attr"`
}

type xmlPlayer struct {
	Name         string `xml:"Name,attr"`
	Civilization string `xml:"Civilization,attr"`
	Team         int    `xml:"Team,attr"`
	OnlineID     string `xml:"OnlineID,attr"`
	Human        bool   `xml:"Human,attr"`
	Score        int    `xml:"Score,attr"`
}

type xmlWinner struct {
	Player int `xml:"Player,attr"`
}

type xmlTile struct {
	X           int        `xml:"X,attr"`
	Y           int        `xml:"Y,attr"`
	Terrain     string     `xml:"Terrain,attr"`
	Owner       []xmlPoint `xml:"OwnerHistory>T"`
	Improvement []xmlPoint `xml:"ImprovementHistory>T"`
	Specialist  []xmlPoint `xml:"SpecialistHistory>T"`
	Road        []xmlPoint `xml:"RoadHistory>T"`
	Resource    string     `xml:"Resource"`
}

type xmlLogEntry struct {
	Turn   int    `xml:"Turn,attr"`
	Type   string `xml:"Type,attr"`
	Player int    `xml:"Player,attr"`
	X      *int   `xml:"X,attr"`
	Y      *int   `xml:"Y,attr"`
	Text   string `xml:",chardata"`
}

type xmlKeyedSeries struct {
	Family   string     `xml:"Family,attr"`
	Religion string     `xml:"Religion,attr"`
	Points   []xmlPoint `xml:"T"`
}

type xmlYieldSeries struct {
	Type   string     `xml:"Type,attr"`
	Points []xmlPoint `xml:"T"`
}

type xmlPlayerHistory struct {
	Player           int              `xml:"Player,attr"`
	Points           []xmlPoint       `xml:"Points>T"`
	Military         []xmlPoint       `xml:"Military>T"`
	Legitimacy       []xmlPoint       `xml:"Legitimacy>T"`
	FamilyOpinions   []xmlKeyedSeries `xml:"FamilyOpinion"`
	ReligionOpinions []xmlKeyedSeries `xml:"ReligionOpinion"`
	Yields           []xmlYieldSeries `xml:"Yield"`
}

type xmlRuler struct {
	Character int64  `xml:"Character,attr"`
	Name      string `xml:"Name,attr"`
	Archetype string `xml:"Archetype,attr"`
	Trait     string `xml:"Trait,attr"`
	Turn      int    `xml:"Turn,attr"`
}

type xmlSuccession struct {
	Player int        `xml:"Player,attr"`
	Rulers []xmlRuler `xml:"Ruler"`
}

type xmlTechCount struct {
	Player int    `xml:"Player,attr"`
	Tech   string `xml:"Tech,attr"`
	Count  int    `xml:"Count,attr"`
}

type xmlStatCount struct {
	Player   int     `xml:"Player,attr"`
	Category string  `xml:"Category,attr"`
	Stat     string  `xml:"Stat,attr"`
	Value    float64 `xml:"Value,attr"`
}

type xmlUnitCount struct {
	Player int    `xml:"Player,attr"`
	Unit   string `xml:"Unit,attr"`
	Count  int    `xml:"Count,attr"`
}

type xmlTurnSummary struct {
	Turn         int  `xml:"Turn,attr"`
	Year         *int `xml:"Year,attr"`
	ActivePlayer int  `xml:"ActivePlayer,attr"`
}

// parseDocument streams the save document, decoding one top-level element at
// a time. Unknown elements are skipped so newer game versions keep importing.
func parseDocument(path string, r io.Reader) (*Bundle, error) {
	decoder := xml.NewDecoder(r)
	bundle := &Bundle{}

	root, err := findRoot(decoder)
	if err != nil {
		return nil, &ParseError{Path: path, Msg: "unparsable save document", Err: err}
	}
	if root.Name.Local != rootElement {
		return nil, &ParseError{
			Path: path,
			Msg:  fmt.Sprintf("unexpected document root %q", root.Name.Local),
		}
	}

	if err := parseRootAttrs(root, bundle); err != nil {
		return nil, &ParseError{Path: path, Msg: "bad root attributes", Err: err}
	}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Path: path, Msg: "unparsable save document", Err: err}
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		if err := parseElement(decoder, start, bundle); err != nil {
			return nil, &ParseError{
				Path: path,
				Msg:  fmt.Sprintf("bad %s element", start.Name.Local),
				Err:  err,
			}
		}
	}

	return bundle, nil
}

// findRoot advances the decoder to the document's root element.
func findRoot(decoder *xml.Decoder) (xml.StartElement, error) {
	for {
		token, err := decoder.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if start, ok := token.(xml.StartElement); ok {
			return start, nil
		}
	}
}

func parseRootAttrs(root xml.StartElement, bundle *Bundle) error {
	for _, attr := range root.Attr {
		var err error
		switch attr.Name.Local {
		case "GameName":
			bundle.Match.GameName = attr.Value
		case "MapWidth":
			bundle.Match.MapWidth, err = strconv.Atoi(attr.Value)
		case "MapHeight":
			bundle.Match.MapHeight, err = strconv.Atoi(attr.Value)
		case "Turns":
			bundle.Match.TotalTurns, err = strconv.Atoi(attr.Value)
		case "Year":
			bundle.Match.Year, err = strconv.Atoi(attr.Value)
			bundle.Match.HasYear = err == nil
		case "MapSize":
			bundle.Match.MapSize = attr.Value
		case "MapClass":
			bundle.Match.MapClass = attr.Value
		case "MapAspect":
			bundle.Match.MapAspect = attr.Value
		case "TurnStyle":
			bundle.Match.TurnStyle = attr.Value
		case "TurnTimer":
			bundle.Match.TurnTimer, err = strconv.Atoi(attr.Value)
		case "Victory":
			bundle.Match.VictoryConditions = attr.Value
		case "Difficulty":
			bundle.Metadata.Difficulty = attr.Value
		case "VictoryTurn":
			bundle.Metadata.VictoryTurn, err = strconv.Atoi(attr.Value)
		}
		if err != nil {
			return fmt.Errorf("attribute %s=%q: %w", attr.Name.Local, attr.Value, err)
		}
	}

	if bundle.Match.MapWidth <= 0 || bundle.Match.MapHeight <= 0 {
		return fmt.Errorf("missing or invalid map dimensions (%dx%d)",
			bundle.Match.MapWidth, bundle.Match.MapHeight)
	}
	if bundle.Match.TotalTurns < 0 {
		return fmt.Errorf("negative turn count %d", bundle.Match.TotalTurns)
	}

	return nil
}

func parseElement(decoder *xml.Decoder, start xml.StartElement, bundle *Bundle) error {
	switch start.Name.Local {
	case "Player":
		var p xmlPlayer
		if err := decoder.DecodeElement(&p, &start); err != nil {
			return err
		}
		bundle.Players = append(bundle.Players, PlayerInfo{
			Name:         p.Name,
			Civilization: p.Civilization,
			Team:         p.Team,
			OnlineID:     p.OnlineID,
			Score:        p.Score,
			IsHuman:      p.Human,
		})

	case "Winner":
		var w xmlWinner
		if err := decoder.DecodeElement(&w, &start); err != nil {
			return err
		}
		bundle.WinnerIndex = w.Player

	case "Tile":
		var tile xmlTile
		if err := decoder.DecodeElement(&tile, &start); err != nil {
			return err
		}
		if err := expandTile(&tile, bundle); err != nil {
			return err
		}

	case "LogEntry":
		var entry xmlLogEntry
		if err := decoder.DecodeElement(&entry, &start); err != nil {
			return err
		}
		event := EventInfo{
			Turn:        entry.Turn,
			Type:        entry.Type,
			PlayerIndex: entry.Player,
			Payload:     entry.Text,
		}
		if entry.X != nil && entry.Y != nil {
			event.X = *entry.X
			event.Y = *entry.Y
			event.HasCoords = true
		}
		bundle.Events = append(bundle.Events, event)

	case "PlayerHistory":
		var history xmlPlayerHistory
		if err := decoder.DecodeElement(&history, &start); err != nil {
			return err
		}
		if err := expandPlayerHistory(&history, bundle); err != nil {
			return err
		}

	case "Succession":
		var succession xmlSuccession
		if err := decoder.DecodeElement(&succession, &start); err != nil {
			return err
		}
		for order, ruler := range succession.Rulers {
			bundle.Rulers = append(bundle.Rulers, RulerInfo{
				PlayerIndex:     succession.Player,
				CharacterID:     ruler.Character,
				Name:            ruler.Name,
				Archetype:       ruler.Archetype,
				StartingTrait:   ruler.Trait,
				SuccessionOrder: order,
				SuccessionTurn:  ruler.Turn,
			})
		}

	case "TechCount":
		var tech xmlTechCount
		if err := decoder.DecodeElement(&tech, &start); err != nil {
			return err
		}
		bundle.TechCounts = append(bundle.TechCounts, TechCount{
			PlayerIndex: tech.Player,
			TechName:    tech.Tech,
			Count:       tech.Count,
		})

	case "StatCount":
		var stat xmlStatCount
		if err := decoder.DecodeElement(&stat, &start); err != nil {
			return err
		}
		bundle.StatCounts = append(bundle.StatCounts, StatCount{
			PlayerIndex: stat.Player,
			Category:    stat.Category,
			Name:        stat.Stat,
			Value:       stat.Value,
		})

	case "UnitCount":
		var unit xmlUnitCount
		if err := decoder.DecodeElement(&unit, &start); err != nil {
			return err
		}
		bundle.UnitCounts = append(bundle.UnitCounts, UnitCount{
			PlayerIndex: unit.Player,
			UnitType:    unit.Unit,
			Count:       unit.Count,
		})

	case "TurnSummary":
		var summary xmlTurnSummary
		if err := decoder.DecodeElement(&summary, &start); err != nil {
			return err
		}
		state := GameStateInfo{
			Turn:              summary.Turn,
			ActivePlayerIndex: summary.ActivePlayer,
		}
		if summary.Year != nil {
			state.Year = *summary.Year
			state.HasYear = true
		}
		bundle.GameStates = append(bundle.GameStates, state)

	case "GameOptions":
		return decodeText(decoder, &start, &bundle.Metadata.GameOptions)
	case "DLC":
		return decodeText(decoder, &start, &bundle.Metadata.DLC)
	case "MapSettings":
		return decodeText(decoder, &start, &bundle.Metadata.MapSettings)

	default:
		// Unknown element from a newer or older game version.
		return decoder.Skip()
	}

	return nil
}

func decodeText(decoder *xml.Decoder, start *xml.StartElement, dst *string) error {
	var text string
	if err := decoder.DecodeElement(&text, start); err != nil {
		return err
	}
	*dst = text
	return nil
}

// expandTile produces one TerritoryInfo per turn 1..TotalTurns by
// forward-filling the tile's per-turn attribute histories: a value set at
// turn k holds from turn k until the next entry.
func expandTile(tile *xmlTile, bundle *Bundle) error {
	owner := sortedPoints(tile.Owner)
	improvement := sortedPoints(tile.Improvement)
	specialist := sortedPoints(tile.Specialist)
	road := sortedPoints(tile.Road)

	var (
		ownerIdx, oi       = 0, 0
		improvementVal, ii = "", 0
		specialistVal, si  = "", 0
		roadVal, ri        = false, 0
	)

	for turn := 1; turn <= bundle.Match.TotalTurns; turn++ {
		for oi < len(owner) && owner[oi].Turn <= turn {
			parsed, err := strconv.Atoi(owner[oi].Value)
			if err != nil {
				return fmt.Errorf("tile (%d,%d) owner value %q: %w", tile.X, tile.Y, owner[oi].Value, err)
			}
			ownerIdx = parsed
			oi++
		}
		for ii < len(improvement) && improvement[ii].Turn <= turn {
			improvementVal = improvement[ii].Value
			ii++
		}
		for si < len(specialist) && specialist[si].Turn <= turn {
			specialistVal = specialist[si].Value
			si++
		}
		for ri < len(road) && road[ri].Turn <= turn {
			switch road[ri].Value {
			case "1", "true":
				roadVal = true
			case "0", "false":
				roadVal = false
			default:
				return fmt.Errorf("tile (%d,%d) road value %q is not a boolean", tile.X, tile.Y, road[ri].Value)
			}
			ri++
		}

		bundle.Territories = append(bundle.Territories, TerritoryInfo{
			X:           tile.X,
			Y:           tile.Y,
			Turn:        turn,
			OwnerIndex:  ownerIdx,
			Terrain:     tile.Terrain,
			Improvement: improvementVal,
			Specialist:  specialistVal,
			Resource:    tile.Resource,
			Road:        roadVal,
		})
	}
	return nil
}

func sortedPoints(points []xmlPoint) []xmlPoint {
	sorted := make([]xmlPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Turn < sorted[j].Turn
	})
	return sorted
}

func expandPlayerHistory(history *xmlPlayerHistory, bundle *Bundle) error {
	appendSeries := func(points []xmlPoint, dst *[]HistoryPoint) error {
		for _, p := range points {
			value, err := strconv.ParseFloat(p.Value, 64)
			if err != nil {
				return fmt.Errorf("history value %q: %w", p.Value, err)
			}
			*dst = append(*dst, HistoryPoint{
				PlayerIndex: history.Player,
				Turn:        p.Turn,
				Value:       value,
			})
		}
		return nil
	}

	if err := appendSeries(history.Points, &bundle.Points); err != nil {
		return err
	}
	if err := appendSeries(history.Military, &bundle.Military); err != nil {
		return err
	}
	if err := appendSeries(history.Legitimacy, &bundle.Legitimacy); err != nil {
		return err
	}

	appendOpinions := func(series []xmlKeyedSeries, key func(xmlKeyedSeries) string, dst *[]OpinionPoint) error {
		for _, s := range series {
			for _, p := range s.Points {
				value, err := strconv.ParseFloat(p.Value, 64)
				if err != nil {
					return fmt.Errorf("opinion value %q: %w", p.Value, err)
				}
				*dst = append(*dst, OpinionPoint{
					PlayerIndex: history.Player,
					SubKey:      key(s),
					Turn:        p.Turn,
					Value:       value,
				})
			}
		}
		return nil
	}

	err := appendOpinions(history.FamilyOpinions,
		func(s xmlKeyedSeries) string { return s.Family }, &bundle.FamilyOpinions)
	if err != nil {
		return err
	}
	err = appendOpinions(history.ReligionOpinions,
		func(s xmlKeyedSeries) string { return s.Religion }, &bundle.ReligionOpinions)
	if err != nil {
		return err
	}

	for _, yield := range history.Yields {
		for _, p := range yield.Points {
			value, err := strconv.ParseFloat(p.Value, 64)
			if err != nil {
				return fmt.Errorf("yield value %q: %w", p.Value, err)
			}
			bundle.Yields = append(bundle.Yields, YieldInfo{
				PlayerIndex:  history.Player,
				Turn:         p.Turn,
				ResourceType: yield.Type,
				Amount:       value,
			})
		}
	}

	return nil
}
