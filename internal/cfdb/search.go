package cfdb

import (
	"fmt"
	"strconv"
	"strings"
)

// MatchKind selects the comparison a Criterion performs.
type MatchKind int

const (
	Equals MatchKind = iota
	StartsWith
	Contains
)

// Field identifies which game/dimension column a Criterion targets.
type Field int

const (
	FieldWhite Field = iota
	FieldBlack
	FieldPlayer // white OR black
	FieldEvent
	FieldSite
	FieldAnnotator
	FieldECO
	FieldDate // YYYYMMDD, YYYYMM (month range), or YYYY (year range)
	FieldResult
)

// Criterion is one search predicate.
type Criterion struct {
	Field         Field
	Match         MatchKind
	Value         string
	CaseInsensitive bool
}

// SortField identifies a column the result set may be ordered by.
type SortField int

const (
	SortGameID SortField = iota
	SortDate
	SortWhite
	SortBlack
	SortECO
)

// SortCriterion is one ORDER BY clause entry.
type SortCriterion struct {
	Field      SortField
	Descending bool
}

var fieldColumn = map[Field]string{
	FieldWhite:     "w.last_name || ', ' || w.first_names",
	FieldBlack:     "b.last_name || ', ' || b.first_names",
	FieldEvent:     "ev.name",
	FieldSite:      "si.name",
	FieldAnnotator: "an.name",
	FieldECO:       "game.eco",
	FieldResult:    "game.result",
}

var sortColumn = map[SortField]string{
	SortGameID: "game.game_id",
	SortDate:   "game.date",
	SortWhite:  "w.last_name",
	SortBlack:  "b.last_name",
	SortECO:    "game.eco",
}

// Search builds and runs a single parameterized query over criteria, sorted
// by sorts (defaulting to game_id ASC when sorts is empty), skipping offset
// rows and returning at most limit (0 = unlimited). cb is called with each
// matching game_id in order; returning false stops the search (not an
// error).
func (db *DB) Search(criteria []Criterion, sorts []SortCriterion, offset, limit int, cb func(gameID int64) bool) error {
	needsPlayers := false
	needsEvent := false
	needsSite := false
	needsAnnotator := false
	for _, c := range criteria {
		switch c.Field {
		case FieldWhite, FieldBlack, FieldPlayer:
			needsPlayers = true
		case FieldEvent:
			needsEvent = true
		case FieldSite:
			needsSite = true
		case FieldAnnotator:
			needsAnnotator = true
		}
	}
	for _, s := range sorts {
		if s.Field == SortWhite || s.Field == SortBlack {
			needsPlayers = true
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT game.game_id FROM game")
	if needsPlayers {
		sb.WriteString(" LEFT JOIN player w ON w.player_id = game.white_player_id")
		sb.WriteString(" LEFT JOIN player b ON b.player_id = game.black_player_id")
	}
	if needsEvent {
		sb.WriteString(" LEFT JOIN event ev ON ev.event_id = game.event_id")
	}
	if needsSite {
		sb.WriteString(" LEFT JOIN site si ON si.site_id = game.site_id")
	}
	if needsAnnotator {
		sb.WriteString(" LEFT JOIN annotator an ON an.annotator_id = game.annotator_id")
	}

	var args []any
	var where []string
	for _, c := range criteria {
		clause, clauseArgs, err := c.buildClause()
		if err != nil {
			return err
		}
		where = append(where, clause)
		args = append(args, clauseArgs...)
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	if len(sorts) == 0 {
		sb.WriteString(" ORDER BY game.game_id ASC")
	} else {
		var order []string
		for _, s := range sorts {
			col := sortColumn[s.Field]
			if s.Descending {
				col += " DESC"
			} else {
				col += " ASC"
			}
			order = append(order, col)
		}
		sb.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}

	if limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, offset)
	} else if offset > 0 {
		sb.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, offset)
	}

	rows, err := db.sql.Query(sb.String(), args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		if !cb(id) {
			return nil
		}
	}
	return rows.Err()
}

func (c Criterion) buildClause() (string, []any, error) {
	if c.Field == FieldDate {
		return c.dateClause()
	}
	if c.Field == FieldPlayer {
		w, wArgs, err := (Criterion{Field: FieldWhite, Match: c.Match, Value: c.Value, CaseInsensitive: c.CaseInsensitive}).buildClause()
		if err != nil {
			return "", nil, err
		}
		b, bArgs, err := (Criterion{Field: FieldBlack, Match: c.Match, Value: c.Value, CaseInsensitive: c.CaseInsensitive}).buildClause()
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("(%s OR %s)", w, b), append(wArgs, bArgs...), nil
	}

	col, ok := fieldColumn[c.Field]
	if !ok {
		return "", nil, fmt.Errorf("cfdb: field %v has no column mapping", c.Field)
	}

	lhs := col
	val := c.Value
	if c.CaseInsensitive {
		lhs = "UPPER(" + col + ")"
		val = strings.ToUpper(val)
	}

	switch c.Match {
	case Equals:
		return lhs + " = ?", []any{val}, nil
	case StartsWith:
		return lhs + " LIKE ? || '%'", []any{val}, nil
	case Contains:
		return lhs + " LIKE '%' || ? || '%'", []any{val}, nil
	default:
		return "", nil, fmt.Errorf("cfdb: unknown match kind %v", c.Match)
	}
}

// dateClause implements the date predicate's three granularities: an
// 8-digit value matches the exact date, a 6-digit value matches the whole
// month, a 4-digit value matches the whole year. Only equals semantics are
// supported for dates.
func (c Criterion) dateClause() (string, []any, error) {
	digits := c.Value
	n, err := strconv.Atoi(digits)
	if err != nil {
		return "", nil, fmt.Errorf("cfdb: date criterion %q is not numeric", digits)
	}
	switch len(digits) {
	case 8:
		return "game.date = ?", []any{n}, nil
	case 6:
		lo := n * 100
		return "game.date >= ? AND game.date < ?", []any{lo, lo + 100}, nil
	case 4:
		lo := n * 10000
		return "game.date >= ? AND game.date < ?", []any{lo, lo + 10000}, nil
	default:
		return "", nil, fmt.Errorf("cfdb: date criterion %q must be YYYY, YYYYMM, or YYYYMMDD", digits)
	}
}
