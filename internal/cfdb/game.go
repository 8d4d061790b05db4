package cfdb

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/chesscore/chesscore/internal/game"
	"github.com/chesscore/chesscore/internal/movecodec"
	"github.com/chesscore/chesscore/internal/movetree"
	"github.com/chesscore/chesscore/internal/position"
	"github.com/chesscore/chesscore/internal/timecontrol"
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// dimensionID looks up id by natural key in table/keyCol, inserting a new
// row if absent. extraCols/extraArgs supply any additional columns the
// table requires beyond the natural key (e.g. player's first_names).
func dimensionID(tx *sql.Tx, table, keyCol, key string, extraCols []string, extraArgs []any) (int64, error) {
	if key == "" {
		return 0, nil
	}
	var id int64
	row := tx.QueryRow(fmt.Sprintf(`SELECT rowid FROM %s WHERE %s = ?`, table, keyCol), key)
	err := row.Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	cols := append([]string{keyCol}, extraCols...)
	args := append([]any{key}, extraArgs...)
	placeholders := "?"
	for range extraCols {
		placeholders += ",?"
	}
	res, err := tx.Exec(fmt.Sprintf(`INSERT INTO %s(%s) VALUES(%s)`, table, joinCols(cols), placeholders), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func joinCols(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += "," + c
	}
	return out
}

// playerID looks up or inserts a player keyed by (last_name, first_names).
func playerID(tx *sql.Tx, fullName string) (int64, error) {
	if fullName == "" {
		return 0, nil
	}
	last, first := splitPlayerName(fullName)
	var id int64
	err := tx.QueryRow(`SELECT player_id FROM player WHERE last_name = ? AND first_names = ?`, last, first).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.Exec(`INSERT INTO player(last_name, first_names) VALUES(?, ?)`, last, first)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// splitPlayerName splits a PGN-style "Last, First" name; names without a
// comma are stored entirely as last_name, matching how an ungrouped
// single-word tag value (e.g. a club or computer name) should round-trip.
func splitPlayerName(full string) (last, first string) {
	for i := 0; i < len(full); i++ {
		if full[i] == ',' {
			last = full[:i]
			first = trimLeadingSpace(full[i+1:])
			return
		}
	}
	return full, ""
}

func trimLeadingSpace(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	return s
}

func joinPlayerName(last, first string) string {
	if first == "" {
		return last
	}
	return last + ", " + first
}

// WriteGame inserts g as a new row (gameID == 0) or updates an existing one,
// looking up/creating dimension rows within one transaction. It commits on
// success and rolls back on any failure.
func (db *DB) WriteGame(g *game.Game, gameID int64) (int64, error) {
	tx, err := db.sql.Begin()
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	whiteID, err := playerID(tx, g.Roster.White)
	if err != nil {
		return 0, err
	}
	blackID, err := playerID(tx, g.Roster.Black)
	if err != nil {
		return 0, err
	}
	eventID, err := dimensionID(tx, "event", "name", g.Roster.Event, nil, nil)
	if err != nil {
		return 0, err
	}
	siteID, err := dimensionID(tx, "site", "name", g.Roster.Site, nil, nil)
	if err != nil {
		return 0, err
	}
	annotatorID, err := dimensionID(tx, "annotator", "name", g.Roster.Annotator, nil, nil)
	if err != nil {
		return 0, err
	}

	moves, annotations, err := movecodec.Encode(g.Tree, g.Tree.Root, g.Start)
	if err != nil {
		return 0, err
	}

	var tcBlob []byte
	if len(g.Roster.TimeControl.Periods) > 0 {
		tcBlob = g.Roster.TimeControl.ToBlob()
	}

	var partial []byte
	if g.Start != nil && g.Start.ToFEN() != position.StartFEN {
		b := g.Start.ToBlob()
		partial = b[:]
	}

	halfmoves := mainlineLength(g.Tree)
	dateInt := g.Roster.Year*10000 + g.Roster.Month*100 + g.Roster.Day

	if gameID == 0 {
		res, err := tx.Exec(`INSERT INTO game(
			white_player_id, black_player_id, event_id, site_id, date,
			round_major, round_minor, result, annotator_id, eco,
			white_elo, black_elo, time_control, halfmoves, partial, moves, annotations
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			nullableID(whiteID), nullableID(blackID), nullableID(eventID), nullableID(siteID), dateInt,
			g.Roster.RoundMajor, g.Roster.RoundMinor, int(g.Roster.Result), nullableID(annotatorID), g.Roster.ECO,
			g.Roster.WhiteElo, g.Roster.BlackElo, tcBlob, halfmoves, partial, moves, annotations)
		if err != nil {
			return 0, err
		}
		gameID, err = res.LastInsertId()
		if err != nil {
			return 0, err
		}
	} else {
		_, err = tx.Exec(`UPDATE game SET
			white_player_id=?, black_player_id=?, event_id=?, site_id=?, date=?,
			round_major=?, round_minor=?, result=?, annotator_id=?, eco=?,
			white_elo=?, black_elo=?, time_control=?, halfmoves=?, partial=?, moves=?, annotations=?
			WHERE game_id = ?`,
			nullableID(whiteID), nullableID(blackID), nullableID(eventID), nullableID(siteID), dateInt,
			g.Roster.RoundMajor, g.Roster.RoundMinor, int(g.Roster.Result), nullableID(annotatorID), g.Roster.ECO,
			g.Roster.WhiteElo, g.Roster.BlackElo, tcBlob, halfmoves, partial, moves, annotations, gameID)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return gameID, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// mainlineLength counts the plies on g's mainline (following Next only,
// ignoring variations), which is what the "halfmoves" column records.
func mainlineLength(tree *movetree.Tree) int {
	n := 0
	for id := tree.Root; id != movetree.NoNode; {
		node := tree.Node(id)
		if node == nil {
			break
		}
		n++
		id = node.Next
	}
	return n
}

// ReadGame loads game_id, resolving dimension rows to names and rehydrating
// the move tree from the moves/annotations blobs. Missing dimension rows
// yield empty strings.
func (db *DB) ReadGame(gameID int64) (*game.Game, error) {
	var (
		whiteID, blackID, eventID, siteID, annotatorID sql.NullInt64
		dateInt                                        int
		roundMajor, roundMinor, result                 int
		eco                                             string
		whiteElo, blackElo                             int
		tcBlob, partial, moves, annotations             []byte
	)
	row := db.sql.QueryRow(`SELECT white_player_id, black_player_id, event_id, site_id, date,
		round_major, round_minor, result, annotator_id, eco, white_elo, black_elo,
		time_control, partial, moves, annotations FROM game WHERE game_id = ?`, gameID)
	if err := row.Scan(&whiteID, &blackID, &eventID, &siteID, &dateInt,
		&roundMajor, &roundMinor, &result, &annotatorID, &eco, &whiteElo, &blackElo,
		&tcBlob, &partial, &moves, &annotations); err != nil {
		return nil, err
	}

	var start *position.Position
	if len(partial) == position.BlobSize {
		var blob [position.BlobSize]byte
		copy(blob[:], partial)
		p, err := position.FromBlob(blob)
		if err != nil {
			return nil, fmt.Errorf("cfdb: decoding partial-start blob: %w", err)
		}
		start = p
	} else {
		start = position.NewPosition()
	}

	g := game.FromPosition(start)
	g.Roster.White = lookupPlayerName(db, whiteID)
	g.Roster.Black = lookupPlayerName(db, blackID)
	g.Roster.Event = lookupSimpleName(db, "event", eventID)
	g.Roster.Site = lookupSimpleName(db, "site", siteID)
	g.Roster.Annotator = lookupSimpleName(db, "annotator", annotatorID)
	g.Roster.ECO = eco
	g.Roster.WhiteElo = whiteElo
	g.Roster.BlackElo = blackElo
	g.Roster.Result = game.Result(result)
	g.Roster.Year = dateInt / 10000
	g.Roster.Month = (dateInt / 100) % 100
	g.Roster.Day = dateInt % 100
	g.Roster.RoundMajor = roundMajor
	g.Roster.RoundMinor = roundMinor

	if len(tcBlob) > 0 {
		tc, err := timecontrol.TimeControlFromBlob(tcBlob)
		if err != nil {
			return nil, fmt.Errorf("cfdb: decoding time_control blob: %w", err)
		}
		g.Roster.TimeControl = tc
	}

	if len(moves) > 0 {
		working := *start
		err := movecodec.Decode(moves, annotations, &working, g, func(m position.Move, pre, post string, nags []uint8) error {
			id, err := g.MakeMove(m)
			if err != nil {
				return err
			}
			node := g.Tree.Node(id)
			node.PreComment = pre
			node.PostComment = post
			for _, n := range nags {
				if node.NAGCount < movetree.MaxNAGs {
					node.NAGs[node.NAGCount] = n
					node.NAGCount++
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cfdb: decoding move stream: %w", err)
		}
	}

	return g, nil
}

func lookupPlayerName(db *DB, id sql.NullInt64) string {
	if !id.Valid {
		return ""
	}
	var last, first string
	err := db.sql.QueryRow(`SELECT last_name, first_names FROM player WHERE player_id = ?`, id.Int64).Scan(&last, &first)
	if err != nil {
		return ""
	}
	return joinPlayerName(last, first)
}

func lookupSimpleName(db *DB, table string, id sql.NullInt64) string {
	if !id.Valid {
		return ""
	}
	var name string
	query := fmt.Sprintf(`SELECT name FROM %s WHERE rowid = ?`, table)
	if err := db.sql.QueryRow(query, id.Int64).Scan(&name); err != nil {
		return ""
	}
	return name
}
