package cfdb

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/chesscore/chesscore/internal/game"
	"github.com/chesscore/chesscore/internal/movetree"
	"github.com/chesscore/chesscore/internal/position"
)

// defaultOpeningTreeWorkers bounds how many games RebuildOpeningTreeRange
// decodes and re-inserts concurrently, so a large range doesn't open one
// goroutine (and one read transaction's worth of memory) per game at once.
const defaultOpeningTreeWorkers = 4

// BuildOpeningTree walks g's mainline from the start position up to depth
// half-moves, inserting one optree row per position reached: (hash, move,
// score, last_move, game_id). last_move is 1 iff the row's move is the last
// one on the mainline (there is no next move). score derives from the
// game's result from white's perspective: white-win=+1, black-win=-1, other
// draw/unfinished=0. Any existing rows for gameID are deleted first.
func (db *DB) BuildOpeningTree(g *game.Game, gameID int64, depth int) error {
	tx, err := db.sql.Begin()
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if _, err := tx.Exec(`DELETE FROM optree WHERE game_id = ?`, gameID); err != nil {
		return err
	}

	var score int
	switch g.Roster.Result {
	case game.WhiteWin:
		score = 1
	case game.BlackWin:
		score = -1
	default:
		score = 0
	}

	pos := *g.Start
	id := g.Tree.Root
	for i := 0; i < depth && id != movetree.NoNode; i++ {
		n := g.Tree.Node(id)
		if n == nil {
			break
		}
		lastMove := 0
		if n.Next == movetree.NoNode {
			lastMove = 1
		}
		idx := legalMoveIndex(&pos, n.Move)
		if idx < 0 {
			break
		}

		if _, err := tx.Exec(`INSERT INTO optree(pos, move, score, last_move, game_id) VALUES (?,?,?,?,?)`,
			int64(pos.Hash), idx, score, lastMove, gameID); err != nil {
			return err
		}
		if _, ok := pos.MakeMove(n.Move); !ok {
			break
		}
		id = n.Next
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DeleteOpeningTreeRange removes all optree rows for game ids in
// [lowID, highID], used before a rebuild of that range.
func (db *DB) DeleteOpeningTreeRange(lowID, highID int64) error {
	_, err := db.sql.Exec(`DELETE FROM optree WHERE game_id BETWEEN ? AND ?`, lowID, highID)
	return err
}

// RebuildOpeningTreeRange deletes and reconstructs every optree row for
// games in [lowID, highID]: it loads each game in the range and re-runs
// BuildOpeningTree against it, up to depth half-moves, fanning the
// per-game decode-and-insert work out across a bounded pool of goroutines
// so a large range doesn't serialize behind SQLite's single-writer lock
// any more than it has to. workers <= 0 selects a small default pool size.
func (db *DB) RebuildOpeningTreeRange(ctx context.Context, lowID, highID int64, depth, workers int) error {
	if err := db.DeleteOpeningTreeRange(lowID, highID); err != nil {
		return fmt.Errorf("cfdb: clearing optree range [%d,%d]: %w", lowID, highID, err)
	}

	ids, err := db.gameIDsInRange(lowID, highID)
	if err != nil {
		return fmt.Errorf("cfdb: listing games in range [%d,%d]: %w", lowID, highID, err)
	}
	if len(ids) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = defaultOpeningTreeWorkers
	}

	sem := semaphore.NewWeighted(int64(workers))
	eg, egCtx := errgroup.WithContext(ctx)
	for _, gameID := range ids {
		gameID := gameID
		if err := sem.Acquire(egCtx, 1); err != nil {
			break
		}
		eg.Go(func() error {
			defer sem.Release(1)
			g, err := db.ReadGame(gameID)
			if err != nil {
				return fmt.Errorf("cfdb: reading game %d: %w", gameID, err)
			}
			if err := db.BuildOpeningTree(g, gameID, depth); err != nil {
				return fmt.Errorf("cfdb: rebuilding optree for game %d: %w", gameID, err)
			}
			db.log.Debug("cfdb: rebuilt opening tree", zap.Int64("game_id", gameID))
			return nil
		})
	}
	return eg.Wait()
}

func (db *DB) gameIDsInRange(lowID, highID int64) ([]int64, error) {
	rows, err := db.sql.Query(`SELECT game_id FROM game WHERE game_id BETWEEN ? AND ? ORDER BY game_id`, lowID, highID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// legalMoveIndex finds m's index in pos's canonical generated-move order,
// the same indexing movecodec uses, so optree rows and the bitstream codec
// address moves identically.
func legalMoveIndex(pos *position.Position, m position.Move) int {
	for i, lm := range pos.GenerateLegalMoves() {
		if lm.From == m.From && lm.To == m.To && lm.Promotion == m.Promotion {
			return i
		}
	}
	return -1
}
