// Package game implements the Game model: the owner of a move tree and the
// canonical position cursor, with make-move, variation bracketing, and
// gameover detection.
package game

import (
	"fmt"

	"github.com/chesscore/chesscore/internal/movetree"
	"github.com/chesscore/chesscore/internal/position"
	"github.com/chesscore/chesscore/internal/timecontrol"
)

// Result is the outcome recorded in a game's roster.
type Result int

const (
	Unfinished Result = iota
	WhiteWin
	BlackWin
	Draw
)

func (r Result) String() string {
	switch r {
	case WhiteWin:
		return "1-0"
	case BlackWin:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Roster holds the header information of a game record, independent of the
// move tree itself.
type Roster struct {
	White, Black         string
	WhiteElo, BlackElo   int
	Event, Site          string
	Year, Month, Day     int
	RoundMajor, RoundMinor int
	Result               Result
	Annotator            string
	ECO                  string
	TimeControl          timecontrol.TimeControl
}

// RelaxedMode is a process-global flag controlling how strictly the PGN
// reader treats recoverable anomalies (an unparsable move, a variation with
// no preceding move, an unmatched closing bracket): when set, the reader
// skips them instead of failing.
var RelaxedMode bool

// GameOverReason enumerates the closed set of automatic-draw/mate reasons
// IsGameOver can report.
type GameOverReason int

const (
	NotOver GameOverReason = iota
	Checkmate
	Stalemate
	FiftyMoveRule
	ThreefoldRepetition
	InsufficientMaterial
)

func (r GameOverReason) Description() string {
	switch r {
	case Checkmate:
		return "Checkmate"
	case Stalemate:
		return "Stalemate"
	case FiftyMoveRule:
		return "Draw by 50-move rule"
	case ThreefoldRepetition:
		return "Draw by 3-fold repetition"
	case InsufficientMaterial:
		return "Draw by insufficient material"
	default:
		return ""
	}
}

// Game owns a move tree and the position cursor derived from walking it.
type Game struct {
	Start   *position.Position
	Current *position.Position
	Tree    *movetree.Tree

	CurrentMove         movetree.NodeID
	variationInProgress bool
	variationRestorePos *position.Position

	Roster Roster
}

// New returns a game starting from the standard initial position.
func New() *Game {
	return FromPosition(position.NewPosition())
}

// FromPosition returns a game whose move tree starts from start (used when a
// PGN's SetUp/FEN header overrides the default starting position).
func FromPosition(start *position.Position) *Game {
	cur := *start
	return &Game{
		Start:   start,
		Current: &cur,
		Tree:    movetree.New(),
	}
}

// StartVariation marks that the next MakeMove call should branch a new
// sibling variation from the current move rather than extending the line it
// is on, and rewinds Current to the position before the current move.
func (g *Game) StartVariation() {
	g.variationInProgress = true
	n := g.Tree.Node(g.CurrentMove)
	if n == nil {
		return
	}
	if n.PriorPosition != nil {
		cur := *n.PriorPosition
		g.Current = &cur
		return
	}
	id := g.CurrentMove
	if n.Prev != movetree.NoNode && g.SetCurrentMove(n.Prev) == nil {
		g.CurrentMove = id
	}
}

// EndVariation returns the cursor to the move the current variation
// branched from, rebuilding the position after that move.
func (g *Game) EndVariation() error {
	if g.variationInProgress {
		g.variationInProgress = false
		return g.SetCurrentMove(g.CurrentMove)
	}
	for id := g.CurrentMove; id != movetree.NoNode; {
		n := g.Tree.Node(id)
		if n == nil {
			return fmt.Errorf("game: unknown move id")
		}
		if n.Mainline != movetree.NoNode {
			return g.SetCurrentMove(n.Mainline)
		}
		id = n.Prev
	}
	return g.SetCurrentMove(g.CurrentMove)
}

// MakeMoveSAN parses text (SAN, long algebraic, or coordinate notation)
// against the current position and plays it.
func (g *Game) MakeMoveSAN(text string) (movetree.NodeID, error) {
	m, err := g.Current.ParseSAN(text)
	if err != nil {
		return movetree.NoNode, err
	}
	return g.MakeMove(m)
}

// MakeMoveIndex plays the move at index idx in the current position's
// generated legal-move list.
func (g *Game) MakeMoveIndex(idx int) (movetree.NodeID, error) {
	legal := g.Current.GenerateLegalMoves()
	if idx < 0 || idx >= len(legal) {
		return movetree.NoNode, fmt.Errorf("game: move index %d out of range (%d legal moves)", idx, len(legal))
	}
	return g.MakeMove(legal[idx])
}

// MakeMove plays m (assumed legal in the current position; callers sourcing
// moves from ParseSAN/GenerateLegalMoves already guarantee this) and
// attaches it to the tree: as a new mainline head if the tree is empty, as a
// sibling variation of CurrentMove if a variation is pending, or as the next
// move after CurrentMove otherwise.
func (g *Game) MakeMove(m position.Move) (movetree.NodeID, error) {
	priorForRestore := *g.Current
	annotated := g.Current.AnnotateMove(m)

	delta, ok := g.Current.MakeMove(annotated)
	if !ok {
		return movetree.NoNode, fmt.Errorf("game: illegal move %s", annotated)
	}
	_ = delta
	postHash := g.Current.Hash

	var id movetree.NodeID
	switch {
	case g.CurrentMove == movetree.NoNode && g.Tree.Root == movetree.NoNode:
		id = g.Tree.AddNext(movetree.NoNode, annotated, postHash, &priorForRestore)
	case g.variationInProgress:
		prior := priorForRestore
		id = g.Tree.AddVariation(g.CurrentMove, annotated, postHash, &prior, false)
		g.variationInProgress = false
	default:
		id = g.Tree.AddNext(g.CurrentMove, annotated, postHash, nil)
	}
	g.CurrentMove = id
	return id, nil
}

// SetCurrentMove rebuilds the current position by replaying from the
// nearest PriorPosition up to and including id.
func (g *Game) SetCurrentMove(id movetree.NodeID) error {
	var chain []movetree.NodeID
	cursor := id
	var base *position.Position
	for cursor != movetree.NoNode {
		n := g.Tree.Node(cursor)
		if n == nil {
			return fmt.Errorf("game: unknown move id")
		}
		chain = append(chain, cursor)
		if n.PriorPosition != nil {
			base = n.PriorPosition
			break
		}
		if n.Prev != movetree.NoNode {
			cursor = n.Prev
		} else {
			cursor = n.Mainline
		}
	}
	if base == nil {
		base = g.Start
	}
	cur := *base
	for i := len(chain) - 1; i >= 0; i-- {
		n := g.Tree.Node(chain[i])
		if _, ok := cur.MakeMove(n.Move); !ok {
			return fmt.Errorf("game: replay failed at move %s", n.Move)
		}
	}
	g.Current = &cur
	g.CurrentMove = id
	return nil
}

// IsGameOver inspects (without mutating) the current position and move
// history for mate, stalemate, the 50-move rule, 3-fold repetition, and
// insufficient material, in that priority order.
func (g *Game) IsGameOver() GameOverReason {
	pos := g.Current
	legal := pos.GenerateLegalMoves()
	if len(legal) == 0 {
		if pos.InCheck() {
			return Checkmate
		}
		return Stalemate
	}
	if pos.HalfMoveClock >= 100 {
		return FiftyMoveRule
	}
	if insufficientMaterial(pos) {
		return InsufficientMaterial
	}
	if !pos.LastMoveNoisy() && g.CurrentMove != movetree.NoNode {
		if g.Tree.RepeatedPositionCount(g.CurrentMove, pos.Hash, true) >= 3 {
			return ThreefoldRepetition
		}
	}
	return NotOver
}

func insufficientMaterial(pos *position.Position) bool {
	for c := position.White; c <= position.Black; c++ {
		if pos.Pieces[c][position.Pawn] != 0 || pos.Pieces[c][position.Rook] != 0 || pos.Pieces[c][position.Queen] != 0 {
			return false
		}
	}
	whiteMinor := pos.Pieces[position.White][position.Knight].PopCount() + pos.Pieces[position.White][position.Bishop].PopCount()
	blackMinor := pos.Pieces[position.Black][position.Knight].PopCount() + pos.Pieces[position.Black][position.Bishop].PopCount()
	if whiteMinor <= 1 && blackMinor <= 1 {
		if whiteMinor+blackMinor <= 1 {
			return true // K/K, K/KB, K/KN
		}
		// K+B vs K+B is insufficient only on the same-colour bishops.
		if whiteMinor == 1 && blackMinor == 1 &&
			pos.Pieces[position.White][position.Knight] == 0 && pos.Pieces[position.Black][position.Knight] == 0 {
			wSq := pos.Pieces[position.White][position.Bishop].LSB()
			bSq := pos.Pieces[position.Black][position.Bishop].LSB()
			return squareTint(wSq) == squareTint(bSq)
		}
	}
	return false
}

func squareTint(sq position.Square) int {
	return (sq.File() + sq.Rank()) % 2
}
