package pgn

import (
	"fmt"
	"io"
	"strconv"

	"github.com/chesscore/chesscore/internal/game"
	"github.com/chesscore/chesscore/internal/movetree"
	"github.com/chesscore/chesscore/internal/position"
	"github.com/chesscore/chesscore/internal/timecontrol"
)

// headerOrder is the fixed Seven Tag Roster order, followed by the optional
// tags this codec knows how to round-trip.
var headerOrder = []string{
	"Event", "Site", "Date", "Round", "White", "Black", "Result",
	"SetUp", "FEN", "Annotator", "ECO", "WhiteElo", "BlackElo", "TimeControl",
}

// maxLineWidth is the column at which movetext wraps onto a new line; a
// single token is never split across lines even if it alone exceeds it.
const maxLineWidth = 79

// Writer renders games as PGN text.
type Writer struct {
	w io.Writer
}

// NewWriter returns a writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteGame renders g's headers and movetext, in the fixed header order,
// wrapping movetext at maxLineWidth columns.
func (wr *Writer) WriteGame(g *game.Game) error {
	tags := headerTags(g)
	for _, name := range headerOrder {
		v, ok := tags[name]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(wr.w, "[%s %q]\n", name, v); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(wr.w, "\n"); err != nil {
		return err
	}

	var lb lineBreaker
	renderLine(&lb, g.Tree, g.Tree.Root)
	lb.writeToken(g.Roster.Result.String())

	_, err := wr.w.Write(lb.out)
	if err != nil {
		return err
	}
	_, err = io.WriteString(wr.w, "\n\n")
	return err
}

func headerTags(g *game.Game) map[string]string {
	r := g.Roster
	tags := map[string]string{
		"Event":  orDefault(r.Event, "?"),
		"Site":   orDefault(r.Site, "?"),
		"Date":   dateTag(r.Year, r.Month, r.Day),
		"Round":  roundTag(r.RoundMajor, r.RoundMinor),
		"White":  orDefault(r.White, "?"),
		"Black":  orDefault(r.Black, "?"),
		"Result": r.Result.String(),
	}
	if g.Start != nil {
		if fen := g.Start.ToFEN(); fen != position.StartFEN {
			tags["SetUp"] = "1"
			tags["FEN"] = fen
		}
	}
	if r.Annotator != "" {
		tags["Annotator"] = r.Annotator
	}
	if r.ECO != "" {
		tags["ECO"] = r.ECO
	}
	if r.WhiteElo != 0 {
		tags["WhiteElo"] = strconv.Itoa(r.WhiteElo)
	}
	if r.BlackElo != 0 {
		tags["BlackElo"] = strconv.Itoa(r.BlackElo)
	}
	if len(r.TimeControl.Periods) > 0 {
		if tc, err := r.TimeControl.Notation(timecontrol.FormatPGN); err == nil {
			tags["TimeControl"] = tc
		}
	}
	return tags
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func dateTag(y, m, d int) string {
	field := func(v int) string {
		if v == 0 {
			return "??"
		}
		return fmt.Sprintf("%02d", v)
	}
	if y == 0 {
		return "????.??.??"
	}
	return fmt.Sprintf("%04d.%s.%s", y, field(m), field(d))
}

func roundTag(major, minor int) string {
	if major == 0 {
		return "?"
	}
	if minor == 0 {
		return strconv.Itoa(major)
	}
	return fmt.Sprintf("%d.%d", major, minor)
}

// lineBreaker accumulates rendered movetext tokens, wrapping at
// maxLineWidth on a token boundary.
type lineBreaker struct {
	out     []byte
	lineLen int
}

func (lb *lineBreaker) writeToken(tok string) {
	if lb.lineLen > 0 {
		if lb.lineLen+1+len(tok) > maxLineWidth {
			lb.out = append(lb.out, '\n')
			lb.lineLen = 0
		} else {
			lb.out = append(lb.out, ' ')
			lb.lineLen++
		}
	}
	lb.out = append(lb.out, tok...)
	lb.lineLen += len(tok)
}

// renderLine walks one line of the tree (following Next) starting at id,
// which must be a line head (Root or a variation head) and therefore carry
// PriorPosition, seeding the move-number counter. It emits move numbers,
// SAN, NAGs, and comments, and recurses into each move's sibling variations
// (expanded fully, per the top-of-tree convention).
func renderLine(lb *lineBreaker, tree *movetree.Tree, id movetree.NodeID) {
	head := tree.Node(id)
	if head == nil || head.PriorPosition == nil {
		return
	}
	pos := *head.PriorPosition
	moveNum := pos.FullMoveNumber
	white := pos.SideToMove == position.White
	forceNumber := true

	for id != movetree.NoNode {
		n := tree.Node(id)
		if n == nil {
			return
		}

		if n.PreComment != "" {
			lb.writeToken("{" + n.PreComment + "}")
			forceNumber = true
		}

		if white {
			lb.writeToken(fmt.Sprintf("%d.", moveNum))
		} else if forceNumber {
			lb.writeToken(fmt.Sprintf("%d...", moveNum))
		}
		forceNumber = false

		lb.writeToken(pos.SAN(n.Move))
		pos.MakeMove(n.Move)

		for i := 0; i < n.NAGCount; i++ {
			nag := int(n.NAGs[i])
			if sym := movetree.Symbol(nag); sym != "" {
				lb.writeToken(sym)
			} else {
				lb.writeToken("$" + strconv.Itoa(nag))
			}
		}

		if n.PostComment != "" {
			lb.writeToken("{" + n.PostComment + "}")
		}

		if n.Variation != movetree.NoNode && n.IsMainline() {
			for v := n.Variation; v != movetree.NoNode; v = tree.Node(v).Variation {
				lb.writeToken("(")
				renderLine(lb, tree, v)
				lb.writeToken(")")
				forceNumber = true
			}
		}

		if !white {
			moveNum++
		}
		white = !white
		id = n.Next
	}
}
