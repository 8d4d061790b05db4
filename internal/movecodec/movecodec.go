// Package movecodec implements the move/annotation bitstream codec: the
// compact encoding of a move tree as a sequence of 2-bit tagged items used
// by the binary database's moves/annotations blob columns.
package movecodec

import (
	"fmt"

	"github.com/chesscore/chesscore/internal/movetree"
	"github.com/chesscore/chesscore/internal/position"
	"github.com/chesscore/chesscore/internal/xbit"
)

// Item tags, 2 bits each.
const (
	tagMove      = 0b00
	tagAnnotMove = 0b01
	tagVarStart  = 0b10
	tagVarEnd    = 0b11
)

// Annotation flag bits packed into an ANNOT_MOVE item's trailing 3 bits.
const (
	flagPreAnnot  = 1 << 2
	flagPostAnnot = 1 << 1
	flagNAGs      = 1 << 0
)

// NAGNone terminates a NAG run in the annotations blob.
const NAGNone = 0

// Encode serializes the subtree rooted at node into a moves bitstream and a
// parallel annotations byte stream. pos is the position the subtree starts
// from; it is not mutated (a working copy is stepped through the tree to
// compute each node's canonical generated-move index).
func Encode(tree *movetree.Tree, node movetree.NodeID, pos *position.Position) (moves []byte, annotations []byte, err error) {
	w := xbit.NewBitWriter()
	var annot []byte
	working := *pos

	var recurse func(id movetree.NodeID) error
	recurse = func(id movetree.NodeID) error {
		for id != movetree.NoNode {
			n := tree.Node(id)
			if n == nil {
				return fmt.Errorf("movecodec: dangling node id")
			}

			legal := working.GenerateLegalMoves()
			idx := -1
			for i, m := range legal {
				if m.From == n.Move.From && m.To == n.Move.To && m.Promotion == n.Move.Promotion {
					idx = i
					break
				}
			}
			if idx < 0 {
				return fmt.Errorf("movecodec: move %s not found in generated order", n.Move)
			}

			hasAnnot := n.PreComment != "" || n.PostComment != "" || n.NAGCount > 0
			if hasAnnot {
				flags := 0
				if n.PreComment != "" {
					flags |= flagPreAnnot
					annot = append(annot, []byte(n.PreComment)...)
					annot = append(annot, 0)
				}
				if n.PostComment != "" {
					flags |= flagPostAnnot
					annot = append(annot, []byte(n.PostComment)...)
					annot = append(annot, 0)
				}
				if n.NAGCount > 0 {
					flags |= flagNAGs
					for i := 0; i < n.NAGCount; i++ {
						annot = append(annot, n.NAGs[i])
					}
					annot = append(annot, NAGNone)
				}
				w.WriteBits(tagAnnotMove, 2)
				w.WriteBits(uint64(idx), 8)
				w.WriteBits(uint64(flags), 3)
			} else {
				w.WriteBits(tagMove, 2)
				w.WriteBits(uint64(idx), 8)
			}

			before := working
			if _, ok := working.MakeMove(n.Move); !ok {
				return fmt.Errorf("movecodec: move %s illegal while encoding", n.Move)
			}

			if id == node || n.IsMainline() {
				after := working
				for v := n.Variation; v != movetree.NoNode; v = tree.Node(v).Variation {
					w.WriteBits(tagVarStart, 2)
					working = before
					if err := recurse(v); err != nil {
						return err
					}
					w.WriteBits(tagVarEnd, 2)
				}
				working = after
			}
			id = n.Next
		}
		return nil
	}

	if err := recurse(node); err != nil {
		return nil, nil, err
	}

	// End-of-game sentinel: ANNOT_MOVE with all 11 trailing bits zero.
	w.WriteBits(tagAnnotMove, 2)
	w.WriteBits(0, 8)
	w.WriteBits(0, 3)

	return w.Bytes(), annot, nil
}

// VariationHooks lets Decode drive a Game-layer cursor: StartVariation is
// called on VAR_START, EndVariation on VAR_END.
type VariationHooks interface {
	StartVariation()
	EndVariation() error
}

// Decode replays a moves bitstream against pos (which is stepped forward in
// place) and the accompanying annotations bytes, invoking emit for each
// move found (with its decoded annotation, if any) and hooks for variation
// brackets. Decoding stops at the end-of-game sentinel.
func Decode(moves []byte, annotations []byte, pos *position.Position, hooks VariationHooks,
	emit func(m position.Move, pre, post string, nags []uint8) error) error {

	r := xbit.NewBitReader(moves)
	annotIdx := 0

	readNulString := func() (string, error) {
		start := annotIdx
		for annotIdx < len(annotations) && annotations[annotIdx] != 0 {
			annotIdx++
		}
		if annotIdx >= len(annotations) {
			return "", fmt.Errorf("movecodec: annotations blob truncated")
		}
		s := string(annotations[start:annotIdx])
		annotIdx++
		return s, nil
	}

	readNAGRun := func() ([]uint8, error) {
		var nags []uint8
		for {
			if annotIdx >= len(annotations) {
				return nil, fmt.Errorf("movecodec: annotations blob truncated reading NAG run")
			}
			b := annotations[annotIdx]
			annotIdx++
			if b == NAGNone {
				return nags, nil
			}
			nags = append(nags, b)
		}
	}

	before := *pos
	var stack []struct{ pos, before position.Position }

	for {
		tag, err := r.ReadBits(2)
		if err != nil {
			return err
		}

		switch tag {
		case tagVarStart:
			stack = append(stack, struct{ pos, before position.Position }{*pos, before})
			*pos = before
			hooks.StartVariation()
			continue
		case tagVarEnd:
			if len(stack) == 0 {
				return fmt.Errorf("movecodec: unmatched VAR_END")
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			*pos, before = top.pos, top.before
			if err := hooks.EndVariation(); err != nil {
				return err
			}
			continue
		}

		idx, err := r.ReadBits(8)
		if err != nil {
			return err
		}

		var flags uint64
		if tag == tagAnnotMove {
			flags, err = r.ReadBits(3)
			if err != nil {
				return err
			}
		}

		if tag == tagAnnotMove && idx == 0 && flags == 0 {
			return nil // end-of-game sentinel
		}

		legal := pos.GenerateLegalMoves()
		if int(idx) >= len(legal) {
			return fmt.Errorf("movecodec: move index %d out of range (%d legal moves)", idx, len(legal))
		}
		m := legal[idx]

		var pre, post string
		var nags []uint8
		if tag == tagAnnotMove {
			if flags&flagPreAnnot != 0 {
				if pre, err = readNulString(); err != nil {
					return err
				}
			}
			if flags&flagPostAnnot != 0 {
				if post, err = readNulString(); err != nil {
					return err
				}
			}
			if flags&flagNAGs != 0 {
				if nags, err = readNAGRun(); err != nil {
					return err
				}
			}
		}

		before = *pos
		if _, ok := pos.MakeMove(m); !ok {
			return fmt.Errorf("movecodec: decoded move %s illegal", m)
		}
		if err := emit(m, pre, post, nags); err != nil {
			return err
		}
	}
}
