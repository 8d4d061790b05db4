// Package opening implements the opening tree classifier: an in-memory
// index of reference positions (keyed by Zobrist hash, as the Polyglot book
// format keys its entries) tagged with ECO/opening/variation strings,
// probed against a game's mainline to classify it.
package opening

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/chesscore/chesscore/internal/game"
	"github.com/chesscore/chesscore/internal/movetree"
	"github.com/chesscore/chesscore/internal/position"
)

// Entry is one reference-tree row: the move played from the keyed position,
// whether that move is the last one of its reference line (preferred when
// several entries share a position), and the opening classification that
// applies once this move is reached.
type Entry struct {
	Move     position.Move
	LastMove bool
	ECO      string
	Opening  string
	Variation string
}

// Tree is the loaded reference index, keyed by position hash exactly as
// internal/book keys its Polyglot entries.
type Tree struct {
	entries map[uint64][]Entry
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{entries: make(map[uint64][]Entry)}
}

// Add inserts one reference entry under hash.
func (t *Tree) Add(hash uint64, e Entry) {
	t.entries[hash] = append(t.entries[hash], e)
}

// Size returns the number of distinct positions indexed.
func (t *Tree) Size() int { return len(t.entries) }

// recordFormat: 8-byte hash LE, 4-byte packed move LE, 1-byte last_move
// flag, then three NUL-terminated strings (eco, opening, variation).
func LoadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load reads the reference tree's on-disk record stream.
func Load(r io.Reader) (*Tree, error) {
	t := New()
	br := bufio.NewReader(r)
	var header [13]byte
	for {
		_, err := io.ReadFull(br, header[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		hash := binary.LittleEndian.Uint64(header[0:8])
		packed := binary.LittleEndian.Uint32(header[8:12])
		lastMove := header[12] != 0

		eco, err := readNulString(br)
		if err != nil {
			return nil, fmt.Errorf("opening: reading eco field: %w", err)
		}
		op, err := readNulString(br)
		if err != nil {
			return nil, fmt.Errorf("opening: reading opening field: %w", err)
		}
		variation, err := readNulString(br)
		if err != nil {
			return nil, fmt.Errorf("opening: reading variation field: %w", err)
		}

		t.Add(hash, Entry{
			Move:      position.UnpackMove(packed),
			LastMove:  lastMove,
			ECO:       eco,
			Opening:   op,
			Variation: variation,
		})
	}
	return t, nil
}

func readNulString(r *bufio.Reader) (string, error) {
	s, err := r.ReadString(0)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}

// Save writes the tree back out in Load's format, for building a reference
// file from a BuildOpeningTree-style pass over annotated games.
func Save(w io.Writer, t *Tree) error {
	bw := bufio.NewWriter(w)
	for hash, entries := range t.entries {
		for _, e := range entries {
			var header [13]byte
			binary.LittleEndian.PutUint64(header[0:8], hash)
			binary.LittleEndian.PutUint32(header[8:12], e.Move.Pack())
			if e.LastMove {
				header[12] = 1
			}
			if _, err := bw.Write(header[:]); err != nil {
				return err
			}
			for _, s := range []string{e.ECO, e.Opening, e.Variation} {
				if _, err := bw.WriteString(s); err != nil {
					return err
				}
				if err := bw.WriteByte(0); err != nil {
					return err
				}
			}
		}
	}
	return bw.Flush()
}

// Classify probes g's mainline position by position against the tree,
// preferring LastMove-flagged entries at any given position, and returns
// the ECO/opening/variation of the deepest matching move. matched is false
// if no mainline move appears in the tree at its position.
func (t *Tree) Classify(g *game.Game) (eco, opening, variation string, matched bool) {
	pos := *g.Start
	for id := g.Tree.Root; id != movetree.NoNode; {
		n := g.Tree.Node(id)
		if n == nil {
			break
		}

		if best, ok := t.bestEntryFor(pos.Hash, n.Move); ok {
			eco, opening, variation = best.ECO, best.Opening, best.Variation
			matched = true
		} else {
			break
		}

		if _, ok := pos.MakeMove(n.Move); !ok {
			break
		}
		id = n.Next
	}
	return eco, opening, variation, matched
}

func (t *Tree) bestEntryFor(hash uint64, move position.Move) (Entry, bool) {
	entries, ok := t.entries[hash]
	if !ok {
		return Entry{}, false
	}
	var found Entry
	have := false
	for _, e := range entries {
		if e.Move != move {
			continue
		}
		if !have || e.LastMove {
			found = e
			have = true
			if e.LastMove {
				break
			}
		}
	}
	return found, have
}
