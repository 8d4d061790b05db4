package pgn

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/chesscore/chesscore/internal/game"
)

// Database is a PGN file paired with its sidecar index, providing sequential
// iteration, indexed random access, and append-only writes.
type Database struct {
	path  string
	index *Index
	log   *zap.Logger

	lastError string
}

// Open builds or loads the sidecar index for path under indexDir and
// returns a Database ready for random access and append. progress is
// forwarded to OpenIndex. Diagnostics are discarded; use OpenWithLogger to
// capture them.
func Open(path, indexDir string, progress func(n int)) (*Database, error) {
	return OpenWithLogger(path, indexDir, zap.NewNop(), progress)
}

// OpenWithLogger is Open with structured diagnostics routed to log: whether
// the sidecar was reused or rebuilt, and how many games the rebuild found.
func OpenWithLogger(path, indexDir string, log *zap.Logger, progress func(n int)) (*Database, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rebuilt := 0
	idx, err := OpenIndex(indexDir, path, func(n int) {
		rebuilt = n
		if progress != nil {
			progress(n)
		}
	})
	if err != nil {
		log.Warn("pgn: opening sidecar index failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	if rebuilt > 0 {
		log.Info("pgn: rebuilt sidecar index", zap.String("path", path), zap.Int("games", rebuilt))
	} else {
		log.Debug("pgn: reused sidecar index", zap.String("path", path), zap.Int("games", idx.Len()))
	}
	return &Database{path: path, index: idx, log: log}, nil
}

// LastError returns the most recent failure's message, or "" if no
// operation has failed; a later success does not clear it. It mirrors position.Position's LastError contract for
// callers that prefer a retained reason alongside a bool/error result.
func (db *Database) LastError() string { return db.lastError }

// Len returns the number of indexed games.
func (db *Database) Len() int { return db.index.Len() }

// ReadAll opens path for sequential reading from the start, independent of
// the index, calling fn for each game in order. Returning an error from fn
// stops iteration and is propagated.
func ReadAll(path string, fn func(*game.Game) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rd := NewReader(f)
	for {
		g, err := rd.ReadGame()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(g); err != nil {
			return err
		}
	}
}

// ReadAt performs a random-access read of game i: seek to its indexed byte
// offset, reset the tokenizer's line counter to the indexed line, and read
// one game.
func (db *Database) ReadAt(i int) (*game.Game, error) {
	entry, err := db.index.Entry(i)
	if err != nil {
		db.lastError = err.Error()
		return nil, err
	}
	f, err := os.Open(db.path)
	if err != nil {
		db.lastError = err.Error()
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(entry.Offset, io.SeekStart); err != nil {
		db.lastError = err.Error()
		return nil, err
	}
	rd := NewReader(f)
	rd.tok.SetLine(int(entry.Line))
	g, err := rd.ReadGame()
	if err != nil {
		err = fmt.Errorf("pgn: reading game %d: %w", i, err)
		db.lastError = err.Error()
		return nil, err
	}
	return g, nil
}

// Append writes a blank-line separator (unless the file is currently empty)
// followed by g to the end of path, and records the new game's offset in
// the sidecar index. This is the only supported random-access write.
func (db *Database) Append(g *game.Game) error {
	f, err := os.OpenFile(db.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		db.lastError = err.Error()
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		db.lastError = err.Error()
		return err
	}
	offset := info.Size()
	line := uint32(1)
	if offset > 0 {
		if _, err := io.WriteString(f, "\n"); err != nil {
			db.lastError = err.Error()
			return err
		}
		offset = info.Size() + 1
		line = countLines(db.path, offset) + 1
	}

	w := NewWriter(f)
	if err := w.WriteGame(g); err != nil {
		db.lastError = err.Error()
		return err
	}
	if err := db.index.Append(offset, line); err != nil {
		db.lastError = err.Error()
		return err
	}
	db.log.Debug("pgn: appended game", zap.String("path", db.path), zap.Int64("offset", offset))
	return nil
}

// countLines counts newlines in path's first upTo bytes, used to seed the
// line counter for a freshly appended game.
func countLines(path string, upTo int64) uint32 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	r := bufio.NewReader(io.LimitReader(f, upTo))
	var n uint32
	for {
		b, err := r.ReadByte()
		if err != nil {
			return n
		}
		if b == '\n' {
			n++
		}
	}
}
