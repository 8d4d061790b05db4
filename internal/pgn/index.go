package pgn

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/chesscore/chesscore/internal/xbit"
)

// indexRecordSize is the size in bytes of one sidecar entry: an 8-byte
// little-endian byte offset followed by a 4-byte little-endian line number.
const indexRecordSize = 12

// IndexEntry locates one game's header start within a PGN file.
type IndexEntry struct {
	Offset int64
	Line   uint32
}

// Index is the sidecar game-offset index for one PGN file.
type Index struct {
	dir     string
	pgnPath string
	entries []IndexEntry
}

// fileIdentity derives the stable name a sidecar is stored under from the
// PGN's device and inode, so distinct files (even same basename in
// different directories, or after a rename) never share an index.
func fileIdentity(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return "", fmt.Errorf("pgn: cannot determine file identity for %s", path)
	}
	return fmt.Sprintf("%x-%x.idx", st.Dev, st.Ino), nil
}

func sidecarPath(indexDir, pgnPath string) (string, error) {
	id, err := fileIdentity(pgnPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(indexDir, id), nil
}

// OpenIndex loads (or rebuilds, if stale or absent) the sidecar index for
// pgnPath, storing/reading the sidecar file under indexDir. progress, if
// non-nil, is called with the number of games indexed so far during a
// rebuild.
func OpenIndex(indexDir, pgnPath string, progress func(n int)) (*Index, error) {
	sidecar, err := sidecarPath(indexDir, pgnPath)
	if err != nil {
		return nil, err
	}

	valid, err := indexIsValid(sidecar, pgnPath)
	if err != nil {
		return nil, err
	}
	idx := &Index{dir: indexDir, pgnPath: pgnPath}
	if valid {
		if err := idx.load(sidecar); err != nil {
			return nil, err
		}
		return idx, nil
	}

	if err := idx.rebuild(sidecar, progress); err != nil {
		return nil, err
	}
	return idx, nil
}

func indexIsValid(sidecar, pgnPath string) (bool, error) {
	sInfo, err := os.Stat(sidecar)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if sInfo.Size() == 0 {
		return false, nil
	}
	pInfo, err := os.Stat(pgnPath)
	if err != nil {
		return false, err
	}
	if pInfo.Size() == 0 {
		return false, nil
	}
	return !sInfo.ModTime().Before(pInfo.ModTime()), nil
}

func (idx *Index) load(sidecar string) error {
	data, err := os.ReadFile(sidecar)
	if err != nil {
		return err
	}
	n := len(data) / indexRecordSize
	idx.entries = make([]IndexEntry, 0, n)
	for i := 0; i < n; i++ {
		rec := data[i*indexRecordSize:]
		idx.entries = append(idx.entries, IndexEntry{
			Offset: int64(xbit.Uint64LE(rec[0:8])),
			Line:   xbit.Uint32LE(rec[8:12]),
		})
	}
	return nil
}

// rebuild scans pgnPath once, recording the byte offset and line number of
// each game's first header line, and writes the resulting sidecar.
func (idx *Index) rebuild(sidecar string, progress func(n int)) error {
	f, err := os.Open(idx.pgnPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(idx.dir, 0o755); err != nil {
		return err
	}

	var buf []byte
	idx.entries = idx.entries[:0]

	br := bufio.NewReader(f)
	var offset int64
	line := uint32(1)
	inGame := false
	count := 0

	for {
		start := offset
		startLine := line
		text, err := br.ReadString('\n')
		offset += int64(len(text))
		isEOF := err == io.EOF
		if len(text) > 0 {
			if len(text) >= 1 && text[0] == '[' && !inGame {
				idx.entries = append(idx.entries, IndexEntry{Offset: start, Line: startLine})
				buf = xbit.PutUint64LE(buf, uint64(start))
				buf = xbit.PutUint32LE(buf, startLine)
				inGame = true
				count++
				if progress != nil {
					progress(count)
				}
			}
			trimmed := trimTrailingNewline(text)
			if trimmed == "" {
				inGame = false
			}
			line++
		}
		if isEOF {
			break
		}
		if err != nil {
			return err
		}
	}

	return os.WriteFile(sidecar, buf, 0o644)
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// Len returns the number of indexed games, equal to size(sidecar)/12.
func (idx *Index) Len() int { return len(idx.entries) }

// Entry returns the offset/line for game i.
func (idx *Index) Entry(i int) (IndexEntry, error) {
	if i < 0 || i >= len(idx.entries) {
		return IndexEntry{}, fmt.Errorf("pgn: game index %d out of range (%d games)", i, len(idx.entries))
	}
	return idx.entries[i], nil
}

// Append records a new entry for a game about to be written at the current
// end of the PGN file, then appends the record to the sidecar on disk. This
// is the only supported random-access write; replacing an existing game's
// bytes in place is not implemented.
func (idx *Index) Append(offset int64, line uint32) error {
	sidecar, err := sidecarPath(idx.dir, idx.pgnPath)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(sidecar, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf []byte
	buf = xbit.PutUint64LE(buf, uint64(offset))
	buf = xbit.PutUint32LE(buf, line)
	if _, err := f.Write(buf); err != nil {
		return err
	}
	idx.entries = append(idx.entries, IndexEntry{Offset: offset, Line: line})
	return nil
}

// ErrInPlaceReplaceUnsupported is returned by any attempt to rewrite a game
// in the middle of a PGN file; only end-of-file append is supported.
var ErrInPlaceReplaceUnsupported = fmt.Errorf("pgn: in-place replacement of a game is not implemented")

// Replace always fails: the format and index only support appending new
// games, never rewriting bytes already on disk in place.
func (idx *Index) Replace(int) error {
	return ErrInPlaceReplaceUnsupported
}
