// Package cfdb implements the binary (relational) game database: an
// embedded SQL store holding games, their dimension tables (player, event,
// site, annotator), and the opening tree used for classification.
package cfdb

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the only schema version this package reads or writes.
const SchemaVersion = "1"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS metadata (
	name TEXT PRIMARY KEY,
	val  TEXT
);
CREATE TABLE IF NOT EXISTS player (
	player_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	last_name   TEXT NOT NULL,
	first_names TEXT NOT NULL DEFAULT '',
	country_code TEXT NOT NULL DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_player_name ON player(last_name, first_names);
CREATE INDEX IF NOT EXISTS idx_player_last_name ON player(last_name);

CREATE TABLE IF NOT EXISTS event (
	event_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_event_name ON event(name);

CREATE TABLE IF NOT EXISTS site (
	site_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name    TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_site_name ON site(name);

CREATE TABLE IF NOT EXISTS annotator (
	annotator_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_annotator_name ON annotator(name);

CREATE TABLE IF NOT EXISTS game (
	game_id          INTEGER PRIMARY KEY AUTOINCREMENT,
	white_player_id  INTEGER,
	black_player_id  INTEGER,
	event_id         INTEGER,
	site_id          INTEGER,
	date             INTEGER,
	round_major      INTEGER,
	round_minor      INTEGER,
	result           INTEGER NOT NULL DEFAULT 0,
	annotator_id     INTEGER,
	eco              TEXT NOT NULL DEFAULT '',
	white_elo        INTEGER NOT NULL DEFAULT 0,
	black_elo        INTEGER NOT NULL DEFAULT 0,
	time_control     BLOB,
	halfmoves        INTEGER NOT NULL DEFAULT 0,
	partial          BLOB,
	moves            BLOB,
	annotations      BLOB,
	FOREIGN KEY(white_player_id) REFERENCES player(player_id),
	FOREIGN KEY(black_player_id) REFERENCES player(player_id),
	FOREIGN KEY(event_id)        REFERENCES event(event_id),
	FOREIGN KEY(site_id)         REFERENCES site(site_id),
	FOREIGN KEY(annotator_id)    REFERENCES annotator(annotator_id)
);

CREATE TABLE IF NOT EXISTS optree (
	pos       BIGINT NOT NULL,
	move      INTEGER NOT NULL,
	score     TINYINT NOT NULL,
	last_move TINYINT NOT NULL,
	game_id   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_optree_pos ON optree(pos);
`

// ErrSchemaMismatch is returned by Open when an existing database's
// metadata.schema_version is not the one this package understands.
type ErrSchemaMismatch struct {
	Found string
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("cfdb: schema_version %q does not match supported version %q", e.Found, SchemaVersion)
}

// DB wraps a *sql.DB holding one cfdb database.
type DB struct {
	sql *sql.DB
	log *zap.Logger

	lastError string
}

// LastError returns the message recorded when the schema version check
// fails, or "". No other failure sets it, and a later success does not
// clear it.
func (db *DB) LastError() string { return db.lastError }

// Open opens (or, if writable and non-existent, creates) the database at
// path. A non-existent path opened read-only fails; an existent database
// whose schema_version disagrees fails with *ErrSchemaMismatch. Diagnostics
// are discarded; use OpenWithLogger to capture them.
func Open(path string, writable bool) (*DB, error) {
	return OpenWithLogger(path, writable, zap.NewNop())
}

// OpenWithLogger is Open with structured diagnostics (schema creation,
// schema mismatch, open failures) routed to log.
func OpenWithLogger(path string, writable bool, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	exists := fileExists(path)
	if !exists && !writable {
		err := fmt.Errorf("cfdb: %s does not exist and readonly open was requested", path)
		log.Warn("cfdb: open failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	dsn := path
	if !writable {
		dsn += "?mode=ro"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if _, err := sqlDB.Exec(`PRAGMA synchronous = OFF`); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if _, err := sqlDB.Exec(`PRAGMA journal_mode = MEMORY`); err != nil {
		sqlDB.Close()
		return nil, err
	}

	db := &DB{sql: sqlDB, log: log}

	if !exists {
		if err := db.createSchema(); err != nil {
			sqlDB.Close()
			return nil, err
		}
		log.Info("cfdb: created database", zap.String("path", path))
		return db, nil
	}

	if err := db.checkSchema(); err != nil {
		log.Warn("cfdb: schema check failed", zap.String("path", path), zap.Error(err))
		sqlDB.Close()
		return nil, err
	}
	log.Debug("cfdb: opened database", zap.String("path", path), zap.Bool("writable", writable))
	return db, nil
}

func (db *DB) createSchema() error {
	tx, err := db.sql.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(schemaDDL); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`INSERT INTO metadata(name, val) VALUES ('schema_version', ?)`, SchemaVersion); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (db *DB) checkSchema() error {
	var version string
	err := db.sql.QueryRow(`SELECT val FROM metadata WHERE name = 'schema_version'`).Scan(&version)
	if err != nil {
		return fmt.Errorf("cfdb: reading schema_version: %w", err)
	}
	if version != SchemaVersion {
		err := &ErrSchemaMismatch{Found: version}
		db.lastError = err.Error()
		return err
	}
	return nil
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.sql.Close() }

// Vacuum reclaims free space by rebuilding the database file.
func (db *DB) Vacuum() error {
	_, err := db.sql.Exec(`VACUUM`)
	return err
}

// CountGames returns the number of rows in game.
func (db *DB) CountGames() (int, error) {
	var n int
	err := db.sql.QueryRow(`SELECT COUNT(*) FROM game`).Scan(&n)
	return n, err
}

// LongestLine returns the largest halfmoves value across all games.
func (db *DB) LongestLine() (int, error) {
	var n sql.NullInt64
	err := db.sql.QueryRow(`SELECT MAX(halfmoves) FROM game`).Scan(&n)
	if err != nil {
		return 0, err
	}
	return int(n.Int64), nil
}

// OpeningOccurrences returns how many optree rows exist for pos.
func (db *DB) OpeningOccurrences(posHash uint64) (int, error) {
	var n int
	err := db.sql.QueryRow(`SELECT COUNT(*) FROM optree WHERE pos = ?`, int64(posHash)).Scan(&n)
	return n, err
}
