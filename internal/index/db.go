package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS runs (
    run_id      TEXT PRIMARY KEY,
    source_path TEXT NOT NULL,
    sheet       TEXT NOT NULL DEFAULT '',
    archive     TEXT NOT NULL DEFAULT '',
    prefix      TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT '',
    intents     INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS intents (
    name        TEXT PRIMARY KEY,
    run_id      TEXT NOT NULL,
    source_path TEXT NOT NULL,
    sheet       TEXT NOT NULL DEFAULT '',
    raw_name    TEXT NOT NULL,
    first_row   INTEGER NOT NULL DEFAULT 0,
    last_row    INTEGER NOT NULL DEFAULT 0,
    document    TEXT NOT NULL,
    updated_at  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS phrases (
    intent      TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    text        TEXT NOT NULL,
    row_number  INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (intent, seq)
);

CREATE VIRTUAL TABLE IF NOT EXISTS phrases_fts USING fts5(
    text,
    content=phrases,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS phrases_ai AFTER INSERT ON phrases BEGIN
    INSERT INTO phrases_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS phrases_ad AFTER DELETE ON phrases BEGIN
    INSERT INTO phrases_fts(phrases_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;

CREATE TRIGGER IF NOT EXISTS phrases_au AFTER UPDATE ON phrases BEGIN
    INSERT INTO phrases_fts(phrases_fts, rowid, text) VALUES('delete', old.rowid, old.text);
    INSERT INTO phrases_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

// schemaVersion is bumped when the stored document layout changes; older
// catalogs are cleared on open.
const schemaVersion = "1"

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrateSchemaVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

func (d *DB) migrateSchemaVersion() error {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err == nil && ver == schemaVersion {
		return nil
	}
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if _, err := d.db.Exec("DELETE FROM phrases; DELETE FROM intents"); err != nil {
		return err
	}
	_, err = d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type RunRow struct {
	RunID      string
	SourcePath string
	Sheet      string
	Archive    string
	Prefix     string
	CreatedAt  string
	Intents    int
	Skipped    int
}

type IntentRow struct {
	Name       string
	RunID      string
	SourcePath string
	Sheet      string
	RawName    string
	FirstRow   int
	LastRow    int
	Document   string
	UpdatedAt  string
}

type PhraseRow struct {
	Intent    string
	Seq       int
	Kind      string
	Text      string
	RowNumber int
}

const intentColumns = "name, run_id, source_path, sheet, raw_name, first_row, last_row, document, updated_at"

func scanIntent(sc interface{ Scan(...any) error }) (*IntentRow, error) {
	var r IntentRow
	err := sc.Scan(&r.Name, &r.RunID, &r.SourcePath, &r.Sheet, &r.RawName, &r.FirstRow, &r.LastRow, &r.Document, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *DB) GetIntent(name string) (*IntentRow, error) {
	r, err := scanIntent(d.db.QueryRow("SELECT "+intentColumns+" FROM intents WHERE name = ?", name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

type ListOptions struct {
	Source string // "" = all, otherwise a source_path substring
	Limit  int
}

// ListIntents returns intents, most recently converted first.
func (d *DB) ListIntents(opts ListOptions) ([]IntentRow, error) {
	query := "SELECT " + intentColumns + " FROM intents"
	var args []any
	if opts.Source != "" {
		query += " WHERE source_path LIKE ?"
		args = append(args, "%"+opts.Source+"%")
	}
	query += " ORDER BY updated_at DESC, source_path, first_row"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IntentRow
	for rows.Next() {
		r, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (d *DB) GetPhrases(intent string) ([]PhraseRow, error) {
	rows, err := d.db.Query(
		"SELECT intent, seq, kind, text, row_number FROM phrases WHERE intent = ? ORDER BY seq",
		intent,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phrases []PhraseRow
	for rows.Next() {
		var p PhraseRow
		if err := rows.Scan(&p.Intent, &p.Seq, &p.Kind, &p.Text, &p.RowNumber); err != nil {
			return nil, err
		}
		phrases = append(phrases, p)
	}
	return phrases, rows.Err()
}

func (d *DB) LastRun() (*RunRow, error) {
	var r RunRow
	err := d.db.QueryRow(
		"SELECT run_id, source_path, sheet, archive, prefix, created_at, intents, skipped FROM runs ORDER BY created_at DESC LIMIT 1",
	).Scan(&r.RunID, &r.SourcePath, &r.Sheet, &r.Archive, &r.Prefix, &r.CreatedAt, &r.Intents, &r.Skipped)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *DB) IntentCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM intents").Scan(&n)
	return n, err
}

func (d *DB) PhraseCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM phrases").Scan(&n)
	return n, err
}

func (d *DB) FTSCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM phrases_fts").Scan(&n)
	return n, err
}
