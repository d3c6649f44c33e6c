package index

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Zuo-Peng/df2lex/internal/convert"
	"github.com/Zuo-Peng/df2lex/internal/lex"
)

const timeLayout = "2006-01-02T15:04:05Z"

// Run describes one conversion of one sheet.
type Run struct {
	ID         string
	SourcePath string
	Sheet      string
	Archive    string
	Prefix     string
	CreatedAt  time.Time
	Stats      convert.Stats
}

func NewRun(sourcePath, sheet, archive, prefix string, stats convert.Stats) Run {
	return Run{
		ID:         uuid.NewString(),
		SourcePath: sourcePath,
		Sheet:      sheet,
		Archive:    archive,
		Prefix:     prefix,
		CreatedAt:  time.Now().UTC(),
		Stats:      stats,
	}
}

// RecordRun stores the run and replaces every intent it produced.
func RecordRun(db *DB, run Run, blocks []*convert.Block) error {
	_, err := db.Raw().Exec(
		`INSERT INTO runs (run_id, source_path, sheet, archive, prefix, created_at, intents, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.SourcePath,
		run.Sheet,
		run.Archive,
		run.Prefix,
		run.CreatedAt.Format(timeLayout),
		run.Stats.Intents,
		run.Stats.Skipped,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, b := range blocks {
		if err := recordIntent(db, run, b); err != nil {
			return fmt.Errorf("record %s: %w", b.Name(), err)
		}
	}
	return nil
}

func recordIntent(db *DB, run Run, b *convert.Block) error {
	doc, err := lex.Marshal(b.Intent)
	if err != nil {
		return err
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// old rows go in the same transaction as the new ones
	if _, err := tx.Exec("DELETE FROM phrases WHERE intent = ?", b.Name()); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM intents WHERE name = ?", b.Name()); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO intents (name, run_id, source_path, sheet, raw_name, first_row, last_row, document, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Name(),
		run.ID,
		run.SourcePath,
		run.Sheet,
		b.RawName,
		b.FirstRow,
		b.LastRow,
		string(doc),
		run.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO phrases (intent, seq, kind, text, row_number)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for seq, p := range b.Phrases {
		if _, err := stmt.Exec(b.Name(), seq, string(p.Kind), p.Text, p.Row); err != nil {
			return err
		}
	}

	return tx.Commit()
}
