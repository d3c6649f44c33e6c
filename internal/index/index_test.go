package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/df2lex/internal/convert"
	"github.com/Zuo-Peng/df2lex/internal/lex"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "catalog", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func block(name, raw string, firstRow int, phrases ...convert.Phrase) *convert.Block {
	b := &convert.Block{Intent: lex.NewIntent(name), RawName: raw, FirstRow: firstRow, LastRow: firstRow}
	for _, p := range phrases {
		switch p.Kind {
		case convert.KindUtterance:
			b.Intent.AddUtterance(p.Text)
		case convert.KindResponse:
			b.Intent.AddResponse(p.Text)
		}
		b.Phrases = append(b.Phrases, p)
		b.LastRow = p.Row
	}
	return b
}

func TestRecordRun(t *testing.T) {
	db := openTestDB(t)

	greet := block("Default_Greet", "Default.greet", 2,
		convert.Phrase{Kind: convert.KindUtterance, Text: "hi", Row: 2},
		convert.Phrase{Kind: convert.KindResponse, Text: "hello", Row: 2},
		convert.Phrase{Kind: convert.KindUtterance, Text: "good morning", Row: 3},
	)
	pay := block("Billing_PayNow", "Billing.pay_now", 5,
		convert.Phrase{Kind: convert.KindUtterance, Text: "pay my bill", Row: 5},
	)

	run := NewRun("/data/intents.xlsx", "Intents", "intents.zip", "", convert.Stats{Intents: 2})
	require.NoError(t, RecordRun(db, run, []*convert.Block{greet, pay}))

	n, err := db.IntentCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = db.PhraseCount()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	fts, err := db.FTSCount()
	require.NoError(t, err)
	assert.Equal(t, 4, fts)

	got, err := db.GetIntent("Default_Greet")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.ID, got.RunID)
	assert.Equal(t, "Default.greet", got.RawName)
	assert.Equal(t, 2, got.FirstRow)
	assert.Equal(t, 3, got.LastRow)
	assert.Contains(t, got.Document, `"name": "Default_Greet"`)

	phrases, err := db.GetPhrases("Default_Greet")
	require.NoError(t, err)
	require.Len(t, phrases, 3)
	assert.Equal(t, PhraseRow{Intent: "Default_Greet", Seq: 2, Kind: "utterance", Text: "good morning", RowNumber: 3}, phrases[2])

	last, err := db.LastRun()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, run.ID, last.RunID)
	assert.Equal(t, 2, last.Intents)

	missing, err := db.GetIntent("Nope_Nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecordRun_ReplacesIntent(t *testing.T) {
	db := openTestDB(t)

	first := block("Faq_Help", "Faq.help", 2,
		convert.Phrase{Kind: convert.KindUtterance, Text: "help", Row: 2},
		convert.Phrase{Kind: convert.KindUtterance, Text: "assist me", Row: 3},
	)
	require.NoError(t, RecordRun(db, NewRun("a.csv", "a", "a.zip", "", convert.Stats{}), []*convert.Block{first}))

	second := block("Faq_Help", "Faq.help", 10,
		convert.Phrase{Kind: convert.KindUtterance, Text: "support", Row: 10},
	)
	require.NoError(t, RecordRun(db, NewRun("b.csv", "b", "b.zip", "", convert.Stats{}), []*convert.Block{second}))

	phrases, err := db.GetPhrases("Faq_Help")
	require.NoError(t, err)
	require.Len(t, phrases, 1)
	assert.Equal(t, "support", phrases[0].Text)

	fts, err := db.FTSCount()
	require.NoError(t, err)
	assert.Equal(t, 1, fts)

	list, err := db.ListIntents(ListOptions{Source: "b.csv"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 10, list[0].FirstRow)

	list, err = db.ListIntents(ListOptions{Source: "a.csv"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecordRun_FailedReplaceKeepsOldIntent(t *testing.T) {
	db := openTestDB(t)

	first := block("Faq_Help", "Faq.help", 2,
		convert.Phrase{Kind: convert.KindUtterance, Text: "help", Row: 2},
	)
	require.NoError(t, RecordRun(db, NewRun("a.csv", "a", "a.zip", "", convert.Stats{}), []*convert.Block{first}))

	_, err := db.Raw().Exec(`CREATE TRIGGER reject_boom BEFORE INSERT ON phrases
		WHEN NEW.text = 'boom' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	second := block("Faq_Help", "Faq.help", 10,
		convert.Phrase{Kind: convert.KindUtterance, Text: "support", Row: 10},
		convert.Phrase{Kind: convert.KindUtterance, Text: "boom", Row: 11},
	)
	err = RecordRun(db, NewRun("b.csv", "b", "b.zip", "", convert.Stats{}), []*convert.Block{second})
	require.ErrorContains(t, err, "record Faq_Help")

	got, err := db.GetIntent("Faq_Help")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a.csv", got.SourcePath)
	assert.Equal(t, 2, got.FirstRow)

	phrases, err := db.GetPhrases("Faq_Help")
	require.NoError(t, err)
	require.Len(t, phrases, 1)
	assert.Equal(t, "help", phrases[0].Text)

	fts, err := db.FTSCount()
	require.NoError(t, err)
	assert.Equal(t, 1, fts)
}

func TestOpenDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := OpenDB(path)
	require.NoError(t, err)
	require.NoError(t, RecordRun(db, NewRun("a.csv", "a", "a.zip", "", convert.Stats{}), []*convert.Block{block("A_B", "a.b", 2)}))
	require.NoError(t, db.Close())

	db, err = OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	n, err := db.IntentCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "same schema version keeps data")
}
