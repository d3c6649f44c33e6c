package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Zuo-Peng/df2lex/internal/lex"
	"github.com/Zuo-Peng/df2lex/internal/sheet"
)

// ==========================
// Test Helper Functions
// ==========================

type memorySink struct {
	order []string
	files map[string][]byte
}

func newMemorySink() *memorySink {
	return &memorySink{files: make(map[string][]byte)}
}

func (m *memorySink) Write(name string, data []byte) error {
	m.order = append(m.order, name)
	m.files[name] = append([]byte(nil), data...)
	return nil
}

type failingSource struct {
	*sheet.Table
	badRow int
}

func (f failingSource) Cell(row, col int) (string, error) {
	if row == f.badRow {
		return "", errors.New("truncated")
	}
	return f.Table.Cell(row, col)
}

func table(rows ...[]string) *sheet.Table {
	all := append([][]string{{"Intent", "Utterance", "Response"}}, rows...)
	return sheet.NewTable("test.csv", "test", all)
}

func decode(t *testing.T, data []byte) lex.Intent {
	t.Helper()
	var in lex.Intent
	require.NoError(t, json.Unmarshal(data, &in))
	return in
}

func defaultOptions(t *testing.T) Options {
	return Options{HeaderRows: 1, FlushTrailing: true, Logger: zaptest.NewLogger(t)}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestConvert_Scenario(t *testing.T) {
	src := table(
		[]string{"Default.greet", "hi", "hello"},
		[]string{"Default.greet", "", ""},
		[]string{"", "", ""},
		[]string{"Billing.pay_now", "pay", "done"},
	)

	tests := []struct {
		name        string
		flush       bool
		wantFiles   []string
		wantDropped int
	}{
		{name: "flush trailing block", flush: true, wantFiles: []string{"Default_Greet.json", "Billing_PayNow.json"}},
		{name: "legacy drops trailing block", flush: false, wantFiles: []string{"Default_Greet.json"}, wantDropped: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := newMemorySink()
			opts := defaultOptions(t)
			opts.FlushTrailing = tt.flush

			res, err := Convert(src, sink, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFiles, sink.order)
			assert.Equal(t, tt.wantDropped, res.Stats.Dropped)
			assert.Equal(t, 4, res.Stats.Rows)

			greet := decode(t, sink.files["Default_Greet.json"])
			assert.Equal(t, []string{"hi"}, greet.SampleUtterances)
			require.Len(t, greet.ConclusionStatement.Messages, 1)
			assert.Equal(t, lex.Message{ContentType: "PlainText", Content: "hello"}, greet.ConclusionStatement.Messages[0])

			if tt.flush {
				pay := decode(t, sink.files["Billing_PayNow.json"])
				assert.Equal(t, []string{"pay"}, pay.SampleUtterances)
				assert.Len(t, pay.ConclusionStatement.Messages, 1)
			}
		})
	}
}

func TestConvert_BlankLineSeparatesDelimitedBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"Intent,Utterance,Response\n"+
			"Default.greet,hi,hello\n"+
			"\n"+
			"Billing.pay_now,pay,done\n"), 0o644))

	src, err := sheet.Open(path, 1)
	require.NoError(t, err)

	sink := newMemorySink()
	res, err := Convert(src, sink, defaultOptions(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"Default_Greet.json", "Billing_PayNow.json"}, sink.order)

	greet := decode(t, sink.files["Default_Greet.json"])
	assert.Equal(t, []string{"hi"}, greet.SampleUtterances)
	pay := decode(t, sink.files["Billing_PayNow.json"])
	assert.Equal(t, []string{"pay"}, pay.SampleUtterances)

	require.Len(t, res.Blocks, 2)
	assert.Equal(t, 4, res.Blocks[1].FirstRow)
	assert.Equal(t, 4, res.Blocks[1].Phrases[0].Row)
}

func TestConvert_PreservesRowOrder(t *testing.T) {
	src := table(
		[]string{"Faq.hours", "when are you open", "9 to 5"},
		[]string{"Faq.hours", "opening hours", ""},
		[]string{"Faq.hours", "are you open now", "weekdays only"},
		[]string{""},
	)

	sink := newMemorySink()
	res, err := Convert(src, sink, defaultOptions(t))
	require.NoError(t, err)

	in := decode(t, sink.files["Faq_Hours.json"])
	assert.Equal(t, []string{"when are you open", "opening hours", "are you open now"}, in.SampleUtterances)
	require.Len(t, in.ConclusionStatement.Messages, 2)
	assert.Equal(t, "9 to 5", in.ConclusionStatement.Messages[0].Content)
	assert.Equal(t, "weekdays only", in.ConclusionStatement.Messages[1].Content)

	assert.Equal(t, Stats{Rows: 4, Intents: 1, Utterances: 3, Messages: 2}, res.Stats)
}

func TestConvert_BlockCountMatchesRuns(t *testing.T) {
	var rows [][]string
	for i := 0; i < 5; i++ {
		for j := 0; j <= i; j++ {
			rows = append(rows, []string{fmt.Sprintf("Cat.intent_%c", 'a'+i), "u", "r"})
		}
		rows = append(rows, []string{""}, []string{""})
	}

	sink := newMemorySink()
	res, err := Convert(table(rows...), sink, defaultOptions(t))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Stats.Intents)
	assert.Len(t, sink.files, 5)
	assert.Len(t, res.Blocks, 5)
}

func TestConvert_NoBlocks(t *testing.T) {
	sink := newMemorySink()

	res, err := Convert(table(), sink, defaultOptions(t))
	require.NoError(t, err)
	assert.Empty(t, sink.files)
	assert.Zero(t, res.Stats.Intents)

	res, err = Convert(table([]string{"", "stray", "cells"}, []string{""}), sink, defaultOptions(t))
	require.NoError(t, err)
	assert.Empty(t, sink.files)
	assert.Equal(t, 2, res.Stats.Rows)
}

func TestConvert_Idempotent(t *testing.T) {
	src := table(
		[]string{"Default.greet", "hi", "héllo <b>&</b>"},
		[]string{""},
		[]string{"Billing.pay_now", "pay", "done"},
	)

	a, b := newMemorySink(), newMemorySink()
	opts := defaultOptions(t)
	opts.Prefix = "Bot_"
	_, err := Convert(src, a, opts)
	require.NoError(t, err)
	_, err = Convert(src, b, opts)
	require.NoError(t, err)

	assert.Equal(t, a.files, b.files)
	for name, data := range a.files {
		in := decode(t, data)
		assert.Equal(t, strings.TrimSuffix(name, ".json"), in.Resource.Name)
		assert.True(t, strings.HasPrefix(in.Resource.Name, "Bot_"))
	}
}

func TestConvert_HeaderRows(t *testing.T) {
	src := sheet.NewTable("x.csv", "x", [][]string{
		{"Default.greet", "hi", "hello"},
		{""},
	})

	sink := newMemorySink()
	opts := defaultOptions(t)
	opts.HeaderRows = 0
	res, err := Convert(src, sink, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Intents)

	sink = newMemorySink()
	opts.HeaderRows = 1
	res, err = Convert(src, sink, opts)
	require.NoError(t, err)
	assert.Zero(t, res.Stats.Intents, "first row is treated as the header")
}

// ==========================
// Error Handling Tests
// ==========================

func TestConvert_MalformedNameSkipsBlock(t *testing.T) {
	src := table(
		[]string{"greet", "hi", "hello"},
		[]string{"greet", "hey", ""},
		[]string{""},
		[]string{"Billing.pay_now", "pay", "done"},
		[]string{""},
	)

	core, logs := observer.New(zapcore.WarnLevel)
	sink := newMemorySink()
	opts := defaultOptions(t)
	opts.Logger = zap.New(core)

	res, err := Convert(src, sink, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Billing_PayNow.json"}, sink.order)
	assert.Equal(t, 1, res.Stats.Skipped)
	require.Len(t, res.Problems, 1)

	var me *lex.MalformedNameError
	require.True(t, errors.As(res.Problems[0], &me))
	assert.Equal(t, 2, me.Row)

	entries := logs.FilterMessage("skipping block with malformed intent name").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "greet", entries[0].ContextMap()["raw_name"])
}

func TestConvert_MalformedNameStrict(t *testing.T) {
	src := table(
		[]string{"Default.greet", "hi", ""},
		[]string{""},
		[]string{"greet", "hi", ""},
		[]string{""},
	)

	sink := newMemorySink()
	opts := defaultOptions(t)
	opts.Strict = true

	res, err := Convert(src, sink, opts)
	var me *lex.MalformedNameError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 4, me.Row)
	assert.Equal(t, 1, res.Stats.Intents, "blocks before the failure are kept")
}

func TestConvert_DuplicateName(t *testing.T) {
	src := table(
		[]string{"Default.greet", "hi", ""},
		[]string{""},
		[]string{"Other.Default.GREET", "hello", ""},
		[]string{""},
	)

	sink := newMemorySink()
	_, err := Convert(src, sink, defaultOptions(t))

	var de *DuplicateNameError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Default_Greet", de.Name)
	assert.Equal(t, 2, de.FirstRow)
	assert.Equal(t, 4, de.Row)
	assert.Equal(t, []string{"Default_Greet.json"}, sink.order, "the first document is not overwritten")
}

func TestConvert_SourceReadError(t *testing.T) {
	src := failingSource{
		Table:  table([]string{"Default.greet", "hi", ""}, []string{"Default.greet", "hey", ""}),
		badRow: 3,
	}

	_, err := Convert(src, newMemorySink(), defaultOptions(t))
	var re *SourceReadError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 3, re.Row)
	assert.Equal(t, ColName, re.Col)
	assert.EqualError(t, errors.Unwrap(err), "truncated")
}

func TestConvert_Validate(t *testing.T) {
	src := table(
		[]string{"Faq.step_2", "second step", ""},
		[]string{""},
		[]string{"Faq.help", "help", "sure"},
		[]string{""},
	)

	sink := newMemorySink()
	opts := defaultOptions(t)
	opts.Validate = true

	res, err := Convert(src, sink, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Faq_Help.json"}, sink.order)
	assert.Equal(t, 1, res.Stats.Skipped)

	opts.Strict = true
	_, err = Convert(src, newMemorySink(), opts)
	var se *lex.SchemaError
	assert.True(t, errors.As(err, &se))
}
