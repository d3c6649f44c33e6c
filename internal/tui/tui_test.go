package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/df2lex/internal/search"
)

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,utterance,response\nDefault.greet,hi,hello\n"), 0o644))
	return path
}

func step(t *testing.T, m wizardModel, msg tea.Msg) (wizardModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(wizardModel), cmd
}

func typeText(t *testing.T, m wizardModel, s string) wizardModel {
	t.Helper()
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

var (
	enter    = tea.KeyMsg{Type: tea.KeyEnter}
	shiftTab = tea.KeyMsg{Type: tea.KeyShiftTab}
	esc      = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestWizard_CompletesWithValidAnswers(t *testing.T) {
	csv := writeCSV(t)
	m := newWizard(Answers{})

	m = typeText(t, m, filepath.Join(filepath.Dir(csv), "missing.csv"))
	m, cmd := step(t, m, enter)
	assert.Nil(t, cmd)
	assert.Equal(t, stepFile, m.step, "invalid file re-prompts")
	assert.NotEmpty(t, m.problem)
	assert.Contains(t, m.View(), m.problem)

	m.input.SetValue(csv)
	m, _ = step(t, m, enter)
	require.Equal(t, stepPrefix, m.step)
	assert.Empty(t, m.problem)
	assert.Equal(t, "", m.input.Value())

	m = typeText(t, m, "Bot_")
	m, _ = step(t, m, enter)
	require.Equal(t, stepSheet, m.step)
	assert.Equal(t, "1", m.input.Value(), "sheet defaults to 1")

	m.input.SetValue("2")
	m, _ = step(t, m, enter)
	assert.Equal(t, stepSheet, m.step, "csv has a single sheet")
	assert.Contains(t, m.problem, "1 sheet(s)")

	m.input.SetValue("1")
	m, cmd = step(t, m, enter)
	assert.Equal(t, stepDone, m.step)
	assert.NotNil(t, cmd)
	assert.Equal(t, Answers{File: csv, Prefix: "Bot_", Sheet: 1}, m.answers)
	assert.False(t, m.aborted)
}

func TestWizard_Back(t *testing.T) {
	csv := writeCSV(t)
	m := newWizard(Answers{File: csv, Prefix: "X_", Sheet: 1})
	assert.Equal(t, csv, m.input.Value(), "defaults prefill the input")

	m, _ = step(t, m, enter)
	require.Equal(t, stepPrefix, m.step)
	assert.Equal(t, "X_", m.input.Value())

	m, _ = step(t, m, shiftTab)
	assert.Equal(t, stepFile, m.step)
	assert.Equal(t, csv, m.input.Value())

	m, _ = step(t, m, shiftTab)
	assert.Equal(t, stepFile, m.step, "first question has nothing before it")
}

func TestWizard_Abort(t *testing.T) {
	m := newWizard(Answers{})
	m, cmd := step(t, m, esc)
	assert.True(t, m.aborted)
	assert.NotNil(t, cmd)
}

func TestCheckFile(t *testing.T) {
	csv := writeCSV(t)
	dir := filepath.Join(t.TempDir(), "folder.csv")
	require.NoError(t, os.Mkdir(dir, 0o755))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"ok", csv, ""},
		{"ok with spaces", "  " + csv + " ", ""},
		{"empty", "   ", "required"},
		{"unsupported", "notes.txt", "unsupported"},
		{"missing", filepath.Join(t.TempDir(), "nope.xlsx"), "cannot read"},
		{"directory", dir, "is a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFile(tt.path)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCheckSheet(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{" 3 ", 3, false},
		{"0", 0, true},
		{"-2", 0, true},
		{"two", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CheckSheet(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatResultLine(t *testing.T) {
	r := search.Result{
		Intent:     "Billing_PayNow",
		Kind:       "utterance",
		RowNumber:  12,
		SourcePath: "/data/bot.xlsx",
		Snippet:    "pay my >>>bill<<<\tnow",
	}
	lines := formatResultLine(r, 60, true)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Billing_PayNow  bot.xlsx")
	assert.Contains(t, lines[0], "   12")
	assert.Contains(t, lines[1], "pay my bill now")
	assert.False(t, strings.Contains(lines[1], ">>>"))
}

func TestAdjustListScroll(t *testing.T) {
	m := model{cursor: 7}
	m.adjustListScroll(6) // 3 items visible
	assert.Equal(t, 5, m.listOffset)

	m.cursor = 2
	m.adjustListScroll(6)
	assert.Equal(t, 2, m.listOffset)
}
