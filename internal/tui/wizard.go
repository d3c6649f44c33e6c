package tui

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/df2lex/internal/sheet"
)

// ErrAborted is returned when the user leaves the wizard with Esc or Ctrl-C.
var ErrAborted = errors.New("aborted")

// Answers are the inputs of one conversion.
type Answers struct {
	File   string
	Prefix string
	Sheet  int
}

// CheckFile accepts an existing regular file in a supported format.
func CheckFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("file name is required")
	}
	if !sheet.Supported(path) {
		return fmt.Errorf("%w: use .xlsx, .xlsm, .csv or .tsv", sheet.ErrUnsupported)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// CheckSheet parses a 1-based sheet number.
func CheckSheet(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if n < 1 {
		return 0, errors.New("sheet numbers start at 1")
	}
	return n, nil
}

// checkSheetOf also bounds the number by the workbook's sheet count.
func checkSheetOf(file, s string) (int, error) {
	n, err := CheckSheet(s)
	if err != nil {
		return 0, err
	}
	names, err := sheet.SheetNames(file)
	if err != nil {
		return 0, err
	}
	if n > len(names) {
		return 0, fmt.Errorf("%s has %d sheet(s)", file, len(names))
	}
	return n, nil
}

type wizardStep int

const (
	stepFile wizardStep = iota
	stepPrefix
	stepSheet
	stepDone
)

var stepQuestions = [...]string{
	stepFile:   "Spreadsheet file",
	stepPrefix: "Intent name prefix",
	stepSheet:  "Sheet number",
}

type wizardModel struct {
	step    wizardStep
	input   textinput.Model
	answers Answers
	problem string
	aborted bool
}

func newWizard(defaults Answers) wizardModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 1024
	ti.Focus()

	if defaults.Sheet < 1 {
		defaults.Sheet = 1
	}
	m := wizardModel{input: ti, answers: defaults}
	m.resetInput()
	return m
}

// RunWizard asks for the file, prefix and sheet number. Invalid answers
// re-prompt the same question.
func RunWizard(defaults Answers) (Answers, error) {
	p := tea.NewProgram(newWizard(defaults))
	final, err := p.Run()
	if err != nil {
		return Answers{}, fmt.Errorf("tui: %w", err)
	}
	fm := final.(wizardModel)
	if fm.aborted || fm.step != stepDone {
		return Answers{}, ErrAborted
	}
	return fm.answers, nil
}

func (m *wizardModel) resetInput() {
	switch m.step {
	case stepFile:
		m.input.SetValue(m.answers.File)
		m.input.Placeholder = "intents.xlsx"
	case stepPrefix:
		m.input.SetValue(m.answers.Prefix)
		m.input.Placeholder = "(none)"
	case stepSheet:
		m.input.SetValue(strconv.Itoa(m.answers.Sheet))
		m.input.Placeholder = "1"
	}
	m.input.CursorEnd()
}

// submit validates the current answer and advances on success.
func (m *wizardModel) submit() {
	value := m.input.Value()
	switch m.step {
	case stepFile:
		if err := CheckFile(value); err != nil {
			m.problem = err.Error()
			return
		}
		m.answers.File = strings.TrimSpace(value)
	case stepPrefix:
		m.answers.Prefix = strings.TrimSpace(value)
	case stepSheet:
		n, err := checkSheetOf(m.answers.File, value)
		if err != nil {
			m.problem = err.Error()
			return
		}
		m.answers.Sheet = n
	}
	m.problem = ""
	m.step++
	if m.step != stepDone {
		m.resetInput()
	}
}

func (m wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Quit):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(msg, keys.Enter):
			m.submit()
			if m.step == stepDone {
				return m, tea.Quit
			}
			return m, nil
		case key.Matches(msg, keys.Back):
			if m.step > stepFile {
				m.step--
				m.problem = ""
				m.resetInput()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m wizardModel) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("df2lex: Dialogflow sheet to Lex intents"))
	b.WriteString("\n\n")

	done := []string{
		stepFile:   m.answers.File,
		stepPrefix: m.answers.Prefix,
		stepSheet:  strconv.Itoa(m.answers.Sheet),
	}
	for s := stepFile; s < m.step && s < stepDone; s++ {
		fmt.Fprintf(&b, "%s %s\n", styleQuestion.Render(stepQuestions[s]+":"), styleAnswered.Render(done[s]))
	}
	if m.step == stepDone || m.aborted {
		return b.String()
	}

	b.WriteString(styleQuestion.Render(stepQuestions[m.step]+":") + "\n")
	b.WriteString(m.input.View() + "\n")
	if m.problem != "" {
		b.WriteString(styleError.Render(m.problem) + "\n")
	}
	b.WriteString(styleStatusBar.Render("Enter confirm | S-tab back | Esc quit") + "\n")
	return b.String()
}
