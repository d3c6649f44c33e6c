package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/df2lex/internal/index"
)

// OpenSource opens the spreadsheet an intent came from. Text sources jump
// to the hit phrase's row, or the intent's header row when hitSeq < 0.
func OpenSource(db *index.DB, name string, hitSeq int) error {
	intent, err := db.GetIntent(name)
	if err != nil {
		return fmt.Errorf("get intent: %w", err)
	}
	if intent == nil {
		return fmt.Errorf("intent not found: %s", name)
	}

	filePath := intent.SourcePath
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}

	var phrases []index.PhraseRow
	if hitSeq >= 0 {
		phrases, err = db.GetPhrases(name)
		if err != nil {
			return fmt.Errorf("get phrases: %w", err)
		}
	}
	lineNum := sourceLine(intent, phrases, hitSeq)

	if !isText(filePath) {
		return openWithSystem(filePath)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}
	return openInEditor(editor, filePath, lineNum)
}

// sourceLine maps a phrase to its 1-based line in a text source. Blank lines
// count as rows, so rows and lines coincide unless a quoted field above the
// phrase spans several lines.
func sourceLine(intent *index.IntentRow, phrases []index.PhraseRow, hitSeq int) int {
	for _, p := range phrases {
		if p.Seq == hitSeq && p.RowNumber > 0 {
			return p.RowNumber
		}
	}
	if intent.FirstRow > 0 {
		return intent.FirstRow
	}
	return 1
}

func isText(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return true
	}
	return false
}

func editorArgs(editor, filePath string, lineNum int) []string {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return []string{fmt.Sprintf("+%d", lineNum), filePath}
	case strings.Contains(editor, "code"):
		return []string{"--goto", filePath + ":" + strconv.Itoa(lineNum)}
	case strings.Contains(editor, "less"):
		return []string{"+" + strconv.Itoa(lineNum), filePath}
	default:
		return []string{filePath}
	}
}

func openInEditor(editor, filePath string, lineNum int) error {
	cmd := exec.Command(editor, editorArgs(editor, filePath, lineNum)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// workbooks go to the desktop handler
func openWithSystem(filePath string) error {
	opener := "xdg-open"
	if _, err := exec.LookPath("open"); err == nil {
		opener = "open"
	}
	cmd := exec.Command(opener, filePath)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
