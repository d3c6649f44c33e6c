package convert

import (
	"fmt"
	"strings"

	"github.com/Zuo-Peng/df2lex/internal/lex"
)

// Columns of an intent sheet.
const (
	ColName      = 1
	ColUtterance = 2
	ColResponse  = 3
)

type Row struct {
	Index     int
	Name      string
	Utterance string
	Response  string
}

// Boundary reports whether the row closes the open block.
func (r Row) Boundary() bool {
	return strings.TrimSpace(r.Name) == ""
}

type PhraseKind string

const (
	KindUtterance PhraseKind = "utterance"
	KindResponse  PhraseKind = "response"
)

type Phrase struct {
	Kind PhraseKind
	Text string
	Row  int
}

// Block is a finished intent and the rows it was built from.
type Block struct {
	Intent   *lex.Intent
	RawName  string
	FirstRow int
	LastRow  int
	Phrases  []Phrase
}

func (b *Block) Name() string {
	return b.Intent.Resource.Name
}

type Stats struct {
	Rows       int
	Intents    int
	Utterances int
	Messages   int
	Skipped    int
	Dropped    int
}

func (s Stats) String() string {
	return fmt.Sprintf("rows=%d intents=%d utterances=%d messages=%d skipped=%d dropped=%d",
		s.Rows, s.Intents, s.Utterances, s.Messages, s.Skipped, s.Dropped)
}

type Result struct {
	Stats  Stats
	Blocks []*Block
	// Problems holds per-block errors that were skipped rather than returned.
	Problems []error
}

// DuplicateNameError reports two blocks that resolve to the same intent name.
type DuplicateNameError struct {
	Name     string
	Row      int
	FirstRow int
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("row %d: intent %s already produced by the block at row %d", e.Row, e.Name, e.FirstRow)
}

// SourceReadError reports a cell the row source could not supply.
type SourceReadError struct {
	Row int
	Col int
	Err error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("read row %d column %d: %v", e.Row, e.Col, e.Err)
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}
