package convert

import (
	"errors"
	"strings"

	"github.com/Zuo-Peng/df2lex/internal/lex"
)

// State is the grouping state between two rows. The zero value has no
// open block.
type State struct {
	open     *Block
	skipping bool
}

// Open reports whether a block is currently being accumulated.
func (s State) Open() bool {
	return s.open != nil
}

// Skipping reports whether rows are ignored until the next boundary
// because the block header had a malformed name.
func (s State) Skipping() bool {
	return s.skipping
}

// Step applies one row to the state. It returns the block closed by the
// row, if any. A malformed header name returns a *lex.MalformedNameError
// together with a state that skips the rest of that block.
func Step(s State, row Row, prefix string) (State, *Block, error) {
	if row.Boundary() {
		return State{}, s.open, nil
	}
	if s.skipping {
		return s, nil, nil
	}

	b := s.open
	if b == nil {
		raw := strings.TrimSpace(row.Name)
		name, err := lex.ParseName(raw, prefix)
		if err != nil {
			var me *lex.MalformedNameError
			if errors.As(err, &me) {
				me.Row = row.Index
			}
			return State{skipping: true}, nil, err
		}
		b = &Block{
			Intent:   lex.NewIntent(name),
			RawName:  raw,
			FirstRow: row.Index,
		}
	}

	b.LastRow = row.Index
	if row.Utterance != "" {
		b.Intent.AddUtterance(row.Utterance)
		b.Phrases = append(b.Phrases, Phrase{Kind: KindUtterance, Text: row.Utterance, Row: row.Index})
	}
	if row.Response != "" {
		b.Intent.AddResponse(row.Response)
		b.Phrases = append(b.Phrases, Phrase{Kind: KindResponse, Text: row.Response, Row: row.Index})
	}
	return State{open: b}, nil, nil
}

// Flush returns the block left open at end of input.
func Flush(s State) *Block {
	return s.open
}
