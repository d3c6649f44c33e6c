package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/df2lex/internal/index"
)

const (
	colorReset   = "\033[0m"
	colorUtter   = "\033[1;34m" // bold blue
	colorResp    = "\033[1;32m" // bold green
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

type Options struct {
	HitSeq int    // phrase to mark, -1 for none
	Width  int    // wrap width (0 = no wrap)
	Query  string // search query for keyword highlighting
	Plain  bool   // no ANSI codes
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	var filtered []string
	for _, t := range strings.Fields(query) {
		if !fts5Operators[t] {
			filtered = append(filtered, t)
		}
	}
	for _, term := range filtered {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}
	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// RenderIntent renders a cataloged intent with its phrases grouped by kind,
// each tagged with the sheet row it came from. It returns the content and
// the 0-based line of the hit phrase (-1 if no hit).
func RenderIntent(db *index.DB, name string, opts Options) (string, int, error) {
	intent, err := db.GetIntent(name)
	if err != nil {
		return "", -1, fmt.Errorf("get intent: %w", err)
	}
	if intent == nil {
		return "", -1, fmt.Errorf("intent not found: %s", name)
	}

	phrases, err := db.GetPhrases(name)
	if err != nil {
		return "", -1, fmt.Errorf("get phrases: %w", err)
	}

	var b strings.Builder
	hitLine := -1
	lineCount := 0
	color := func(code, s string) string {
		if opts.Plain {
			return s
		}
		return code + s + colorReset
	}
	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	writeLine(color(colorDim, fmt.Sprintf("--- %s [%s] %s rows %d-%d ---",
		intent.Name, intent.RawName, intent.SourcePath, intent.FirstRow, intent.LastRow)))

	sections := []struct {
		kind, label, code string
	}{
		{"utterance", "UTTERANCES", colorUtter},
		{"response", "RESPONSES", colorResp},
	}
	for _, sec := range sections {
		writeLine(color(sec.code, sec.label))
		n := 0
		for _, p := range phrases {
			if p.Kind != sec.kind {
				continue
			}
			n++
			text := p.Text
			if !opts.Plain {
				text = highlightKeywords(text, opts.Query)
			}
			row := fmt.Sprintf("%4d", p.RowNumber)
			if p.Seq == opts.HitSeq {
				hitLine = lineCount
				writeLine(color(colorHit, ">> "+row) + "  " + text)
			} else {
				writeLine(color(colorDim, "   "+row) + "  " + text)
			}
		}
		if n == 0 {
			writeLine(color(colorDim, "   (none)"))
		}
		writeLine("")
	}

	return b.String(), hitLine, nil
}
