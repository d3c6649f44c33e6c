package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/df2lex/internal/index"
)

type Result struct {
	Intent     string
	Seq        int
	Kind       string
	RowNumber  int
	SourcePath string
	UpdatedAt  string
	Snippet    string
	Rank       float64
}

type Options struct {
	Query  string
	Kind   string // "" = all, "utterance", "response"
	Source string // "" = all, otherwise a source path substring
	Limit  int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in
// text, with the match wrapped in >>> <<< markers.
func makeSnippet(text, query string, contextChars int) string {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(query))
	runes := []rune(text)
	if idx < 0 || query == "" {
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}

	qLen := len([]rune(query))
	runePos := len([]rune(text[:idx]))
	start := max(runePos-contextChars, 0)
	end := min(runePos+qLen+contextChars, len(runes))

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(string(runes[start:runePos]))
	b.WriteString(">>>" + string(runes[runePos:runePos+qLen]) + "<<<")
	b.WriteString(string(runes[runePos+qLen : end]))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}

// Search finds phrases matching the query and keeps the best hit per intent.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("empty query")
	}

	// fetch more before dedup so enough intents remain
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.Intent] {
			continue
		}
		seen[r.Intent] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

// ListAll returns cataloged intents as results, most recent first. The
// snippet is the intent's first phrase.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	intents, err := db.ListIntents(index.ListOptions{Source: opts.Source, Limit: opts.Limit})
	if err != nil {
		return nil, fmt.Errorf("list intents: %w", err)
	}

	results := make([]Result, 0, len(intents))
	for _, in := range intents {
		r := Result{
			Intent:     in.Name,
			Seq:        -1,
			RowNumber:  in.FirstRow,
			SourcePath: in.SourcePath,
			UpdatedAt:  in.UpdatedAt,
		}
		phrases, err := db.GetPhrases(in.Name)
		if err != nil {
			return nil, fmt.Errorf("get phrases: %w", err)
		}
		if len(phrases) > 0 {
			r.Kind = phrases[0].Kind
			r.Snippet = phrases[0].Text
		}
		results = append(results, r)
	}
	return results, nil
}

func filters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any
	if opts.Kind != "" {
		conditions = append(conditions, "p.kind = ?")
		args = append(args, opts.Kind)
	}
	if opts.Source != "" {
		conditions = append(conditions, "i.source_path LIKE ?")
		args = append(args, "%"+opts.Source+"%")
	}
	return conditions, args
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"phrases_fts MATCH ?"}
	args := []any{opts.Query}
	more, moreArgs := filters(opts)
	conditions = append(conditions, more...)
	args = append(args, moreArgs...)

	query := fmt.Sprintf(`
		SELECT
			p.intent,
			p.seq,
			p.kind,
			p.row_number,
			i.source_path,
			i.updated_at,
			snippet(phrases_fts, 0, '>>>', '<<<', '...', 24) AS snip,
			bm25(phrases_fts) AS rank
		FROM phrases_fts
		JOIN phrases p ON phrases_fts.rowid = p.rowid
		JOIN intents i ON p.intent = i.name
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"p.text LIKE ?"}
	args := []any{"%" + opts.Query + "%"}
	more, moreArgs := filters(opts)
	conditions = append(conditions, more...)
	args = append(args, moreArgs...)

	query := fmt.Sprintf(`
		SELECT
			p.intent,
			p.seq,
			p.kind,
			p.row_number,
			i.source_path,
			i.updated_at,
			p.text,
			0.0
		FROM phrases p
		JOIN intents i ON p.intent = i.name
		WHERE %s
		ORDER BY i.updated_at DESC, p.intent, p.seq
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Snippet = makeSnippet(results[i].Snippet, opts.Query, 20)
	}
	return results, nil
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.Intent, &r.Seq, &r.Kind, &r.RowNumber,
			&r.SourcePath, &r.UpdatedAt, &r.Snippet, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
