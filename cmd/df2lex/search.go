package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/df2lex/internal/search"
	"github.com/Zuo-Peng/df2lex/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeKind(kind string) string {
	switch kind {
	case "utterance":
		return sColorBlue + kind + sColorReset
	case "response":
		return sColorGreen + kind + sColorReset
	default:
		return kind
	}
}

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func searchCmd() *cobra.Command {
	var kind, source string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over cataloged utterances and responses",
		Long: `Search converted intents using FTS5. On a terminal this opens the
interactive browser; otherwise output is TSV for fzf integration:
  intent, phraseSeq, row, kind, source, snippet

Example:
  df2lex search "pay bill" | fzf --ansi --delimiter='\t' --with-nth=3.. \
    --preview 'df2lex show {1} --hit {2} --query {q}' \
    --bind 'enter:execute(df2lex open {1} --hit {2})'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			opts := search.Options{
				Kind:   kind,
				Source: source,
				Limit:  limit,
			}

			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Browse(db, args[0], opts)
			}

			opts.Query = args[0]
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				snippet := strings.NewReplacer("\t", " ", "\n", " ").Replace(r.Snippet)
				// intent and seq stay plain for fzf {1} {2}
				fmt.Printf("%s\t%d\t%s%d%s\t%s\t%s\t%s\n",
					r.Intent,
					r.Seq,
					sColorDim, r.RowNumber, sColorReset,
					colorizeKind(r.Kind),
					r.SourcePath,
					colorizeSnippet(snippet),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Filter by phrase kind (utterance/response)")
	cmd.Flags().StringVar(&source, "source", "", "Filter by source file path substring")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
