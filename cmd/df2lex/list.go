package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/df2lex/internal/index"
	"github.com/Zuo-Peng/df2lex/internal/search"
	"github.com/Zuo-Peng/df2lex/internal/tui"
)

func listCmd() *cobra.Command {
	var source string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cataloged intents, most recently converted first",
		Long: `On a terminal this opens the interactive browser; type to search.
Otherwise prints TSV: intent, rows, source, updatedAt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Browse(db, "", search.Options{Source: source, Limit: limit})
			}

			intents, err := db.ListIntents(index.ListOptions{Source: source, Limit: limit})
			if err != nil {
				return err
			}
			for _, in := range intents {
				fmt.Printf("%s\t%d-%d\t%s\t%s\n", in.Name, in.FirstRow, in.LastRow, in.SourcePath, in.UpdatedAt)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Filter by source file path substring")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = no limit)")

	return cmd
}
