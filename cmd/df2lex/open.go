package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/df2lex/internal/open"
)

func openCmd() *cobra.Command {
	var hitSeq int

	cmd := &cobra.Command{
		Use:   "open <intent>",
		Short: "Open the intent's source sheet, in $EDITOR at the row for CSV/TSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			return open.OpenSource(db, args[0], hitSeq)
		},
	}

	cmd.Flags().IntVar(&hitSeq, "hit", -1, "Phrase to jump to")

	return cmd
}
