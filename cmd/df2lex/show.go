package main

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/df2lex/internal/render"
)

func showCmd() *cobra.Command {
	var hitSeq int
	var query string
	var asJSON, copyDoc bool

	cmd := &cobra.Command{
		Use:   "show <intent>",
		Short: "Show a cataloged intent with the sheet rows it came from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			if asJSON || copyDoc {
				intent, err := db.GetIntent(args[0])
				if err != nil {
					return err
				}
				if intent == nil {
					return fmt.Errorf("intent not found: %s", args[0])
				}
				if copyDoc {
					if err := clipboard.WriteAll(intent.Document); err != nil {
						return fmt.Errorf("clipboard: %w", err)
					}
					fmt.Fprintf(os.Stderr, "Copied %s to clipboard\n", intent.Name)
				}
				if asJSON {
					fmt.Println(intent.Document)
				}
				return nil
			}

			opts := render.Options{HitSeq: hitSeq, Query: query, Plain: true}
			if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
				opts.Plain = false
				if w, _, err := term.GetSize(fd); err == nil {
					opts.Width = w
				}
			}

			out, _, err := render.RenderIntent(db, args[0], opts)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&hitSeq, "hit", -1, "Phrase to highlight")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the Lex JSON document")
	cmd.Flags().BoolVar(&copyDoc, "copy", false, "Copy the Lex JSON document to the clipboard")

	return cmd
}
