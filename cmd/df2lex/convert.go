package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Zuo-Peng/df2lex/internal/archive"
	"github.com/Zuo-Peng/df2lex/internal/config"
	"github.com/Zuo-Peng/df2lex/internal/convert"
	"github.com/Zuo-Peng/df2lex/internal/index"
	"github.com/Zuo-Peng/df2lex/internal/lex"
	"github.com/Zuo-Peng/df2lex/internal/logger"
	"github.com/Zuo-Peng/df2lex/internal/sheet"
	"github.com/Zuo-Peng/df2lex/internal/tui"
)

type convertFlags struct {
	prefix        string
	sheet         int
	output        string
	headerRows    int
	flushTrailing bool
	strict        bool
	validate      bool
	noCatalog     bool
	upload        string
}

// apply overrides config values with the flags set on the command line.
func (f convertFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("prefix") {
		cfg.Prefix = f.prefix
	}
	if changed("sheet") {
		cfg.Sheet = f.sheet
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("header-rows") {
		cfg.HeaderRows = f.headerRows
	}
	if changed("flush-trailing") {
		cfg.FlushTrailing = f.flushTrailing
	}
	if changed("strict") {
		cfg.Strict = f.strict
	}
	if changed("validate") {
		cfg.Validate = f.validate
	}
	if changed("no-catalog") {
		cfg.Catalog = !f.noCatalog
	}
	if changed("upload") {
		cfg.Upload.URL = f.upload
	}
}

func convertCmd() *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a Dialogflow intent sheet into a Lex intents zip",
		Long: `Reads a spreadsheet laid out as name / utterance / response columns and
writes one Lex intent JSON document per block of rows into a zip archive.

A non-blank name cell starts a block, following rows add utterances and
responses, and a row with a blank name closes it. Names like
"Billing.pay_now" become "Billing_PayNow", with the prefix put in front.

Without a file argument on a terminal, an interactive prompt asks for the
file, prefix and sheet number.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			f.apply(cmd, cfg)

			var file string
			switch {
			case len(args) == 1:
				file = args[0]
			case term.IsTerminal(int(os.Stdin.Fd())):
				answers, err := tui.RunWizard(tui.Answers{Prefix: cfg.Prefix, Sheet: cfg.Sheet})
				if errors.Is(err, tui.ErrAborted) {
					return nil
				}
				if err != nil {
					return err
				}
				file, cfg.Prefix, cfg.Sheet = answers.File, answers.Prefix, answers.Sheet
			default:
				return errors.New("no input file given")
			}
			if cfg.Sheet < 1 {
				return fmt.Errorf("sheet numbers start at 1, got %d", cfg.Sheet)
			}

			log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer log.Sync()

			return runConvert(cmd, cfg, file, log)
		},
	}

	cmd.Flags().StringVar(&f.prefix, "prefix", "", "Prefix for every intent name")
	cmd.Flags().IntVar(&f.sheet, "sheet", 1, "Sheet number, starting at 1")
	cmd.Flags().StringVarP(&f.output, "output", "o", "intents.zip", "Archive to write")
	cmd.Flags().IntVar(&f.headerRows, "header-rows", 1, "Leading rows that are not data")
	cmd.Flags().BoolVar(&f.flushTrailing, "flush-trailing", true, "Emit the last block even without a closing blank row")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Abort on malformed names and schema violations")
	cmd.Flags().BoolVar(&f.validate, "validate", false, "Check every document against the Lex intent schema")
	cmd.Flags().BoolVar(&f.noCatalog, "no-catalog", false, "Do not record the run in the local catalog")
	cmd.Flags().StringVar(&f.upload, "upload", "", "Also upload the archive to s3://bucket/key")

	return cmd
}

func runConvert(cmd *cobra.Command, cfg *config.Config, file string, log *zap.Logger) error {
	table, err := sheet.Open(file, cfg.Sheet)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	fmt.Fprintf(os.Stderr, "Reading %s (sheet %q, %d rows)...\n", file, table.Sheet, table.MaxRow())

	w, err := archive.Create(cfg.Output)
	if err != nil {
		return err
	}

	res, err := convert.Convert(table, w, convert.Options{
		Prefix:        cfg.Prefix,
		HeaderRows:    cfg.HeaderRows,
		FlushTrailing: cfg.FlushTrailing,
		Strict:        cfg.Strict,
		Validate:      cfg.Validate,
		Logger:        log,
	})
	if err != nil {
		w.Abort()
		return explainConvertError(file, err)
	}
	if err := w.Close(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Wrote %s: %s\n", cfg.Output, res.Stats)
	if res.Stats.Intents == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no intents found; check --header-rows and the sheet number")
	}

	if cfg.Catalog {
		if err := record(cfg, file, table.Sheet, res); err != nil {
			// the archive is already written
			log.Warn("catalog not updated", zap.Error(err))
		}
	}

	if cfg.Upload.URL != "" {
		target, err := archive.ParseS3URL(cfg.Upload.URL)
		if err != nil {
			return err
		}
		client, err := archive.NewS3Client(cmd.Context(), cfg.Upload.Region, cfg.Upload.Endpoint)
		if err != nil {
			return err
		}
		dest, err := archive.Upload(cmd.Context(), client, target, cfg.Output)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Uploaded to %s\n", dest)
	}
	return nil
}

func record(cfg *config.Config, file, sheetName string, res *convert.Result) error {
	db, err := index.OpenDB(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer db.Close()

	source, err := filepath.Abs(file)
	if err != nil {
		source = file
	}
	output, err := filepath.Abs(cfg.Output)
	if err != nil {
		output = cfg.Output
	}

	run := index.NewRun(source, sheetName, output, cfg.Prefix, res.Stats)
	return index.RecordRun(db, run, res.Blocks)
}

// explainConvertError adds a hint for errors the user can fix in the sheet.
func explainConvertError(file string, err error) error {
	var dup *convert.DuplicateNameError
	var malformed *lex.MalformedNameError
	var schema *lex.SchemaError
	var read *convert.SourceReadError

	switch {
	case errors.As(err, &dup):
		return fmt.Errorf("%s: %w (rename one of the blocks or use --prefix)", file, err)
	case errors.As(err, &malformed), errors.As(err, &schema):
		return fmt.Errorf("%s: %w (run without --strict to skip the block)", file, err)
	case errors.As(err, &read):
		return fmt.Errorf("%s: %w", file, err)
	default:
		return fmt.Errorf("convert %s: %w", file, err)
	}
}
