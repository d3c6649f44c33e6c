package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/df2lex/internal/archive"
	"github.com/Zuo-Peng/df2lex/internal/config"
	"github.com/Zuo-Peng/df2lex/internal/index"
	"github.com/Zuo-Peng/df2lex/internal/logger"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, output path, catalog and FTS5",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}

			fmt.Println("=== Config ===")
			if _, err := os.Stat(path); err != nil {
				fmt.Printf("  File: %s (not found, using defaults)\n", path)
			} else {
				fmt.Printf("  File: %s (OK)\n", path)
			}

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			fmt.Printf("  Prefix: %q  Sheet: %d  Header rows: %d\n", cfg.Prefix, cfg.Sheet, cfg.HeaderRows)
			fmt.Printf("  Flush trailing: %t  Strict: %t  Validate: %t\n", cfg.FlushTrailing, cfg.Strict, cfg.Validate)
			if _, err := logger.New(cfg.LogLevel, cfg.LogFormat); err != nil {
				fmt.Printf("  Logging: %v\n", err)
			} else {
				fmt.Printf("  Logging: %s/%s (OK)\n", cfg.LogLevel, cfg.LogFormat)
			}

			fmt.Println("\n=== Output ===")
			checkDir("Archive dir", filepath.Dir(cfg.Output))
			if cfg.Upload.URL == "" {
				fmt.Println("  Upload: off")
			} else if target, err := archive.ParseS3URL(cfg.Upload.URL); err != nil {
				fmt.Printf("  Upload: %v\n", err)
			} else {
				fmt.Printf("  Upload: %s (region %q)\n", target, cfg.Upload.Region)
			}

			fmt.Println("\n=== Catalog ===")
			fmt.Printf("  Path: %s\n", cfg.CatalogPath)
			if !cfg.Catalog {
				fmt.Println("  Recording: off")
			}
			if _, err := os.Stat(cfg.CatalogPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'df2lex convert' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.CatalogPath)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer db.Close()

			intentCount, err := db.IntentCount()
			if err != nil {
				return fmt.Errorf("count intents: %w", err)
			}
			phraseCount, err := db.PhraseCount()
			if err != nil {
				return fmt.Errorf("count phrases: %w", err)
			}
			fmt.Printf("  Intents: %d\n", intentCount)
			fmt.Printf("  Phrases: %d\n", phraseCount)

			if run, err := db.LastRun(); err == nil && run != nil {
				fmt.Printf("  Last run: %s %s (%d intents, %d skipped)\n", run.CreatedAt, run.SourcePath, run.Intents, run.Skipped)
			}

			fmt.Println("\n=== FTS5 ===")
			ftsCount, err := db.FTSCount()
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == phraseCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (phrases=%d, fts=%d)\n", phraseCount, ftsCount)
				}
			}

			if info, err := os.Stat(cfg.CatalogPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== Catalog Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND, will be created)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}
