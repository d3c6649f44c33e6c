package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/df2lex/internal/config"
	"github.com/Zuo-Peng/df2lex/internal/index"
)

var version = "dev"

// configPath is the --config flag; empty means the default location.
var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     "df2lex",
		Short:   "Convert Dialogflow intent spreadsheets into Amazon Lex import archives",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/df2lex/config.toml)")

	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func openCatalog() (*index.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := index.OpenDB(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return db, nil
}
