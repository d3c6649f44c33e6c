package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Sheet)
	assert.Equal(t, 1, cfg.HeaderRows)
	assert.Equal(t, "intents.zip", cfg.Output)
	assert.True(t, cfg.FlushTrailing)
	assert.True(t, cfg.Catalog)
	assert.False(t, cfg.Strict)
	assert.Equal(t, filepath.Join(home, ".config", "df2lex", "catalog.db"), cfg.CatalogPath)
}

func TestLoad_File(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "df2lex")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
prefix = "Bot_"
sheet = 2
output = "~/exports/bot.zip"
flush_trailing = false
validate = true
log_format = "json"

[upload]
url = "s3://bots/lex/"
region = "eu-west-1"
`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Bot_", cfg.Prefix)
	assert.Equal(t, 2, cfg.Sheet)
	assert.Equal(t, filepath.Join(home, "exports", "bot.zip"), cfg.Output)
	assert.False(t, cfg.FlushTrailing)
	assert.True(t, cfg.Validate)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, Upload{URL: "s3://bots/lex/", Region: "eu-west-1"}, cfg.Upload)
	assert.Equal(t, 1, cfg.HeaderRows, "unset keys keep defaults")
}

func TestLoadFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("sheet = 0\n"), 0o644))
	_, err = LoadFile(path)
	assert.ErrorContains(t, err, "sheet must be >= 1")

	require.NoError(t, os.WriteFile(path, []byte("sheet = \n"), 0o644))
	_, err = LoadFile(path)
	assert.ErrorContains(t, err, "parse config")
}
