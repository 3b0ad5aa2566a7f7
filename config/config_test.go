// ABOUTME: Tests for configuration layering and env file loading
// ABOUTME: Uses temp dirs for XDG paths and t.Setenv for overrides
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	origConfig := xdg.ConfigHome
	xdg.ConfigHome = t.TempDir()
	t.Cleanup(func() { xdg.ConfigHome = origConfig })
	t.Setenv(EnvConfigFile, "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultDBPath(), cfg.DBPath)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 10, cfg.Sheets.BatchRows)
	assert.Equal(t, "Sheet1", cfg.Sheets.Tab)
	assert.Equal(t, 500, cfg.Store.BatchSize)
	assert.Empty(t, cfg.MetricsFile)
}

func TestLoadFileThenEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `db_path: /tmp/from-file.db
log_level: debug
sheets:
  spreadsheet_id: file-sheet
  tab: Unified
store:
  batch_size: 100
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))
	t.Setenv(EnvConfigFile, path)
	t.Setenv("LEADLEDGER_LOG_LEVEL", "warn")
	t.Setenv("LEADLEDGER_SHEETS_SPREADSHEET_ID", "env-sheet")
	t.Setenv("LEADLEDGER_STORE_BATCH_SIZE", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.DBPath)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "env-sheet", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, "Unified", cfg.Sheets.Tab)
	assert.Equal(t, 10, cfg.Sheets.BatchRows)
	assert.Equal(t, 250, cfg.Store.BatchSize)
}

func TestLoadDefaultConfigFile(t *testing.T) {
	isolate(t)

	dir := filepath.Join(xdg.ConfigHome, "leadledger")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("metrics_file: /tmp/ll.prom\n"), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ll.prom", cfg.MetricsFile)
}

func TestLoadRejectsBadBatchSize(t *testing.T) {
	isolate(t)
	t.Setenv("LEADLEDGER_STORE_BATCH_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.batch_size")
}

func TestLoadRejectsBatchRowsOverLimit(t *testing.T) {
	isolate(t)
	t.Setenv("LEADLEDGER_SHEETS_BATCH_ROWS", "25")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets.batch_rows")

	t.Setenv("LEADLEDGER_SHEETS_BATCH_ROWS", "10")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MaxBatchRows, cfg.Sheets.BatchRows)
}

func TestLoadMissingConfigFile(t *testing.T) {
	isolate(t)
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestGoogleCredentialsFallback(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/sa.json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/secrets/sa.json", cfg.Sheets.CredentialsFile)
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"LEADLEDGER_DB_PATH", "db_path"},
		{"LEADLEDGER_SHEETS_SPREADSHEET_ID", "sheets.spreadsheet_id"},
		{"LEADLEDGER_SHEETS_BATCH_ROWS", "sheets.batch_rows"},
		{"LEADLEDGER_STORE_BATCH_SIZE", "store.batch_size"},
		{"LEADLEDGER_METRICS_FILE", "metrics_file"},
	}

	for _, tt := range tests {
		if got := envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRequireSheets(t *testing.T) {
	cfg := Default()
	err := cfg.RequireSheets()
	require.ErrorIs(t, err, ErrSheetsNotConfigured)
	assert.Contains(t, err.Error(), "spreadsheet id")

	cfg.Sheets.SpreadsheetID = "abc"
	assert.NoError(t, cfg.RequireSheets())

	cfg.Sheets.Tab = ""
	assert.ErrorIs(t, cfg.RequireSheets(), ErrSheetsNotConfigured)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LL_TEST_A=from-env\nLL_TEST_B=from-env\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("LL_TEST_A=from-local\n"), 0600))
	t.Setenv("LL_TEST_A", "")
	t.Setenv("LL_TEST_B", "")
	require.NoError(t, os.Unsetenv("LL_TEST_A"))
	require.NoError(t, os.Unsetenv("LL_TEST_B"))

	require.NoError(t, LoadEnvFiles(dir))
	assert.Equal(t, "from-local", os.Getenv("LL_TEST_A"))
	assert.Equal(t, "from-env", os.Getenv("LL_TEST_B"))
}

func TestLoadEnvFilesMissing(t *testing.T) {
	assert.NoError(t, LoadEnvFiles(t.TempDir()))
}
