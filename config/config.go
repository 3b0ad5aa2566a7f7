// ABOUTME: Runtime configuration for leadledger
// ABOUTME: Layers defaults, an optional YAML file and LEADLEDGER_ environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override, e.g. LEADLEDGER_DB_PATH.
	EnvPrefix = "LEADLEDGER_"
	// EnvConfigFile points at a YAML file other than the default location.
	EnvConfigFile = "LEADLEDGER_CONFIG"
	// MaxBatchRows is the host limit on data rows per Sheets update call.
	MaxBatchRows = 10
)

var (
	// ErrMissingInput is returned when a command is run without a required file.
	ErrMissingInput = errors.New("missing required input")
	// ErrSheetsNotConfigured is returned when a sheet upload lacks a target.
	ErrSheetsNotConfigured = errors.New("google sheets not configured")
)

// Config is the merged configuration.
type Config struct {
	DBPath      string `koanf:"db_path"`
	LogLevel    string `koanf:"log_level"`
	MetricsFile string `koanf:"metrics_file"`

	Sheets SheetsConfig `koanf:"sheets"`
	Store  StoreConfig  `koanf:"store"`
}

type SheetsConfig struct {
	CredentialsFile string `koanf:"credentials_file"`
	SpreadsheetID   string `koanf:"spreadsheet_id"`
	Tab             string `koanf:"tab"`
	BatchRows       int    `koanf:"batch_rows"`
}

type StoreConfig struct {
	BatchSize int `koanf:"batch_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:   DefaultDBPath(),
		LogLevel: "warn",
		Sheets: SheetsConfig{
			Tab:       "Sheet1",
			BatchRows: MaxBatchRows,
		},
		Store: StoreConfig{
			BatchSize: 500,
		},
	}
}

func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "leadledger", "leadledger.db")
}

// DefaultConfigFile is config.yaml under the XDG config directory.
func DefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, "leadledger", "config.yaml")
}

// LoadEnvFiles reads .env.local and .env from dir into the process
// environment. Variables already set are kept, and .env.local wins over .env.
func LoadEnvFiles(dir string) error {
	for _, name := range []string{".env.local", ".env"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// Load builds a Config. Precedence from low to high: defaults, the YAML file
// (LEADLEDGER_CONFIG or the XDG default, skipped when absent), environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	path := os.Getenv(EnvConfigFile)
	if path == "" {
		path = DefaultConfigFile()
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Sheets.CredentialsFile == "" {
		cfg.Sheets.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if cfg.Store.BatchSize <= 0 {
		return nil, fmt.Errorf("store.batch_size must be positive, got %d", cfg.Store.BatchSize)
	}
	if cfg.Sheets.BatchRows <= 0 || cfg.Sheets.BatchRows > MaxBatchRows {
		return nil, fmt.Errorf("sheets.batch_rows must be between 1 and %d, got %d", MaxBatchRows, cfg.Sheets.BatchRows)
	}
	return cfg, nil
}

// envKey maps LEADLEDGER_SHEETS_SPREADSHEET_ID to sheets.spreadsheet_id.
// Only the section name is split off; field names keep their underscores.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range []string{"sheets", "store"} {
		if rest, ok := strings.CutPrefix(s, section+"_"); ok {
			return section + "." + rest
		}
	}
	return s
}

// RequireSheets checks that an upload has somewhere to go.
func (c *Config) RequireSheets() error {
	var missing []string
	if c.Sheets.SpreadsheetID == "" {
		missing = append(missing, "spreadsheet id")
	}
	if c.Sheets.Tab == "" {
		missing = append(missing, "tab")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrSheetsNotConfigured, strings.Join(missing, " and "))
	}
	return nil
}
