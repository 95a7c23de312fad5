// Package config loads and saves the garage TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/garage/internal/model"
)

// Store backends.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// Fuel entry modes.
const (
	FuelEntryTotal = "total" // liters + total cost, unit price derived
	FuelEntryUnit  = "unit"  // liters + unit price, total derived
)

// DefaultMileage is used when neither table has an odometer reading.
const DefaultMileage = 150000

// Config holds all garage configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Store      StoreConfig      `toml:"store"`
	Appearance AppearanceConfig `toml:"appearance"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Parts      []model.PartSpec `toml:"parts,omitempty"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Vehicle        string `toml:"vehicle"`
	DefaultMileage int    `toml:"default_mileage"`
	FuelEntryMode  string `toml:"fuel_entry_mode"`
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Backend          string `toml:"backend"`
	SpreadsheetID    string `toml:"spreadsheet_id,omitempty"`
	CredentialsFile  string `toml:"credentials_file,omitempty"`
	MaintenanceTable string `toml:"maintenance_table"`
	FuelTable        string `toml:"fuel_table"`
	DBPath           string `toml:"db_path,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DaemonConfig holds defaults for `garage daemon`.
type DaemonConfig struct {
	Addr        string `toml:"addr"`
	IntervalSec int    `toml:"interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Vehicle:        "Suzuki Swift",
			DefaultMileage: DefaultMileage,
			FuelEntryMode:  FuelEntryTotal,
		},
		Store: StoreConfig{
			Backend:          BackendSheets,
			MaintenanceTable: "維修紀錄",
			FuelTable:        "加油紀錄",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Daemon: DaemonConfig{
			Addr:        "127.0.0.1:8788",
			IntervalSec: 60,
		},
	}
}

var pathOverride string

// SetPath overrides the config file location (the --config flag).
func SetPath(p string) {
	pathOverride = p
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "garage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "garage")
}

// StateDir returns the directory for logs, pid files and the local database.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "garage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "garage")
}

// Path returns the full path to the config file.
func Path() string {
	if pathOverride != "" {
		return pathOverride
	}
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	} else if err := Decode(data, &cfg); err != nil {
		return cfg, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Decode parses TOML into cfg and normalizes the result.
func Decode(data []byte, cfg *Config) error {
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	normalize(cfg)
	if len(cfg.Parts) > 0 {
		if err := ValidateParts(cfg.Parts); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}
	return nil
}

func normalize(cfg *Config) {
	if cfg.General.DefaultMileage <= 0 {
		cfg.General.DefaultMileage = DefaultMileage
	}
	switch cfg.General.FuelEntryMode {
	case FuelEntryTotal, FuelEntryUnit:
	default:
		cfg.General.FuelEntryMode = FuelEntryTotal
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendSheets
	}
	if cfg.Daemon.IntervalSec < 10 {
		cfg.Daemon.IntervalSec = 60
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GARAGE_SPREADSHEET_ID"); v != "" {
		cfg.Store.SpreadsheetID = v
	}
	if v := os.Getenv("GARAGE_CREDENTIALS_FILE"); v != "" {
		cfg.Store.CredentialsFile = v
	}
	if v := os.Getenv("GARAGE_STORE"); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(Path()), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// DBPath returns the sqlite database path, defaulting under StateDir.
func (c Config) DBPath() string {
	if c.Store.DBPath != "" {
		return c.Store.DBPath
	}
	return filepath.Join(StateDir(), "garage.db")
}

// CredentialsJSON returns the service-account key, preferring the inline
// GARAGE_CREDENTIALS_JSON secret over the credentials file.
func (c Config) CredentialsJSON() ([]byte, error) {
	if inline := os.Getenv("GARAGE_CREDENTIALS_JSON"); inline != "" {
		return []byte(inline), nil
	}
	if c.Store.CredentialsFile == "" {
		return nil, fmt.Errorf("no service account credentials: set store.credentials_file or GARAGE_CREDENTIALS_JSON")
	}
	data, err := os.ReadFile(c.Store.CredentialsFile) //nolint:gosec // path is configured by the local user
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	return data, nil
}
