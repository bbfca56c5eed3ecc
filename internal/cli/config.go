package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/weft-run/weft/internal/db"
)

// FileConfig is the YAML configuration accepted by --config.
type FileConfig struct {
	Database db.Config `yaml:"database"`
}

// LoadConfig reads a YAML configuration file into a database config.
// An empty path yields the default local SQLite configuration. Unknown
// fields are rejected so typos fail loudly instead of silently using
// defaults.
func LoadConfig(path string) (*db.Config, error) {
	if path == "" {
		return db.DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = db.DriverSQLite
	}
	if _, err := cfg.Database.DriverName(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg.Database, nil
}
