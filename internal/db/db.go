// Package db manages shared database connections for the weft runtime.
//
// A Provider hands out at most one *sql.DB per configuration: repeated
// Acquire calls with an already-open configuration return the existing
// shared handle, and Release is safe to call on a configuration that was
// never acquired (or already released). Both PostgreSQL and SQLite backends
// are supported; the correlation store treats the configuration as opaque
// and forwards it unmodified.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Driver names accepted in Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds database connection configuration.
type Config struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"

	// SQLite settings.
	Path string `yaml:"path,omitempty"` // database file path, or ":memory:"

	// PostgreSQL settings.
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	SSLMode  string `yaml:"ssl_mode,omitempty"`

	// Pool settings. Zero values fall back to defaults; SQLite is always
	// capped to a single open connection to avoid SQLITE_BUSY errors.
	MaxOpenConns    int           `yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty"`
}

// DefaultConfig returns a local-development configuration backed by SQLite.
func DefaultConfig() *Config {
	return &Config{
		Driver: DriverSQLite,
		Path:   "weft.db",
	}
}

// DriverName returns the database/sql driver name for the configured backend.
func (c *Config) DriverName() (string, error) {
	switch c.Driver {
	case DriverSQLite, "sqlite3", "":
		return "sqlite3", nil
	case DriverPostgres, "postgresql":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", c.Driver)
	}
}

// DSN returns the driver name and connection string for this configuration.
// SQLite DSNs enable foreign keys and a 5-second busy timeout; PostgreSQL
// defaults to sslmode=disable when unset.
func (c *Config) DSN() (driver, dsn string, err error) {
	driver, err = c.DriverName()
	if err != nil {
		return "", "", err
	}

	switch driver {
	case "sqlite3":
		path := c.Path
		if path == "" {
			path = "weft.db"
		}
		return driver, path + "?_foreign_keys=on&_busy_timeout=5000", nil
	default:
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Database, sslMode,
		)
		return driver, dsn, nil
	}
}

// Provider opens and caches shared database connections keyed by DSN.
//
// Acquire is idempotent: the second acquisition of an open configuration
// returns the same handle without re-establishing it. Release tears down
// the connection for a configuration and is a no-op when nothing is held.
type Provider struct {
	mu    sync.Mutex
	conns map[string]*sql.DB
}

// NewProvider creates an empty connection provider.
func NewProvider() *Provider {
	return &Provider{conns: make(map[string]*sql.DB)}
}

// Acquire returns the shared connection for cfg, opening it on first use.
// The connection is verified with a ping before being cached.
func (p *Provider) Acquire(ctx context.Context, cfg *Config) (*sql.DB, error) {
	driver, dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	key := driver + ":" + dsn

	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[key]; ok {
		return conn, nil
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	configurePool(conn, driver, cfg)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	p.conns[key] = conn
	return conn, nil
}

// Release closes and forgets the connection held for cfg.
// Releasing a configuration that is not held is a no-op.
func (p *Provider) Release(cfg *Config) error {
	driver, dsn, err := cfg.DSN()
	if err != nil {
		return err
	}
	key := driver + ":" + dsn

	p.mu.Lock()
	defer p.mu.Unlock()

	conn, ok := p.conns[key]
	if !ok {
		return nil
	}
	delete(p.conns, key)

	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Close releases every connection the provider holds.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for key, conn := range p.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.conns, key)
	}
	return firstErr
}

// configurePool applies pool settings. SQLite only supports one writer at a
// time, so its pool is pinned to a single connection; this also makes
// ":memory:" databases behave as one shared database.
func configurePool(conn *sql.DB, driver string, cfg *Config) {
	if driver == "sqlite3" {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		return
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 5
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 5 * time.Minute
	}

	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxIdle)
	conn.SetConnMaxLifetime(lifetime)
}

// Rebind rewrites `?` placeholders to the driver's native style.
// Queries are authored with `?`; PostgreSQL requires ordinal `$n` markers.
// None of the store's queries contain literal question marks.
func Rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
