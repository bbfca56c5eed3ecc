package correlation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weft-run/weft/internal/db"
)

// ConnectionProvider hands out shared database connections keyed by
// configuration. Acquire must be idempotent (repeated calls with an open
// configuration return the existing handle) and Release must tolerate
// configurations that are not held. The store is constructed against this
// interface so tests can substitute a provider.
type ConnectionProvider interface {
	Acquire(ctx context.Context, cfg *db.Config) (*sql.DB, error)
	Release(cfg *db.Config) error
}

// RegistrarFunc declares the correlation row schema on a connection.
// It runs during Initialize, before any query, and must be idempotent
// per connection.
type RegistrarFunc func(conn *sql.DB, driver string) error

// Store persists correlation rows on a single shared connection.
//
// The zero value is not usable; construct with New. All operations lazily
// initialize the store, so calling Initialize up front is optional.
type Store struct {
	cfg      *db.Config
	provider ConnectionProvider
	register RegistrarFunc
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	mu     sync.Mutex
	conn   *sql.DB
	driver string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger injects the logger used for operational breadcrumbs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock overrides the source of store-managed timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the surrogate row id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithRegistrar overrides the schema registrar run during Initialize.
func WithRegistrar(register RegistrarFunc) Option {
	return func(s *Store) { s.register = register }
}

// New creates a correlation store over the given configuration and
// connection provider. No connection is established until Initialize or
// the first operation.
func New(cfg *db.Config, provider ConnectionProvider, opts ...Option) *Store {
	s := &Store{
		cfg:      cfg,
		provider: provider,
		register: db.RegisterSchema,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize acquires the shared connection and registers the correlation
// schema. It returns immediately when a connection is already held and is
// safe for concurrent callers: at most one underlying connection is ever
// established.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializeLocked(ctx)
}

// initializeLocked does the acquire-and-cache step. Callers hold s.mu.
func (s *Store) initializeLocked(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	driver, err := s.cfg.DriverName()
	if err != nil {
		return fmt.Errorf("initialize correlation store: %w", err)
	}

	conn, err := s.provider.Acquire(ctx, s.cfg)
	if err != nil {
		return fmt.Errorf("initialize correlation store: %w", err)
	}

	if err := s.register(conn, driver); err != nil {
		return fmt.Errorf("initialize correlation store: %w", err)
	}

	s.conn = conn
	s.driver = driver
	s.logger.Debug("correlation store initialized", "driver", driver)
	return nil
}

// Dispose releases the shared connection via the provider and clears the
// cached handle. It is idempotent: disposing an uninitialized or already
// disposed store is a no-op at the observable level.
func (s *Store) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.provider.Release(s.cfg); err != nil {
		return fmt.Errorf("dispose correlation store: %w", err)
	}

	s.conn = nil
	s.driver = ""
	s.logger.Debug("correlation store disposed")
	return nil
}

// ensure returns the live connection and driver name, initializing lazily.
func (s *Store) ensure(ctx context.Context) (*sql.DB, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initializeLocked(ctx); err != nil {
		return nil, "", err
	}
	return s.conn, s.driver, nil
}
