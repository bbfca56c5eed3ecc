package correlation

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/weft-run/weft/internal/db"
	"github.com/weft-run/weft/internal/testutil"
)

// newTestStore creates a store over a fresh SQLite database with a
// deterministic clock, so created_at ordering is stable across runs.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, _ := newTestStoreWithConfig(t)
	return s
}

// newTestStoreWithConfig additionally exposes the configuration so tests
// can acquire the same shared connection through a provider.
func newTestStoreWithConfig(t *testing.T) (*Store, *db.Config) {
	t.Helper()

	cfg := &db.Config{
		Driver: db.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}
	provider := db.NewProvider()
	t.Cleanup(func() { _ = provider.Close() })

	s := New(cfg, provider,
		WithClock(testutil.NewClock(time.Time{}, 0).Now),
		WithIDGenerator(testutil.NewIDSequence("test").Next),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(func() { _ = s.Dispose() })
	return s, cfg
}

// testEntry builds a valid creation request with a per-instance identity.
func testEntry(correlationID, processInstanceID, processModelID string) NewEntry {
	return NewEntry{
		CorrelationID:     correlationID,
		ProcessInstanceID: processInstanceID,
		ProcessModelID:    processModelID,
		ProcessModelHash:  "hash-" + processModelID,
		Identity:          Identity{UserID: "user-" + processInstanceID},
	}
}

// mustCreate inserts an entry or fails the test.
func mustCreate(t *testing.T, s *Store, entry NewEntry) {
	t.Helper()
	if err := s.CreateEntry(context.Background(), entry); err != nil {
		t.Fatalf("CreateEntry(%s) failed: %v", entry.ProcessInstanceID, err)
	}
}

// countingProvider wraps a real provider and counts Acquire calls, for
// verifying that Initialize never opens duplicate connections.
type countingProvider struct {
	inner *db.Provider

	mu       sync.Mutex
	acquires int
	releases int
}

func newCountingProvider() *countingProvider {
	return &countingProvider{inner: db.NewProvider()}
}

func (p *countingProvider) Acquire(ctx context.Context, cfg *db.Config) (*sql.DB, error) {
	p.mu.Lock()
	p.acquires++
	p.mu.Unlock()
	return p.inner.Acquire(ctx, cfg)
}

func (p *countingProvider) Release(cfg *db.Config) error {
	p.mu.Lock()
	p.releases++
	p.mu.Unlock()
	return p.inner.Release(cfg)
}

func (p *countingProvider) acquireCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquires
}
