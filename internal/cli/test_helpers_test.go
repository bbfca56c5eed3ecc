package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weft-run/weft/internal/correlation"
	"github.com/weft-run/weft/internal/db"
	"github.com/weft-run/weft/internal/testutil"
)

// seedDatabase creates a SQLite database with a small correlation fixture
// and returns the path of a config file pointing at it.
//
// Fixture rows, in creation order:
//
//	c-order  p-1  m-order   (user alice)
//	c-order  p-2  m-order
//	c-report p-3  m-report  (subprocess of p-1, failed)
func seedDatabase(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "weft.db")

	cfgPath := filepath.Join(dir, "config.yaml")
	cfgContent := fmt.Sprintf("database:\n  driver: sqlite\n  path: %s\n", dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0o644))

	provider := db.NewProvider()
	store := correlation.New(&db.Config{Driver: db.DriverSQLite, Path: dbPath}, provider,
		correlation.WithClock(testutil.NewClock(time.Time{}, 0).Now),
		correlation.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	ctx := context.Background()
	require.NoError(t, store.CreateEntry(ctx, correlation.NewEntry{
		CorrelationID:     "c-order",
		ProcessInstanceID: "p-1",
		ProcessModelID:    "m-order",
		ProcessModelHash:  "hash-order",
		Identity:          correlation.Identity{UserID: "alice"},
	}))
	require.NoError(t, store.CreateEntry(ctx, correlation.NewEntry{
		CorrelationID:     "c-order",
		ProcessInstanceID: "p-2",
		ProcessModelID:    "m-order",
		ProcessModelHash:  "hash-order",
	}))
	require.NoError(t, store.CreateEntry(ctx, correlation.NewEntry{
		CorrelationID:           "c-report",
		ProcessInstanceID:       "p-3",
		ProcessModelID:          "m-report",
		ProcessModelHash:        "hash-report",
		ParentProcessInstanceID: "p-1",
	}))
	require.NoError(t, store.FinishWithError(ctx, "c-report", correlation.ExecutionError{
		Name:    "RenderError",
		Message: "render failed",
	}))

	require.NoError(t, store.Dispose())
	require.NoError(t, provider.Close())

	return cfgPath
}

// runCommand executes the CLI in-process and captures stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}
