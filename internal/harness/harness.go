// Package harness provides a conformance testing framework for the
// correlation store.
//
// Scenarios are YAML files describing a sequence of store operations and a
// set of queries to run against the final state. Each scenario executes in a
// fresh in-memory SQLite database with a deterministic clock and id
// generator, so the resulting operation trace is byte-identical across runs
// and can be compared against a golden file.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/weft-run/weft/internal/correlation"
	"github.com/weft-run/weft/internal/db"
	"github.com/weft-run/weft/internal/testutil"
)

// Result collects the operation trace and assertion failures of one
// scenario execution.
type Result struct {
	// Trace records every executed step and its outcome, in order.
	// Timestamps are deliberately absent so traces are reproducible.
	Trace []TraceEvent

	// Errors lists expectation failures. Empty means the scenario passed.
	Errors []string
}

// TraceEvent is one executed step in the trace.
type TraceEvent struct {
	Op                string `json:"op"`
	CorrelationID     string `json:"correlation_id,omitempty"`
	ProcessInstanceID string `json:"process_instance_id,omitempty"`
	ProcessModelID    string `json:"process_model_id,omitempty"`

	// Outcome is "ok" or "not_found".
	Outcome string `json:"outcome"`
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool {
	return len(r.Errors) == 0
}

// AddError records an expectation failure.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Run executes a scenario and returns its result.
//
// Each scenario runs in a fresh in-memory database for isolation. A step
// whose want_error does not match its actual outcome aborts the run with an
// error; expectation mismatches are collected in the result instead.
func Run(scenario *Scenario) (*Result, error) {
	cfg := &db.Config{Driver: db.DriverSQLite, Path: ":memory:"}
	provider := db.NewProvider()
	defer provider.Close()

	store := correlation.New(cfg, provider,
		correlation.WithClock(testutil.NewClock(testutil.DefaultEpoch, 0).Now),
		correlation.WithIDGenerator(testutil.NewIDSequence("row").Next),
		correlation.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	defer store.Dispose()

	ctx := context.Background()
	result := &Result{}

	for i, step := range scenario.Steps {
		if err := executeStep(ctx, store, i, step, result); err != nil {
			return nil, err
		}
	}

	for i, exp := range scenario.Expect {
		evaluateExpectation(ctx, store, i, exp, result)
	}

	return result, nil
}

// executeStep runs one mutating operation and appends its trace event.
// The step's actual outcome must match its want_error declaration.
func executeStep(ctx context.Context, store *correlation.Store, index int, step Step, result *Result) error {
	var err error
	switch step.Op {
	case OpCreate:
		hash := step.ProcessModelHash
		if hash == "" {
			hash = "hash-" + step.ProcessModelID
		}
		err = store.CreateEntry(ctx, correlation.NewEntry{
			CorrelationID:           step.CorrelationID,
			ProcessInstanceID:       step.ProcessInstanceID,
			ProcessModelID:          step.ProcessModelID,
			ProcessModelHash:        hash,
			ParentProcessInstanceID: step.ParentProcessInstanceID,
			Identity:                correlation.Identity{UserID: step.User},
		})
	case OpFinish:
		err = store.Finish(ctx, step.CorrelationID)
	case OpFinishWithError:
		err = store.FinishWithError(ctx, step.CorrelationID, correlation.ExecutionError{
			Name:    step.Error.Name,
			Code:    step.Error.Code,
			Message: step.Error.Message,
		})
	case OpDeleteModel:
		err = store.DeleteByProcessModelID(ctx, step.ProcessModelID)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	outcome := "ok"
	if err != nil {
		if !correlation.IsNotFound(err) {
			return fmt.Errorf("steps[%d] (%s): %w", index, step.Op, err)
		}
		outcome = WantNotFound
	}

	want := "ok"
	if step.WantError != "" {
		want = step.WantError
	}
	if outcome != want {
		return fmt.Errorf("steps[%d] (%s): outcome %q, scenario declares %q",
			index, step.Op, outcome, want)
	}

	result.Trace = append(result.Trace, TraceEvent{
		Op:                step.Op,
		CorrelationID:     step.CorrelationID,
		ProcessInstanceID: step.ProcessInstanceID,
		ProcessModelID:    step.ProcessModelID,
		Outcome:           outcome,
	})
	return nil
}

// evaluateExpectation runs one query and matches its rows (or failure)
// against the expectation, recording mismatches in the result.
func evaluateExpectation(ctx context.Context, store *correlation.Store, index int, exp Expectation, result *Result) {
	rows, err := runQuery(ctx, store, exp)

	if exp.Error == WantNotFound {
		if err == nil {
			result.AddError("expect[%d] (%s %q): succeeded, want not found",
				index, exp.Query, exp.Key)
		} else if !correlation.IsNotFound(err) {
			result.AddError("expect[%d] (%s %q): %v, want not found",
				index, exp.Query, exp.Key, err)
		}
		return
	}

	if err != nil {
		result.AddError("expect[%d] (%s %q): %v", index, exp.Query, exp.Key, err)
		return
	}

	if len(rows) != len(exp.Rows) {
		result.AddError("expect[%d] (%s %q): %d rows, want %d",
			index, exp.Query, exp.Key, len(rows), len(exp.Rows))
		return
	}

	for i, want := range exp.Rows {
		matchRow(index, i, rows[i], want, result)
	}
}

// runQuery dispatches a read operation. Single-row lookups are normalized
// to a one-element slice.
func runQuery(ctx context.Context, store *correlation.Store, exp Expectation) ([]correlation.Correlation, error) {
	switch exp.Query {
	case QueryAll:
		return store.GetAll(ctx)
	case QueryByCorrelation:
		return store.GetByCorrelationID(ctx, exp.Key)
	case QueryByInstance:
		c, err := store.GetByProcessInstanceID(ctx, exp.Key)
		if err != nil {
			return nil, err
		}
		return []correlation.Correlation{c}, nil
	case QueryByModel:
		return store.GetByProcessModelID(ctx, exp.Key)
	case QuerySubprocesses:
		return store.GetSubprocesses(ctx, exp.Key)
	case QueryByState:
		return store.GetByState(ctx, correlation.State(exp.Key))
	default:
		return nil, fmt.Errorf("unknown query %q", exp.Query)
	}
}

// matchRow compares one returned row against a partial expected row.
// Only the fields the expectation sets are compared.
func matchRow(expIndex, rowIndex int, got correlation.Correlation, want ExpectedRow, result *Result) {
	fail := func(field, gotVal, wantVal string) {
		result.AddError("expect[%d].rows[%d]: %s = %q, want %q",
			expIndex, rowIndex, field, gotVal, wantVal)
	}

	if want.CorrelationID != "" && got.ID != want.CorrelationID {
		fail("correlation_id", got.ID, want.CorrelationID)
	}
	if want.ProcessInstanceID != "" && got.ProcessInstanceID != want.ProcessInstanceID {
		fail("process_instance_id", got.ProcessInstanceID, want.ProcessInstanceID)
	}
	if want.ProcessModelID != "" && got.ProcessModelID != want.ProcessModelID {
		fail("process_model_id", got.ProcessModelID, want.ProcessModelID)
	}
	if want.ParentProcessInstanceID != "" && got.ParentProcessInstanceID != want.ParentProcessInstanceID {
		fail("parent", got.ParentProcessInstanceID, want.ParentProcessInstanceID)
	}
	if want.State != "" && string(got.State) != want.State {
		fail("state", string(got.State), want.State)
	}
	if want.User != "" && got.Identity.UserID != want.User {
		fail("user", got.Identity.UserID, want.User)
	}
	if want.ErrorMessage != "" {
		if got.Error == nil {
			fail("error_message", "", want.ErrorMessage)
		} else if got.Error.Message != want.ErrorMessage {
			fail("error_message", got.Error.Message, want.ErrorMessage)
		}
	}
}
