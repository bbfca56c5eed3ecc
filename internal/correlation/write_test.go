package correlation

import (
	"context"
	"strings"
	"testing"
)

func TestCreateEntry_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		entry NewEntry
		want  string
	}{
		{
			name:  "missing correlation id",
			entry: NewEntry{ProcessInstanceID: "p1", ProcessModelID: "m1", ProcessModelHash: "h1"},
			want:  "correlation id is required",
		},
		{
			name:  "missing process instance id",
			entry: NewEntry{CorrelationID: "c1", ProcessModelID: "m1", ProcessModelHash: "h1"},
			want:  "process instance id is required",
		},
		{
			name:  "missing process model id",
			entry: NewEntry{CorrelationID: "c1", ProcessInstanceID: "p1", ProcessModelHash: "h1"},
			want:  "process model id is required",
		},
		{
			name:  "missing process model hash",
			entry: NewEntry{CorrelationID: "c1", ProcessInstanceID: "p1", ProcessModelID: "m1"},
			want:  "process model hash is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.CreateEntry(ctx, tc.entry)
			if err == nil {
				t.Fatal("CreateEntry() succeeded, want validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want substring %q", err, tc.want)
			}
		})
	}
}

func TestCreateEntry_DuplicateInstanceID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, testEntry("c1", "p1", "m1"))

	err := s.CreateEntry(ctx, testEntry("c2", "p1", "m2"))
	if err == nil {
		t.Fatal("CreateEntry() succeeded with duplicate process instance id")
	}
	if IsNotFound(err) {
		t.Errorf("constraint violation reported as NotFoundError: %v", err)
	}
}

func TestCreateEntry_NewRowsStartRunning(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, testEntry("c1", "p1", "m1"))

	got, err := s.GetByProcessInstanceID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByProcessInstanceID() failed: %v", err)
	}
	if got.State != StateRunning {
		t.Errorf("State = %q, want %q", got.State, StateRunning)
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("CreatedAt %v != UpdatedAt %v on fresh row", got.CreatedAt, got.UpdatedAt)
	}
}

func TestFinish_MutatesOnlyFirstRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, testEntry("shared", "p1", "m1"))
	mustCreate(t, s, testEntry("shared", "p2", "m1"))
	mustCreate(t, s, testEntry("shared", "p3", "m1"))

	if err := s.Finish(ctx, "shared"); err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}

	results, err := s.GetByCorrelationID(ctx, "shared")
	if err != nil {
		t.Fatalf("GetByCorrelationID() failed: %v", err)
	}

	// Only the earliest-created row transitions; the rest stay running.
	wantStates := map[string]State{
		"p1": StateFinished,
		"p2": StateRunning,
		"p3": StateRunning,
	}
	for _, c := range results {
		if c.State != wantStates[c.ProcessInstanceID] {
			t.Errorf("row %s state = %q, want %q",
				c.ProcessInstanceID, c.State, wantStates[c.ProcessInstanceID])
		}
	}
}

func TestFinish_AdvancesUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, testEntry("c1", "p1", "m1"))

	before, err := s.GetByProcessInstanceID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByProcessInstanceID() failed: %v", err)
	}

	if err := s.Finish(ctx, "c1"); err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}

	after, err := s.GetByProcessInstanceID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByProcessInstanceID() failed: %v", err)
	}

	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("UpdatedAt %v not advanced past %v", after.UpdatedAt, before.UpdatedAt)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("CreatedAt changed from %v to %v", before.CreatedAt, after.CreatedAt)
	}
}

func TestFinish_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Finish(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Errorf("Finish() error = %v, want NotFoundError", err)
	}
}

func TestFinishWithError_StoresPayload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, testEntry("c1", "p1", "m1"))

	execErr := ExecutionError{
		Name:    "TaskFailedError",
		Code:    "E_TASK",
		Message: "service task exhausted retries",
	}
	if err := s.FinishWithError(ctx, "c1", execErr); err != nil {
		t.Fatalf("FinishWithError() failed: %v", err)
	}

	got, err := s.GetByProcessInstanceID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByProcessInstanceID() failed: %v", err)
	}
	if got.State != StateError {
		t.Errorf("State = %q, want %q", got.State, StateError)
	}
	if got.Error == nil {
		t.Fatal("Error payload missing after FinishWithError")
	}
	if *got.Error != execErr {
		t.Errorf("Error = %+v, want %+v", *got.Error, execErr)
	}
}

func TestFinishWithError_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.FinishWithError(context.Background(), "missing",
		ExecutionError{Message: "boom"})
	if !IsNotFound(err) {
		t.Errorf("FinishWithError() error = %v, want NotFoundError", err)
	}
}

func TestFinalize_LaterWriteOverwritesSilently(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, testEntry("c1", "p1", "m1"))

	if err := s.FinishWithError(ctx, "c1", ExecutionError{Message: "boom"}); err != nil {
		t.Fatalf("FinishWithError() failed: %v", err)
	}

	// A terminal row can be finalized again; the later write wins and the
	// stale error payload is cleared.
	if err := s.Finish(ctx, "c1"); err != nil {
		t.Fatalf("Finish() on terminal row failed: %v", err)
	}

	got, err := s.GetByProcessInstanceID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByProcessInstanceID() failed: %v", err)
	}
	if got.State != StateFinished {
		t.Errorf("State = %q, want %q", got.State, StateFinished)
	}
	if got.Error != nil {
		t.Errorf("Error = %+v, want nil after overwrite", got.Error)
	}
}

func TestDeleteByProcessModelID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, testEntry("c1", "p1", "orders"))
	mustCreate(t, s, testEntry("c2", "p2", "orders"))
	mustCreate(t, s, testEntry("c3", "p3", "invoices"))

	if err := s.DeleteByProcessModelID(ctx, "orders"); err != nil {
		t.Fatalf("DeleteByProcessModelID() failed: %v", err)
	}

	if _, err := s.GetByProcessModelID(ctx, "orders"); !IsNotFound(err) {
		t.Errorf("GetByProcessModelID() after delete error = %v, want NotFoundError", err)
	}

	remaining, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ProcessModelID != "invoices" {
		t.Errorf("GetAll() after delete = %+v, want single invoices row", remaining)
	}
}

func TestDeleteByProcessModelID_UnknownModelIsNoOp(t *testing.T) {
	s := newTestStore(t)

	if err := s.DeleteByProcessModelID(context.Background(), "missing"); err != nil {
		t.Errorf("DeleteByProcessModelID() on unknown model failed: %v", err)
	}
}
