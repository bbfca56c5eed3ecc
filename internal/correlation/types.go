package correlation

import "time"

// State is the lifecycle state of a single correlation row.
type State string

const (
	// StateRunning is the initial state of every row.
	StateRunning State = "running"

	// StateFinished marks a process instance that completed normally.
	StateFinished State = "finished"

	// StateError marks a process instance that terminated with an error.
	StateError State = "error"
)

// Valid reports whether s is one of the known lifecycle states.
func (s State) Valid() bool {
	switch s {
	case StateRunning, StateFinished, StateError:
		return true
	}
	return false
}

// Identity describes the principal that started a process instance.
// It is stored as JSON TEXT and is opaque to the store beyond encode/decode.
type Identity struct {
	UserID string `json:"userId"`
	Token  string `json:"token,omitempty"`
}

// ExecutionError is the serializable failure payload attached to a
// correlation row finalized with an error.
type ExecutionError struct {
	Name    string `json:"name,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Correlation is the runtime-facing record for one process instance's
// membership in a correlation. ID is the shared correlation identifier and
// is not unique across records.
type Correlation struct {
	ID                string
	ProcessInstanceID string
	ProcessModelID    string
	ProcessModelHash  string

	// ParentProcessInstanceID links this row as a subprocess of another
	// row's ProcessInstanceID. Empty means the instance has no parent.
	ParentProcessInstanceID string

	Identity Identity
	State    State

	// Error is set only when State == StateError.
	Error *ExecutionError

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEntry holds the caller-supplied fields for CreateEntry.
// The caller must guarantee ProcessInstanceID uniqueness; the store performs
// no lookup of its own and a duplicate surfaces as a constraint violation.
type NewEntry struct {
	CorrelationID     string
	ProcessInstanceID string
	ProcessModelID    string
	ProcessModelHash  string

	// ParentProcessInstanceID is optional; leave empty for top-level
	// process instances.
	ParentProcessInstanceID string

	Identity Identity
}
