package correlation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/weft-run/weft/internal/db"
)

// correlationColumns is the select list for every read path. The surrogate
// primary key is deliberately excluded: it never leaves the storage layer.
const correlationColumns = `correlation_id, process_instance_id, process_model_id, process_model_hash, parent_process_instance_id, identity, state, error, created_at, updated_at`

// byCreatedAt is the ordering for multi-row lookups keyed by an identifier:
// created_at ascending, with process_instance_id as a deterministic tiebreak
// for rows created within the same clock tick.
const byCreatedAt = ` ORDER BY created_at ASC, process_instance_id ASC`

// GetAll returns every correlation row in store-native order.
// An empty store yields an empty slice, not an error.
func (s *Store) GetAll(ctx context.Context) ([]Correlation, error) {
	results, err := s.queryCorrelations(ctx,
		`SELECT `+correlationColumns+` FROM correlations`)
	if err != nil {
		return nil, fmt.Errorf("get all correlations: %w", err)
	}
	return results, nil
}

// GetByCorrelationID returns all rows sharing the given correlation id,
// ordered ascending by creation time. Fails with NotFoundError when the
// correlation does not exist.
func (s *Store) GetByCorrelationID(ctx context.Context, correlationID string) ([]Correlation, error) {
	results, err := s.queryCorrelations(ctx,
		`SELECT `+correlationColumns+` FROM correlations WHERE correlation_id = ?`+byCreatedAt,
		correlationID)
	if err != nil {
		return nil, fmt.Errorf("get correlations by correlation id: %w", err)
	}
	if len(results) == 0 {
		return nil, newNotFound("correlation id", correlationID)
	}
	return results, nil
}

// GetByProcessModelID returns all rows for the given process model,
// ordered ascending by creation time. Fails with NotFoundError when no
// instance of the model has been recorded.
func (s *Store) GetByProcessModelID(ctx context.Context, processModelID string) ([]Correlation, error) {
	results, err := s.queryCorrelations(ctx,
		`SELECT `+correlationColumns+` FROM correlations WHERE process_model_id = ?`+byCreatedAt,
		processModelID)
	if err != nil {
		return nil, fmt.Errorf("get correlations by process model id: %w", err)
	}
	if len(results) == 0 {
		return nil, newNotFound("process model id", processModelID)
	}
	return results, nil
}

// GetByProcessInstanceID returns the single row for the given process
// instance. Fails with NotFoundError when the instance is unknown.
func (s *Store) GetByProcessInstanceID(ctx context.Context, processInstanceID string) (Correlation, error) {
	results, err := s.queryCorrelations(ctx,
		`SELECT `+correlationColumns+` FROM correlations WHERE process_instance_id = ?`,
		processInstanceID)
	if err != nil {
		return Correlation{}, fmt.Errorf("get correlation by process instance id: %w", err)
	}
	if len(results) == 0 {
		return Correlation{}, newNotFound("process instance id", processInstanceID)
	}
	return results[0], nil
}

// GetSubprocesses returns all rows spawned by the given process instance,
// ordered ascending by creation time. An instance with no subprocesses
// yields an empty slice, never NotFoundError: absence of children is a
// normal answer, unlike the by-id lookups above.
func (s *Store) GetSubprocesses(ctx context.Context, processInstanceID string) ([]Correlation, error) {
	results, err := s.queryCorrelations(ctx,
		`SELECT `+correlationColumns+` FROM correlations WHERE parent_process_instance_id = ?`+byCreatedAt,
		processInstanceID)
	if err != nil {
		return nil, fmt.Errorf("get subprocesses: %w", err)
	}
	return results, nil
}

// GetByState returns all rows whose state matches exactly, in store-native
// order. Unknown or unused states yield an empty slice.
func (s *Store) GetByState(ctx context.Context, state State) ([]Correlation, error) {
	results, err := s.queryCorrelations(ctx,
		`SELECT `+correlationColumns+` FROM correlations WHERE state = ?`,
		string(state))
	if err != nil {
		return nil, fmt.Errorf("get correlations by state: %w", err)
	}
	return results, nil
}

// queryCorrelations runs a select and converts every row to its runtime
// form. Returns an empty slice instead of nil when nothing matches.
func (s *Store) queryCorrelations(ctx context.Context, query string, args ...any) ([]Correlation, error) {
	conn, driver, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, db.Rebind(driver, query), args...)
	if err != nil {
		return nil, fmt.Errorf("query correlations: %w", err)
	}
	defer rows.Close()

	var results []Correlation
	for rows.Next() {
		c, err := scanCorrelation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate correlations: %w", err)
	}

	if results == nil {
		results = []Correlation{}
	}
	return results, nil
}

// scanCorrelation converts one persisted row into the runtime record:
// identity and error payloads are decoded from JSON TEXT and an absent
// parent_process_instance_id is normalized to "" rather than surfacing the
// store's NULL sentinel.
func scanCorrelation(rows *sql.Rows) (Correlation, error) {
	var c Correlation
	var parent, identityJSON, errorJSON sql.NullString
	var state string

	if err := rows.Scan(
		&c.ID,
		&c.ProcessInstanceID,
		&c.ProcessModelID,
		&c.ProcessModelHash,
		&parent,
		&identityJSON,
		&state,
		&errorJSON,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Correlation{}, fmt.Errorf("scan correlation: %w", err)
	}

	c.State = State(state)
	if parent.Valid {
		c.ParentProcessInstanceID = parent.String
	}

	identity, err := unmarshalIdentity(identityJSON)
	if err != nil {
		return Correlation{}, err
	}
	c.Identity = identity

	execErr, err := unmarshalExecutionError(errorJSON)
	if err != nil {
		return Correlation{}, err
	}
	c.Error = execErr

	return c, nil
}
