package correlation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/weft-run/weft/internal/db"
)

// CreateEntry inserts one new correlation row in state "running" with the
// identity encoded at the storage boundary. The store performs no uniqueness
// lookup of its own: the caller guarantees ProcessInstanceID uniqueness, and
// a violation surfaces as the schema's constraint error.
func (s *Store) CreateEntry(ctx context.Context, entry NewEntry) error {
	if err := entry.validate(); err != nil {
		return fmt.Errorf("create correlation entry: %w", err)
	}

	conn, driver, err := s.ensure(ctx)
	if err != nil {
		return err
	}

	identityJSON, err := marshalIdentity(entry.Identity)
	if err != nil {
		return fmt.Errorf("create correlation entry: %w", err)
	}

	now := s.now().UTC()
	_, err = conn.ExecContext(ctx, db.Rebind(driver, `
		INSERT INTO correlations
		(id, correlation_id, process_instance_id, process_model_id, process_model_hash, parent_process_instance_id, identity, state, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		s.newID(),
		entry.CorrelationID,
		entry.ProcessInstanceID,
		entry.ProcessModelID,
		entry.ProcessModelHash,
		nullable(entry.ParentProcessInstanceID),
		identityJSON,
		string(StateRunning),
		nil,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("create correlation entry: %w", err)
	}

	s.logger.Debug("correlation entry created",
		"correlation_id", entry.CorrelationID,
		"process_instance_id", entry.ProcessInstanceID)
	return nil
}

// Finish transitions the first row of a correlation to state "finished".
//
// "First" is the earliest created row (process_instance_id breaks ties);
// only that one row among possibly many sharing the id is mutated. Fails
// with NotFoundError when no row matches. An already-terminal row is
// finalized again without complaint: the store does not enforce terminal
// states, and concurrent finalizes may lose an update (last write wins).
func (s *Store) Finish(ctx context.Context, correlationID string) error {
	if err := s.finalize(ctx, correlationID, StateFinished, nil); err != nil {
		return fmt.Errorf("finish correlation: %w", err)
	}
	s.logger.Debug("correlation finished", "correlation_id", correlationID)
	return nil
}

// FinishWithError transitions the first row of a correlation to state
// "error" and stores the encoded failure payload. Lookup and overwrite
// semantics match Finish.
func (s *Store) FinishWithError(ctx context.Context, correlationID string, execErr ExecutionError) error {
	errorJSON, err := marshalExecutionError(execErr)
	if err != nil {
		return fmt.Errorf("finish correlation with error: %w", err)
	}
	if err := s.finalize(ctx, correlationID, StateError, &errorJSON); err != nil {
		return fmt.Errorf("finish correlation with error: %w", err)
	}
	s.logger.Debug("correlation finished with error",
		"correlation_id", correlationID, "error_message", execErr.Message)
	return nil
}

// finalize is the shared read-then-write step for the two finalize
// operations. There is deliberately no "only if still running" condition on
// the update; the observed contract preserves the lost-update race.
func (s *Store) finalize(ctx context.Context, correlationID string, state State, errorJSON *string) error {
	conn, driver, err := s.ensure(ctx)
	if err != nil {
		return err
	}

	var processInstanceID string
	err = conn.QueryRowContext(ctx, db.Rebind(driver, `
		SELECT process_instance_id FROM correlations
		WHERE correlation_id = ?`+byCreatedAt+`
		LIMIT 1
	`), correlationID).Scan(&processInstanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newNotFound("correlation id", correlationID)
		}
		return err
	}

	var errorValue any
	if errorJSON != nil {
		errorValue = *errorJSON
	}

	_, err = conn.ExecContext(ctx, db.Rebind(driver, `
		UPDATE correlations
		SET state = ?, error = ?, updated_at = ?
		WHERE process_instance_id = ?
	`),
		string(state),
		errorValue,
		s.now().UTC(),
		processInstanceID,
	)
	return err
}

// DeleteByProcessModelID removes every row for the given process model.
// Deleting a model with no rows is a silent no-op: neither an error nor an
// affected-row count is reported.
func (s *Store) DeleteByProcessModelID(ctx context.Context, processModelID string) error {
	conn, driver, err := s.ensure(ctx)
	if err != nil {
		return err
	}

	_, err = conn.ExecContext(ctx,
		db.Rebind(driver, `DELETE FROM correlations WHERE process_model_id = ?`),
		processModelID)
	if err != nil {
		return fmt.Errorf("delete correlations by process model id: %w", err)
	}

	s.logger.Debug("correlations deleted", "process_model_id", processModelID)
	return nil
}

// validate checks the required creation fields. Parent and identity are
// optional; everything identifying the instance and its model is not.
func (e NewEntry) validate() error {
	switch {
	case e.CorrelationID == "":
		return fmt.Errorf("correlation id is required")
	case e.ProcessInstanceID == "":
		return fmt.Errorf("process instance id is required")
	case e.ProcessModelID == "":
		return fmt.Errorf("process model id is required")
	case e.ProcessModelHash == "":
		return fmt.Errorf("process model hash is required")
	}
	return nil
}

// nullable maps the empty string to a store NULL so optional columns never
// persist an empty-string sentinel.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
