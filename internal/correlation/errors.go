package correlation

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a lookup matched no correlation rows.
//
// It is returned by GetByCorrelationID, GetByProcessModelID,
// GetByProcessInstanceID, Finish and FinishWithError. Operations that
// return collections without a by-id contract (GetAll, GetSubprocesses,
// GetByState) return empty slices instead.
type NotFoundError struct {
	// Key names the identifier the lookup was keyed on.
	Key string

	// Value is the identifier value that matched nothing.
	Value string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no correlations found for %s %q", e.Key, e.Value)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func newNotFound(key, value string) *NotFoundError {
	return &NotFoundError{Key: key, Value: value}
}
