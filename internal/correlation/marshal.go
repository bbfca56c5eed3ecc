package correlation

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// marshalIdentity converts an Identity to JSON TEXT for storage.
func marshalIdentity(identity Identity) (string, error) {
	data, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("encode identity: %w", err)
	}
	return string(data), nil
}

// unmarshalIdentity parses the stored identity column. NULL and empty
// payloads decode to the zero Identity.
func unmarshalIdentity(data sql.NullString) (Identity, error) {
	var identity Identity
	if !data.Valid || data.String == "" || data.String == "{}" {
		return identity, nil
	}
	if err := json.Unmarshal([]byte(data.String), &identity); err != nil {
		return Identity{}, fmt.Errorf("decode identity: %w", err)
	}
	return identity, nil
}

// marshalExecutionError converts an ExecutionError to JSON TEXT for storage.
func marshalExecutionError(execErr ExecutionError) (string, error) {
	data, err := json.Marshal(execErr)
	if err != nil {
		return "", fmt.Errorf("encode execution error: %w", err)
	}
	return string(data), nil
}

// unmarshalExecutionError parses the stored error column. NULL decodes to
// nil: only rows in state "error" carry a payload.
func unmarshalExecutionError(data sql.NullString) (*ExecutionError, error) {
	if !data.Valid || data.String == "" {
		return nil, nil
	}
	var execErr ExecutionError
	if err := json.Unmarshal([]byte(data.String), &execErr); err != nil {
		return nil, fmt.Errorf("decode execution error: %w", err)
	}
	return &execErr, nil
}
