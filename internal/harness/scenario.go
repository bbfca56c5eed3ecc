package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a correlation lifecycle test scenario.
// Scenarios execute a sequence of store operations and assert on the
// resulting rows and operation outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are the store operations to execute, in order.
	Steps []Step `yaml:"steps"`

	// Expect contains queries to run against the final store state.
	Expect []Expectation `yaml:"expect"`
}

// Step is a single mutating store operation.
type Step struct {
	// Op selects the operation:
	// "create", "finish", "finish_with_error" or "delete_model".
	Op string `yaml:"op"`

	// CorrelationID is required by create, finish and finish_with_error.
	CorrelationID string `yaml:"correlation_id,omitempty"`

	// Fields for create.
	ProcessInstanceID       string `yaml:"process_instance_id,omitempty"`
	ProcessModelID          string `yaml:"process_model_id,omitempty"`
	ProcessModelHash        string `yaml:"process_model_hash,omitempty"`
	ParentProcessInstanceID string `yaml:"parent,omitempty"`
	User                    string `yaml:"user,omitempty"`

	// Error is the failure payload for finish_with_error.
	Error *ErrorSpec `yaml:"error,omitempty"`

	// WantError names the failure expected from this step:
	// empty for success, "not_found" for a missing-correlation failure.
	WantError string `yaml:"want_error,omitempty"`
}

// ErrorSpec is the YAML form of an execution error payload.
type ErrorSpec struct {
	Name    string `yaml:"name,omitempty"`
	Code    string `yaml:"code,omitempty"`
	Message string `yaml:"message"`
}

// Expectation runs one query against the final store state and matches
// the returned rows in order.
type Expectation struct {
	// Query selects the read operation: "all", "by_correlation_id",
	// "by_instance_id", "by_model_id", "subprocesses" or "by_state".
	Query string `yaml:"query"`

	// Key is the lookup argument; unused by "all".
	Key string `yaml:"key,omitempty"`

	// Rows are matched positionally against the query result.
	// Each expected row is a subset match on the fields it sets.
	Rows []ExpectedRow `yaml:"rows,omitempty"`

	// Error names the failure expected from the query instead of rows:
	// "not_found" for a NotFoundError.
	Error string `yaml:"error,omitempty"`
}

// ExpectedRow is a partial row assertion. Only non-empty fields are
// compared; timestamps are never part of scenario assertions.
type ExpectedRow struct {
	CorrelationID           string `yaml:"correlation_id,omitempty"`
	ProcessInstanceID       string `yaml:"process_instance_id,omitempty"`
	ProcessModelID          string `yaml:"process_model_id,omitempty"`
	ParentProcessInstanceID string `yaml:"parent,omitempty"`
	State                   string `yaml:"state,omitempty"`
	User                    string `yaml:"user,omitempty"`
	ErrorMessage            string `yaml:"error_message,omitempty"`
}

// Step operation constants.
const (
	OpCreate          = "create"
	OpFinish          = "finish"
	OpFinishWithError = "finish_with_error"
	OpDeleteModel     = "delete_model"
)

// Query type constants.
const (
	QueryAll           = "all"
	QueryByCorrelation = "by_correlation_id"
	QueryByInstance    = "by_instance_id"
	QueryByModel       = "by_model_id"
	QuerySubprocesses  = "subprocesses"
	QueryByState       = "by_state"
)

// WantNotFound is the only recognized step and expectation failure name.
const WantNotFound = "not_found"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Expect) == 0 {
		return fmt.Errorf("expect list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, exp := range s.Expect {
		if err := validateExpectation(i, &exp); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its operation.
func validateStep(index int, step *Step) error {
	switch step.Op {
	case OpCreate:
		switch {
		case step.CorrelationID == "":
			return fmt.Errorf("steps[%d]: correlation_id is required for create", index)
		case step.ProcessInstanceID == "":
			return fmt.Errorf("steps[%d]: process_instance_id is required for create", index)
		case step.ProcessModelID == "":
			return fmt.Errorf("steps[%d]: process_model_id is required for create", index)
		}
	case OpFinish:
		if step.CorrelationID == "" {
			return fmt.Errorf("steps[%d]: correlation_id is required for finish", index)
		}
	case OpFinishWithError:
		if step.CorrelationID == "" {
			return fmt.Errorf("steps[%d]: correlation_id is required for finish_with_error", index)
		}
		if step.Error == nil || step.Error.Message == "" {
			return fmt.Errorf("steps[%d]: error.message is required for finish_with_error", index)
		}
	case OpDeleteModel:
		if step.ProcessModelID == "" {
			return fmt.Errorf("steps[%d]: process_model_id is required for delete_model", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	if step.WantError != "" && step.WantError != WantNotFound {
		return fmt.Errorf("steps[%d]: unknown want_error %q", index, step.WantError)
	}
	return nil
}

// validateExpectation validates a single expectation based on its query.
func validateExpectation(index int, exp *Expectation) error {
	switch exp.Query {
	case QueryAll:
		if exp.Key != "" {
			return fmt.Errorf("expect[%d]: key is not allowed for query all", index)
		}
	case QueryByCorrelation, QueryByInstance, QueryByModel, QuerySubprocesses, QueryByState:
		if exp.Key == "" {
			return fmt.Errorf("expect[%d]: key is required for query %s", index, exp.Query)
		}
	case "":
		return fmt.Errorf("expect[%d]: query is required", index)
	default:
		return fmt.Errorf("expect[%d]: unknown query %q", index, exp.Query)
	}

	if exp.Error != "" {
		if exp.Error != WantNotFound {
			return fmt.Errorf("expect[%d]: unknown error %q", index, exp.Error)
		}
		if len(exp.Rows) != 0 {
			return fmt.Errorf("expect[%d]: rows and error are mutually exclusive", index)
		}
	}
	return nil
}
