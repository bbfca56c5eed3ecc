package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/weft-run/weft/internal/correlation"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitNotFound     = 1 // Lookup matched no correlations
	ExitCommandError = 2 // Command error (bad config, database unreachable, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitNotFound or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// NotFoundError maps to ExitNotFound; anything else untyped is a command error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if correlation.IsNotFound(err) {
		return ExitNotFound
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`    // "not_found", "command_error"
	Message string `json:"message"` // human-readable message
}

// CorrelationView is the wire form of a correlation row for CLI output.
type CorrelationView struct {
	CorrelationID           string                      `json:"correlation_id"`
	ProcessInstanceID       string                      `json:"process_instance_id"`
	ProcessModelID          string                      `json:"process_model_id"`
	ProcessModelHash        string                      `json:"process_model_hash"`
	ParentProcessInstanceID string                      `json:"parent_process_instance_id,omitempty"`
	User                    string                      `json:"user,omitempty"`
	State                   string                      `json:"state"`
	Error                   *correlation.ExecutionError `json:"error,omitempty"`
	CreatedAt               string                      `json:"created_at"`
	UpdatedAt               string                      `json:"updated_at"`
}

// newCorrelationView converts a store record for output.
func newCorrelationView(c correlation.Correlation) CorrelationView {
	return CorrelationView{
		CorrelationID:           c.ID,
		ProcessInstanceID:       c.ProcessInstanceID,
		ProcessModelID:          c.ProcessModelID,
		ProcessModelHash:        c.ProcessModelHash,
		ParentProcessInstanceID: c.ParentProcessInstanceID,
		User:                    c.Identity.UserID,
		State:                   string(c.State),
		Error:                   c.Error,
		CreatedAt:               c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:               c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func newCorrelationViews(cs []correlation.Correlation) []CorrelationView {
	views := make([]CorrelationView, len(cs))
	for i, c := range cs {
		views[i] = newCorrelationView(c)
	}
	return views
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Correlations outputs a list of correlation rows in the configured format.
// Text output is a tab-aligned table; JSON is the standard response envelope.
func (f *OutputFormatter) Correlations(cs []correlation.Correlation) error {
	if f.Format == "json" {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: newCorrelationViews(cs)})
	}

	if len(cs) == 0 {
		fmt.Fprintln(f.Writer, "(no correlations)")
		return nil
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CORRELATION\tINSTANCE\tMODEL\tSTATE\tCREATED")
	for _, c := range cs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.ProcessInstanceID,
			c.ProcessModelID,
			c.State,
			c.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return tw.Flush()
}

// Correlation outputs a single correlation row with full detail.
func (f *OutputFormatter) Correlation(c correlation.Correlation) error {
	if f.Format == "json" {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: newCorrelationView(c)})
	}

	w := f.Writer
	fmt.Fprintf(w, "Correlation:       %s\n", c.ID)
	fmt.Fprintf(w, "Process Instance:  %s\n", c.ProcessInstanceID)
	fmt.Fprintf(w, "Process Model:     %s\n", c.ProcessModelID)
	fmt.Fprintf(w, "Model Hash:        %s\n", c.ProcessModelHash)
	if c.ParentProcessInstanceID != "" {
		fmt.Fprintf(w, "Parent Instance:   %s\n", c.ParentProcessInstanceID)
	}
	if c.Identity.UserID != "" {
		fmt.Fprintf(w, "User:              %s\n", c.Identity.UserID)
	}
	fmt.Fprintf(w, "State:             %s\n", c.State)
	if c.Error != nil {
		fmt.Fprintf(w, "Error:             %s\n", formatExecutionError(c.Error))
	}
	fmt.Fprintf(w, "Created:           %s\n", c.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Updated:           %s\n", c.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string) error {
	if f.Format == "json" {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return nil
}

// formatExecutionError renders a failure payload on one line.
func formatExecutionError(e *correlation.ExecutionError) string {
	switch {
	case e.Name != "" && e.Code != "":
		return fmt.Sprintf("%s (%s): %s", e.Name, e.Code, e.Message)
	case e.Name != "":
		return fmt.Sprintf("%s: %s", e.Name, e.Message)
	case e.Code != "":
		return fmt.Sprintf("(%s): %s", e.Code, e.Message)
	}
	return e.Message
}
