package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weft-run/weft/internal/correlation"
)

// FailOptions holds flags for the fail command.
type FailOptions struct {
	*RootOptions
	Message string
	Name    string
	Code    string
}

// NewFailCommand creates the fail command.
func NewFailCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FailOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fail <correlation-id>",
		Short: "Mark a correlation as failed",
		Long: `Transition the first process instance of a correlation to the
error state and record the failure payload. Fails when the correlation
does not exist.

Examples:
  weft fail order-4711 --message "payment provider timeout"
  weft fail order-4711 --message "task failed" --name TaskFailedError --code E_TASK`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFail(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Message, "message", "", "failure message (required)")
	_ = cmd.MarkFlagRequired("message")
	cmd.Flags().StringVar(&opts.Name, "name", "", "failure name")
	cmd.Flags().StringVar(&opts.Code, "code", "", "failure code")

	return cmd
}

func runFail(opts *FailOptions, cmd *cobra.Command, correlationID string) error {
	ctx := context.Background()

	store, cleanup, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup()

	execErr := correlation.ExecutionError{
		Name:    opts.Name,
		Code:    opts.Code,
		Message: opts.Message,
	}
	if err := store.FinishWithError(ctx, correlationID, execErr); err != nil {
		if correlation.IsNotFound(err) {
			return WrapExitError(ExitNotFound, "correlation not found", err)
		}
		return WrapExitError(ExitCommandError, "failed to fail correlation", err)
	}

	return formatter(opts.RootOptions, cmd).Success(
		fmt.Sprintf("correlation %s marked as failed", correlationID))
}
