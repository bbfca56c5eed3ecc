package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weft-run/weft/internal/correlation"
)

// FinishOptions holds flags for the finish command.
type FinishOptions struct {
	*RootOptions
}

// NewFinishCommand creates the finish command.
func NewFinishCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FinishOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "finish <correlation-id>",
		Short: "Mark a correlation as finished",
		Long: `Transition the first process instance of a correlation to the
finished state. Fails when the correlation does not exist.

Examples:
  weft finish order-4711`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFinish(opts, cmd, args[0])
		},
	}

	return cmd
}

func runFinish(opts *FinishOptions, cmd *cobra.Command, correlationID string) error {
	ctx := context.Background()

	store, cleanup, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.Finish(ctx, correlationID); err != nil {
		if correlation.IsNotFound(err) {
			return WrapExitError(ExitNotFound, "correlation not found", err)
		}
		return WrapExitError(ExitCommandError, "failed to finish correlation", err)
	}

	return formatter(opts.RootOptions, cmd).Success(
		fmt.Sprintf("correlation %s finished", correlationID))
}
