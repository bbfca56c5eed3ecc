package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// PurgeOptions holds flags for the purge command.
type PurgeOptions struct {
	*RootOptions
}

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PurgeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "purge <process-model-id>",
		Short: "Delete every correlation row of a process model",
		Long: `Delete all correlation rows recorded for a process model.
Purging a model with no rows is a no-op.

Examples:
  weft purge order-fulfilment`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(opts, cmd, args[0])
		},
	}

	return cmd
}

func runPurge(opts *PurgeOptions, cmd *cobra.Command, processModelID string) error {
	ctx := context.Background()

	store, cleanup, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.DeleteByProcessModelID(ctx, processModelID); err != nil {
		return WrapExitError(ExitCommandError, "failed to purge correlations", err)
	}

	return formatter(opts.RootOptions, cmd).Success(
		fmt.Sprintf("correlations for process model %s deleted", processModelID))
}
