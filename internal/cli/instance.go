package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/weft-run/weft/internal/correlation"
)

// InstanceOptions holds flags for the instance command.
type InstanceOptions struct {
	*RootOptions
}

// NewInstanceCommand creates the instance command.
func NewInstanceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InstanceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "instance <process-instance-id>",
		Short: "Show the correlation row of a process instance",
		Long: `Show the single correlation row recorded for a process instance,
including its identity, state and error payload.

Examples:
  weft instance 7f3c9a
  weft instance 7f3c9a --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstance(opts, cmd, args[0])
		},
	}

	return cmd
}

func runInstance(opts *InstanceOptions, cmd *cobra.Command, processInstanceID string) error {
	ctx := context.Background()

	store, cleanup, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := store.GetByProcessInstanceID(ctx, processInstanceID)
	if err != nil {
		if correlation.IsNotFound(err) {
			return WrapExitError(ExitNotFound, "process instance not found", err)
		}
		return WrapExitError(ExitCommandError, "failed to read process instance", err)
	}

	return formatter(opts.RootOptions, cmd).Correlation(result)
}
