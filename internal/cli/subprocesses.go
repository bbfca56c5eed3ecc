package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// SubprocessesOptions holds flags for the subprocesses command.
type SubprocessesOptions struct {
	*RootOptions
}

// NewSubprocessesCommand creates the subprocesses command.
func NewSubprocessesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubprocessesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "subprocesses <process-instance-id>",
		Short: "List subprocess instances spawned by a process instance",
		Long: `List every correlation row whose parent is the given process
instance, oldest first. An instance without subprocesses lists nothing;
this is not an error.

Examples:
  weft subprocesses 7f3c9a
  weft subprocesses 7f3c9a --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubprocesses(opts, cmd, args[0])
		},
	}

	return cmd
}

func runSubprocesses(opts *SubprocessesOptions, cmd *cobra.Command, processInstanceID string) error {
	ctx := context.Background()

	store, cleanup, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := store.GetSubprocesses(ctx, processInstanceID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list subprocesses", err)
	}

	return formatter(opts.RootOptions, cmd).Correlations(results)
}
