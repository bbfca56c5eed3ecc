package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weft-run/weft/internal/correlation"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	State string // optional - filter to a lifecycle state
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List correlations",
		Long: `List every recorded correlation row, oldest first.

With --state, only rows in the given lifecycle state are shown
(running, finished or error).

Examples:
  weft list
  weft list --state running
  weft list --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "filter by state (running|finished|error)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	store, cleanup, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup()

	var results []correlation.Correlation
	if opts.State != "" {
		state := correlation.State(opts.State)
		if !state.Valid() {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("invalid state %q: must be running, finished or error", opts.State))
		}
		results, err = store.GetByState(ctx, state)
	} else {
		results, err = store.GetAll(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list correlations", err)
	}

	return formatter(opts.RootOptions, cmd).Correlations(results)
}
