package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/weft-run/weft/internal/correlation"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <correlation-id>",
		Short: "Show all process instances of a correlation",
		Long: `Show every process instance recorded under a correlation id,
oldest first. Fails when the correlation does not exist.

Examples:
  weft show order-4711
  weft show order-4711 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd, args[0])
		},
	}

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command, correlationID string) error {
	ctx := context.Background()

	store, cleanup, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := store.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		if correlation.IsNotFound(err) {
			return WrapExitError(ExitNotFound, "correlation not found", err)
		}
		return WrapExitError(ExitCommandError, "failed to read correlation", err)
	}

	return formatter(opts.RootOptions, cmd).Correlations(results)
}
