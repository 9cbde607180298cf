package events

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/salonops/adapter/cli"
)

var errNoOutbox = errors.New("no event outbox: requires local mode with OUTBOX_ENABLED")

// Cmd is the events command group
var Cmd = NewCmd()

// NewCmd builds the events command group.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect and forward the local event outbox",
		Long: `In local mode block events are stored in an outbox and forwarded to
the broker (RabbitMQ, or the in-process audit log) when a command ends.
These commands show and drive that process.`,
	}
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newFlushCmd())
	cmd.AddCommand(newRelayCmd())
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending, published and dead-lettered events",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := cli.GetApp()
			if app == nil || app.Outbox == nil {
				return errNoOutbox
			}
			counts, err := app.Outbox.Counts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read outbox: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pending:       %d\n", counts.Pending)
			fmt.Fprintf(out, "Published:     %d\n", counts.Published)
			fmt.Fprintf(out, "Dead-lettered: %d\n", counts.Dead)
			return nil
		},
	}
}

func newFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Forward every due event now",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := cli.GetApp()
			if app == nil || app.OutboxRelay == nil {
				return errNoOutbox
			}
			n, err := app.OutboxRelay.Flush(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to flush outbox: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forwarded %d events\n", n)
			return nil
		},
	}
}

func newRelayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Keep forwarding events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := cli.GetApp()
			if app == nil || app.OutboxRelay == nil {
				return errNoOutbox
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Relaying events. Press Ctrl+C to stop.")
			return app.OutboxRelay.Run(cmd.Context())
		},
	}
}
