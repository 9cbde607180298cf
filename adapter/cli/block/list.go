package block

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/salonops/internal/blocking/application/queries"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List a professional's blocks",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp()
			if err != nil {
				return err
			}
			professionalID, _ := cmd.Flags().GetString("professional")
			query := queries.ListBlocksQuery{Session: app.Session, ProfessionalID: professionalID}
			if query.From, err = optionalDate(cmd, "from"); err != nil {
				return err
			}
			if query.To, err = optionalDate(cmd, "to"); err != nil {
				return err
			}

			blocks, err := app.ListBlocksHandler.Handle(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("failed to list blocks: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(blocks) == 0 {
				fmt.Fprintln(out, "No hay bloqueos.")
				return nil
			}
			fmt.Fprintf(out, "Bloqueos de %s (%d)\n", professionalID, len(blocks))
			fmt.Fprintln(out, strings.Repeat("-", 60))
			for _, b := range blocks {
				marker := " "
				if b.Recurring {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-10s %s  %s-%s  %s\n", marker, b.ID, domain.FormatDate(b.Date), b.StartTime, b.EndTime, b.Reason)
			}
			return nil
		},
	}

	cmd.Flags().String("professional", "", "professional id (required)")
	cmd.Flags().String("from", "", "first date to show (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "last date to show (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("professional")
	return cmd
}

func optionalDate(cmd *cobra.Command, name string) (time.Time, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return time.Time{}, nil
	}
	date, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s, use YYYY-MM-DD: %w", name, err)
	}
	return date, nil
}
