package block

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
)

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Preview how many blocks a recurring rule creates",
		Long: `Count the dates between --date and --until that fall on the selected
weekdays. The server may create fewer when some dates have conflicts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp()
			if err != nil {
				return err
			}
			from, _ := cmd.Flags().GetString("date")
			until, _ := cmd.Flags().GetString("until")
			days, _ := cmd.Flags().GetString("weekdays")

			start, err := domain.ParseDate(from)
			if err != nil {
				return fmt.Errorf("invalid --date, use YYYY-MM-DD: %w", err)
			}
			end, err := domain.ParseDate(until)
			if err != nil {
				return fmt.Errorf("invalid --until, use YYYY-MM-DD: %w", err)
			}
			weekdays, err := domain.ParseWeekdaySet(days)
			if err != nil {
				return err
			}

			rule := domain.RecurringRule{StartDate: start, EndDate: end, Weekdays: weekdays}
			count := app.NewCoordinator().EstimateRecurringCount(rule)
			fmt.Fprintf(cmd.OutOrStdout(), "Se crearán hasta %d bloqueos.\n", count)
			return nil
		},
	}

	cmd.Flags().StringP("date", "d", "", "first date (YYYY-MM-DD, required)")
	cmd.Flags().String("until", "", "last date (YYYY-MM-DD, required)")
	cmd.Flags().String("weekdays", "", "weekdays (0-6 or mon,tue,...; required)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("until")
	_ = cmd.MarkFlagRequired("weekdays")
	return cmd
}
