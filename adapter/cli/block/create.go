package block

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Block time in a professional's agenda",
		Long: `Create a single block, or a recurring block on the selected weekdays
of a date range. Recurring blocks skip dates that already have conflicts.

Examples:
  salonops block create --professional 12 --location 3 --date 2024-06-10 --start 09:00 --end 10:00 --reason "Capacitación"
  salonops block create --professional 12 --location 3 --date 2024-06-03 --start 13:00 --end 14:00 \
      --recurring --weekdays mon,wed --until 2024-06-28`,
		Aliases: []string{"add", "new"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp()
			if err != nil {
				return err
			}

			draft := domain.NewCreateDraft()
			if err := applyFlags(cmd, draft, draftFields); err != nil {
				return err
			}

			var bookings []domain.Booking
			if !draft.IsRecurring() {
				bookings = loadBookings(cmd, app, draft.ProfessionalID(), draft.Date())
			}

			result := app.NewCoordinator().Submit(cmd.Context(), draft, bookings)
			if err := submissionError(result); err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().String("professional", "", "professional id (required)")
	cmd.Flags().String("location", "", "location id (required)")
	cmd.Flags().StringP("date", "d", "", "date, or first date of a recurring block (YYYY-MM-DD)")
	cmd.Flags().String("start", "", "start time (HH:MM)")
	cmd.Flags().String("end", "", "end time (HH:MM)")
	cmd.Flags().String("reason", "", "reason shown in the agenda")
	cmd.Flags().Bool("recurring", false, "repeat on the selected weekdays")
	cmd.Flags().String("weekdays", "", "weekdays for a recurring block (0-6 or mon,tue,...; 0 is Sunday)")
	cmd.Flags().String("until", "", "last date of a recurring block (YYYY-MM-DD)")
	return cmd
}
