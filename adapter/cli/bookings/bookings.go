package bookings

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/salonops/adapter/cli"
	"github.com/felixgeelhaar/salonops/internal/blocking/application/queries"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
	"github.com/felixgeelhaar/salonops/internal/blocking/infrastructure/persistence"
)

// Cmd is the bookings command group
var Cmd = NewCmd()

// NewCmd builds the bookings command group.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Inspect and import the bookings blocks are checked against",
	}
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newImportCmd())
	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a professional's bookings on one date",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := cli.GetApp()
			if app == nil || app.LoadBookingsHandler == nil {
				return fmt.Errorf("bookings are not available")
			}
			professionalID, _ := cmd.Flags().GetString("professional")
			value, _ := cmd.Flags().GetString("date")
			date, err := domain.ParseDate(value)
			if err != nil {
				return fmt.Errorf("invalid --date, use YYYY-MM-DD: %w", err)
			}

			result, err := app.LoadBookingsHandler.Handle(cmd.Context(), queries.LoadBookingsQuery{
				Session:        app.Session,
				ProfessionalID: professionalID,
				Date:           date,
			})
			if err != nil {
				return fmt.Errorf("failed to load bookings: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Citas del %s: %d activas de %d\n", domain.FormatDate(result.Date), result.Active, len(result.Bookings))
			fmt.Fprintln(out, strings.Repeat("-", 40))
			for _, b := range result.Bookings {
				marker := " "
				if !b.IsActive() {
					marker = "x"
				}
				fmt.Fprintf(out, "%s %s-%s  %s\n", marker, b.StartTime, b.EndTime, b.Status)
			}
			return nil
		},
	}
	cmd.Flags().String("professional", "", "professional id (required)")
	cmd.Flags().StringP("date", "d", time.Now().Format(domain.DateLayout), "date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("professional")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load bookings from a JSON file into the local store",
		Long: `Load bookings into the local store. The file holds a JSON list, or an
object with a "citas" list. Rows with an existing id are replaced. Use "-"
to read standard input. Only available in local mode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := cli.GetApp()
			if app == nil || app.BookingImporter == nil {
				return fmt.Errorf("bookings can only be imported in local mode")
			}

			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}

			rows, err := persistence.DecodeBookings(in)
			if err != nil {
				return fmt.Errorf("failed to read bookings: %w", err)
			}
			n, err := app.BookingImporter.ImportBookings(cmd.Context(), rows)
			if err != nil {
				return fmt.Errorf("failed to import bookings: %w", err)
			}

			cli.Logger().InfoContext(cmd.Context(), "bookings imported", "count", n, "source", args[0])
			if app.BookingsCache != nil {
				invalidate(cmd.Context(), app.BookingsCache, rows)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Citas importadas: %d\n", n)
			return nil
		},
	}
}

// invalidate drops the cached list of every professional and date the import
// touched. A failure only leaves entries to expire on their own.
func invalidate(ctx context.Context, cache cli.BookingsInvalidator, rows []persistence.ImportedBooking) {
	type day struct {
		professionalID string
		date           string
	}
	seen := make(map[day]bool, len(rows))
	for _, row := range rows {
		key := day{row.ProfessionalID, row.Date}
		if seen[key] {
			continue
		}
		seen[key] = true

		date, err := domain.ParseDate(row.Date)
		if err != nil {
			continue
		}
		if err := cache.Invalidate(ctx, row.ProfessionalID, date); err != nil {
			cli.Logger().WarnContext(ctx, "failed to invalidate cached bookings",
				"professional_id", row.ProfessionalID,
				"date", row.Date,
				"error", err,
			)
		}
	}
}
