package block

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/salonops/adapter/cli"
	"github.com/felixgeelhaar/salonops/internal/blocking/application/queries"
	"github.com/felixgeelhaar/salonops/internal/blocking/application/services"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
)

// Cmd is the block command group
var Cmd = NewCmd()

// NewCmd builds the block command group with fresh flag state.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "block",
		Short:   "Manage schedule blocks",
		Long:    `Create, edit, list and delete the blocks that keep a professional from being booked.`,
		Aliases: []string{"blocks"},
	}
	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newEditCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newEstimateCmd())
	return cmd
}

func requireApp() (*cli.App, error) {
	app := cli.GetApp()
	if app == nil || app.NewCoordinator == nil {
		return nil, fmt.Errorf("block commands require a configured Block API or local store")
	}
	return app, nil
}

// applyFlags copies every flag the user set onto the draft, in field order.
// The draft's mode guard rejects fields that cannot change.
func applyFlags(cmd *cobra.Command, draft *domain.BlockDraft, fields map[string]domain.Field) error {
	for _, name := range flagOrder {
		field, ok := fields[name]
		if !ok || !cmd.Flags().Changed(name) {
			continue
		}
		value, err := cmd.Flags().GetString(name)
		if err != nil {
			value = "true"
			if b, bErr := cmd.Flags().GetBool(name); bErr == nil && !b {
				value = "false"
			}
		}
		if err := draft.Set(field, value); err != nil {
			return err
		}
	}
	return nil
}

var flagOrder = []string{"professional", "location", "date", "start", "end", "reason", "recurring", "weekdays", "until"}

var draftFields = map[string]domain.Field{
	"professional": domain.FieldProfessional,
	"location":     domain.FieldLocation,
	"date":         domain.FieldDate,
	"start":        domain.FieldStartTime,
	"end":          domain.FieldEndTime,
	"reason":       domain.FieldReason,
	"recurring":    domain.FieldRecurring,
	"weekdays":     domain.FieldWeekdays,
	"until":        domain.FieldRepeatUntil,
}

// loadBookings fetches the professional's bookings for date as the
// conflict-check input. A failed lookup leaves the check to the server.
func loadBookings(cmd *cobra.Command, app *cli.App, professionalID, date string) []domain.Booking {
	if app.LoadBookingsHandler == nil || professionalID == "" {
		return nil
	}
	day, err := domain.ParseDate(date)
	if err != nil {
		return nil
	}
	result, err := app.LoadBookingsHandler.Handle(cmd.Context(), queries.LoadBookingsQuery{
		Session:        app.Session,
		ProfessionalID: professionalID,
		Date:           day,
	})
	if err != nil {
		cli.Logger().WarnContext(cmd.Context(), "could not load bookings", "professional_id", professionalID, "error", err)
		fmt.Fprintln(cmd.ErrOrStderr(), "No se pudieron cargar las citas; el servidor validará los cruces.")
		return nil
	}
	return result.Bookings
}

func printResult(out io.Writer, result services.SubmissionResult) {
	fmt.Fprintln(out, result.Message())
	if cli.Verbose() && result.Estimated > 0 {
		fmt.Fprintf(out, "  Estimados: %d, creados: %d, omitidos: %d\n", result.Estimated, result.Created, result.Skipped)
	}
	if result.Block == nil {
		return
	}
	b := result.Block
	fmt.Fprintln(out, strings.Repeat("-", 40))
	if b.ID != "" {
		fmt.Fprintf(out, "  ID:     %s\n", b.ID)
	}
	fmt.Fprintf(out, "  Fecha:  %s\n", domain.FormatDate(b.Date))
	fmt.Fprintf(out, "  Hora:   %s - %s\n", b.StartTime, b.EndTime)
	fmt.Fprintf(out, "  Motivo: %s\n", b.Reason)
}

func submissionError(result services.SubmissionResult) error {
	if result.Succeeded() {
		return nil
	}
	return errors.New(result.Message())
}
