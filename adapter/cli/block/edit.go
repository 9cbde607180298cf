package block

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/salonops/internal/blocking/application/queries"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
)

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit BLOCK_ID",
		Short: "Change the times or reason of a block",
		Long: `Edit one existing block. Only the start time, end time and reason can
change; professional, location and date are fixed once a block exists.

Example:
  salonops block edit 42 --professional 12 --end 10:30 --reason "Almuerzo"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp()
			if err != nil {
				return err
			}
			professionalID, _ := cmd.Flags().GetString("professional")

			blocks, err := app.ListBlocksHandler.Handle(cmd.Context(), queries.ListBlocksQuery{
				Session:        app.Session,
				ProfessionalID: professionalID,
			})
			if err != nil {
				return fmt.Errorf("failed to load blocks: %w", err)
			}
			current, ok := findBlock(blocks, args[0])
			if !ok {
				return fmt.Errorf("block %s not found for professional %s", args[0], professionalID)
			}

			draft := domain.NewEditDraft(current)
			editable := map[string]domain.Field{
				"start":    domain.FieldStartTime,
				"end":      domain.FieldEndTime,
				"reason":   domain.FieldReason,
				"location": domain.FieldLocation,
				"date":     domain.FieldDate,
			}
			if err := applyFlags(cmd, draft, editable); err != nil {
				return err
			}

			bookings := loadBookings(cmd, app, current.ProfessionalID, draft.Date())
			result := app.NewCoordinator().Submit(cmd.Context(), draft, bookings)
			if err := submissionError(result); err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().String("professional", "", "professional that owns the block (required)")
	cmd.Flags().String("start", "", "new start time (HH:MM)")
	cmd.Flags().String("end", "", "new end time (HH:MM)")
	cmd.Flags().String("reason", "", "new reason")
	cmd.Flags().String("location", "", "not editable; rejected when given")
	cmd.Flags().StringP("date", "d", "", "not editable; rejected when given")
	_ = cmd.MarkFlagRequired("professional")
	return cmd
}

func findBlock(blocks []queries.BlockDTO, id string) (domain.ScheduleBlock, bool) {
	for _, b := range blocks {
		if b.ID != id {
			continue
		}
		block := domain.ScheduleBlock{
			ID:             b.ID,
			ProfessionalID: b.ProfessionalID,
			LocationID:     b.LocationID,
			Date:           b.Date,
			StartTime:      b.StartTime,
			EndTime:        b.EndTime,
			Reason:         b.Reason,
		}
		if b.SeriesID != "" {
			block.Series = &domain.SeriesInfo{ID: b.SeriesID}
		}
		return block, true
	}
	return domain.ScheduleBlock{}, false
}
