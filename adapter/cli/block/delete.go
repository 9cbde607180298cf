package block

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/salonops/internal/blocking/application"
	"github.com/felixgeelhaar/salonops/internal/blocking/application/commands"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete BLOCK_ID",
		Short:   "Delete a block",
		Aliases: []string{"rm", "remove"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp()
			if err != nil {
				return err
			}

			err = app.DeleteBlockHandler.Handle(cmd.Context(), commands.DeleteBlockCommand{
				Session: app.Session,
				BlockID: args[0],
			})
			switch {
			case err == nil:
				fmt.Fprintln(cmd.OutOrStdout(), "Bloqueo eliminado.")
				return nil
			case errors.Is(err, application.ErrBlockNotFound):
				return fmt.Errorf("block %s not found", args[0])
			default:
				msg := application.UserMessage(err, domain.MsgDeleteFailed)
				return fmt.Errorf("%s: %w", msg, err)
			}
		},
	}
}
