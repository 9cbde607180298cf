package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/salonops/pkg/observability"
)

var healthJSON bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the backing services",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Health == nil {
			return fmt.Errorf("app not initialized")
		}

		health := app.Health.GetOverallHealth(cmd.Context())
		out := cmd.OutOrStdout()
		if healthJSON {
			data, err := health.ToJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		} else {
			fmt.Fprintf(out, "status: %s\n", health.Status)
			for _, name := range app.Health.Names() {
				check := health.Checks[name]
				line := fmt.Sprintf("  %-10s %s", name, check.Status)
				if check.Message != "" {
					line += " (" + check.Message + ")"
				}
				fmt.Fprintln(out, line)
			}
		}

		if health.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(healthCmd)
}
