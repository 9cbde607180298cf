package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/salonops/pkg/observability"
)

// Set with -ldflags "-X github.com/felixgeelhaar/salonops/adapter/cli.Version=...".
var (
	Version   = ""
	Commit    = "none"
	BuildDate = "unknown"
)

func versionString() string {
	if Version != "" {
		return Version
	}
	return observability.BuildVersion()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "salonops %s (commit %s, built %s)\n", versionString(), Commit, BuildDate)
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
