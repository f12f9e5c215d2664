package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "datatracker",
	Short: "IETF Datatracker web application",
	Long: `The datatracker serves Internet-Drafts, RFCs, meeting agendas and the
tools the IETF Secretariat uses to manage them.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("datatracker version {{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
