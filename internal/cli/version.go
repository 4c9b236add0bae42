package cli

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information, set via ldflags during release builds.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionPlain bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Example: `  planops version

  # Plain output (for scripts)
  planops version --plain`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if versionPlain {
			fmt.Fprintln(out, Version)
			return
		}
		fmt.Fprintf(out, "%s %s\n", color.New(color.Bold).Sprint("planops"), Version)
		fmt.Fprintf(out, "  commit:     %s\n", Commit)
		fmt.Fprintf(out, "  built:      %s\n", BuildDate)
		fmt.Fprintf(out, "  go version: %s\n", runtime.Version())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionPlain, "plain", false, "Print only the version number")
	rootCmd.AddCommand(versionCmd)
}
