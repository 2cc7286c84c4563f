package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"panelsync/cmd/cli/checkcmd"
	"panelsync/cmd/cli/logcmd"
	"panelsync/cmd/cli/querycmd"
	"panelsync/cmd/cli/runcmd"
)

var RootCmd = &cobra.Command{
	Use:   "panelsync",
	Short: "panelsync - Daily import of the panel participant roster",
	Long: `panelsync imports every participant of the panel management API into the destination
table, recording each run in the shared run log and emailing the outcome.

Use "run job" for a single import or "run scheduler" to import on the configured cron
schedule. The log, check and query commands talk to the run-log database directly.`,
}

func init() {
	RootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	RootCmd.AddCommand(runcmd.Command)
	RootCmd.AddCommand(logcmd.Command)
	RootCmd.AddCommand(checkcmd.Command)
	RootCmd.AddCommand(querycmd.Command)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v", err)
		os.Exit(1)
	}
}
