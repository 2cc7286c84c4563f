package logcmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"panelsync/internal/app"
	"panelsync/internal/models"
)

var Command = &cobra.Command{
	Use:   "log",
	Short: "Write run-log entries",
	Long:  "Insert or update entries of the shared run log (tLog) through SP_LogAdd and SP_LogUpd",
}

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Inserts a run-log entry and prints its logID",
	Run: func(cmd *cobra.Command, args []string) {
		gateway := app.FromCobraCmd(cmd).RunLog()

		record, err := RecordFromFlags(cmd.Flags())
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid arguments")
		}

		status, logID, err := gateway.Insert(cmd.Context(), record)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not insert run-log entry")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "statusFlag=%d logID=%s\n", status, logID)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Updates the status and message of a run-log entry",
	Run: func(cmd *cobra.Command, args []string) {
		gateway := app.FromCobraCmd(cmd).RunLog()

		record, err := RecordFromFlags(cmd.Flags())
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid arguments")
		}

		if err := gateway.Update(cmd.Context(), record); err != nil {
			log.Fatal().Err(err).Msg("Could not update run-log entry")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated logID=%s\n", record.LogID.UUID)
	},
}

func init() {
	for _, c := range []*cobra.Command{insertCmd, updateCmd} {
		c.Flags().Int("task", 0, "logTaskID of the task")
		c.Flags().Int("status", 0, "statusFlag of the run")
		c.Flags().String("msg", "", "logMsg of the run")
	}
	updateCmd.Flags().String("log-id", "", "logID returned by insert")

	Command.AddCommand(insertCmd)
	Command.AddCommand(updateCmd)
}

// RecordFromFlags builds a record from the flags that were given. Flags left out stay
// missing so the gateway reports them.
func RecordFromFlags(flags *pflag.FlagSet) (models.RunLogRecord, error) {
	var record models.RunLogRecord

	if flags.Changed("task") {
		v, _ := flags.GetInt("task")
		record.LogTaskID = null.IntFrom(int64(v))
	}
	if flags.Changed("status") {
		v, _ := flags.GetInt("status")
		record.StatusFlag = null.IntFrom(int64(v))
	}
	if flags.Changed("msg") {
		v, _ := flags.GetString("msg")
		record.LogMsg = null.StringFrom(v)
	}
	if flag := flags.Lookup("log-id"); flag != nil && flag.Changed {
		id, err := models.ParseLogID(flag.Value.String())
		if err != nil {
			return record, fmt.Errorf("invalid log-id: %w", err)
		}
		record.LogID = uuid.NullUUID{UUID: id, Valid: true}
	}
	return record, nil
}
