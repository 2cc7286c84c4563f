package checkcmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"panelsync/internal/app"
)

var Command = &cobra.Command{
	Use:   "check",
	Short: "Evaluate the run gates",
	Long:  "Evaluate the holiday and pre-requisite gates for a reference date without running the import",
}

var holidayCmd = &cobra.Command{
	Use:   "holiday",
	Short: "Reports whether the reference date is a holiday",
	Run: func(cmd *cobra.Command, args []string) {
		a := app.FromCobraCmd(cmd)
		refDate := mustDate(cmd)
		includeWeekend, _ := cmd.Flags().GetInt("include-weekend")
		if !cmd.Flags().Changed("include-weekend") {
			includeWeekend = a.Conf.Gate.IncludeWeekend
		}

		holiday, err := a.Holiday().IsHoliday(cmd.Context(), refDate, includeWeekend)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not evaluate holiday gate")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s holiday=%t\n", refDate.Format(time.DateOnly), holiday)
	},
}

var prerequisitesCmd = &cobra.Command{
	Use:   "prerequisites",
	Short: "Evaluates the configured pre-requisite tasks",
	Run: func(cmd *cobra.Command, args []string) {
		a := app.FromCobraCmd(cmd)
		refDate := mustDate(cmd)

		results, passed, err := a.Prerequisites().Evaluate(cmd.Context(), refDate, a.Dependencies())
		if err != nil {
			log.Fatal().Err(err).Msg("Could not evaluate pre-requisites")
		}

		out := cmd.OutOrStdout()
		for _, r := range results {
			fmt.Fprintf(out, "%-40s logTaskID=%d status=%d passed=%t\n", r.Dependency.Name, r.Dependency.LogTaskID.Int64, r.Status, r.Passed)
		}
		fmt.Fprintf(out, "%s passed=%t\n", refDate.Format(time.DateOnly), passed)
	},
}

func init() {
	Command.PersistentFlags().String("date", "", "reference date (YYYY-MM-DD), defaults to today")
	holidayCmd.Flags().Int("include-weekend", 1, "1 to treat weekends as holidays, 0 otherwise")

	Command.AddCommand(holidayCmd)
	Command.AddCommand(prerequisitesCmd)
}

func mustDate(cmd *cobra.Command) time.Time {
	value, _ := cmd.Flags().GetString("date")
	if value == "" {
		return time.Now()
	}

	date, err := time.Parse(time.DateOnly, value)
	if err != nil {
		log.Fatal().Err(err).Str("date", value).Msg("Invalid reference date")
	}
	return date
}
