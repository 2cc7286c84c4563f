package querycmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"panelsync/internal/app"
	"panelsync/internal/database"
)

var Command = &cobra.Command{
	Use:   "query [sql]",
	Short: "Runs a query and prints the result as a table",
	Long: `Runs a read only query against one of the databases of the run-log server and prints
every row, e.g.

	panelsync query --database SGTAMProd "SELECT TOP 10 * FROM tLog ORDER BY logDtTime DESC"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := app.FromCobraCmd(cmd)

		name, _ := cmd.Flags().GetString("database")
		if name == "" {
			name = a.Conf.Database.LogDatabase
		}

		table, err := a.Executor.QueryTable(cmd.Context(), name, database.Raw(args[0]))
		if err != nil {
			log.Fatal().Err(err).Msg("Query failed")
		}
		if err := PrintTable(cmd.OutOrStdout(), table); err != nil {
			log.Fatal().Err(err).Msg("Could not print result")
		}
	},
}

func init() {
	Command.Flags().StringP("database", "d", "", "database to query, defaults to the run-log database")
}

// PrintTable writes the table with aligned columns. NULL values are written as NULL.
func PrintTable(w io.Writer, table *database.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(table.Columns, "\t")); err != nil {
		return err
	}

	for _, row := range table.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cell(v)
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(table.Rows))
	return err
}

func cell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
