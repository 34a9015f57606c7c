package cli

import (
	"fmt"

	"tap-analytics-service/internal/analysis"
	"tap-analytics-service/internal/daterange"
	"tap-analytics-service/internal/loader"

	"github.com/spf13/cobra"
)

const localClientID = "local"

func newAnalyzeCommand(a *app) *cobra.Command {
	var (
		params   daterange.Params
		clientID string
		format   string
	)
	cmd := &cobra.Command{
		Use:   "analyze <file...>",
		Short: "Run the dashboard analysis over local exports",
		Example: `  # Last 30 days of two monthly exports
  tapctl analyze May.csv June.csv --preset 30d

  # Explicit window as JSON
  tapctl analyze June.xlsx --start 2024-06-01 --end 2024-06-15 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			t, err := loader.LoadLocalFiles(args...)
			if err != nil {
				return err
			}
			result := analysis.Run(t, clientID, params, a.profile.Aliases, a.log)

			out := cmd.OutOrStdout()
			if format == formatJSON {
				return writeJSON(out, result)
			}
			renderResult(cmd, result)
			return nil
		},
	}
	cmd.Flags().StringVar(&params.Preset, "preset", "", "relative window ending at the data's last date (7d, 30d, 90d, 1y, 365d)")
	cmd.Flags().StringVar(&params.Start, "start", "", "window start, YYYY-MM-DD inclusive")
	cmd.Flags().StringVar(&params.End, "end", "", "window end, YYYY-MM-DD exclusive")
	cmd.Flags().StringVar(&clientID, "client", localClientID, "client id recorded in the result")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format (table|json)")
	return cmd
}

func renderResult(cmd *cobra.Command, r analysis.Result) {
	out := cmd.OutOrStdout()
	c := r.DataCoverage
	period := "n/a"
	if c.MinDate != nil && c.MaxDate != nil {
		period = *c.MinDate + " to " + *c.MaxDate
	}
	_, _ = fmt.Fprintf(out, "Client: %s  Rows: %d  Period: %s\n\n", r.ClientID, c.RowCount, period)

	renderMetrics(out, "KPIs", r.KPIs.Values)
	if r.KPIs.TransactionsLabel != "" {
		_, _ = fmt.Fprintf(out, "Transactions counted as: %s\n", r.KPIs.TransactionsLabel)
	}
	renderTable(out, "Waste Efficiency", r.Tables.WasteEfficiency)
	renderTable(out, "Employee Performance", r.Tables.EmployeePerformance)
	renderTable(out, "Menu Volatility", r.Tables.MenuVolatility)
}
