package cli

import (
	"errors"
	"sort"

	"tap-analytics-service/internal/advanced"
	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/loader"

	"github.com/spf13/cobra"
)

type advancedFiles struct {
	sales, voids, discounts, labor, removed string
}

func (f advancedFiles) load() (advanced.Tables, error) {
	var out advanced.Tables
	if f.sales == "" {
		return out, errors.New("--sales is required")
	}
	for _, in := range []struct {
		path string
		dst  *dataset.Table
	}{
		{f.sales, &out.Sales},
		{f.voids, &out.Voids},
		{f.discounts, &out.Discounts},
		{f.labor, &out.Labor},
		{f.removed, &out.Removed},
	} {
		if in.path == "" {
			continue
		}
		t, err := loader.LoadLocalFiles(in.path)
		if err != nil {
			return out, err
		}
		*in.dst = t
	}
	return out, nil
}

func newAdvancedCommand(a *app) *cobra.Command {
	var (
		files  advancedFiles
		format string
	)
	cmd := &cobra.Command{
		Use:   "advanced",
		Short: "Run the multi-export analyses (waste, bottles, discounts, attachment, peak hours, staff)",
		Example: `  tapctl advanced --sales June_sales.csv --voids voids.csv --discounts discounts.csv \
    --labor labor.csv --removed removed.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			tables, err := files.load()
			if err != nil {
				return err
			}
			rep := advanced.New(a.profile.Aliases, a.profile.Thresholds, a.log).Run(tables)

			out := cmd.OutOrStdout()
			if format == formatJSON {
				return writeJSON(out, map[string]any{
					"kpis":   rep.KPIs(),
					"charts": rep.Charts(),
					"tables": rep.Tables(),
				})
			}
			renderMetrics(out, "KPIs", rep.KPIs())
			all := rep.Tables()
			names := make([]string, 0, len(all))
			for name := range all {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				renderTable(out, name, all[name])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&files.sales, "sales", "", "sales export (required)")
	cmd.Flags().StringVar(&files.voids, "voids", "", "voids export")
	cmd.Flags().StringVar(&files.discounts, "discounts", "", "discounts export")
	cmd.Flags().StringVar(&files.labor, "labor", "", "labor export")
	cmd.Flags().StringVar(&files.removed, "removed", "", "removed items export")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format (table|json)")
	_ = cmd.MarkFlagRequired("sales")
	return cmd
}
