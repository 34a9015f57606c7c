package cli

import (
	"tap-analytics-service/internal/loader"
	"tap-analytics-service/internal/schema"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newSchemaCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "schema <file>",
		Short: "Show which column each analytics role resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			t, err := loader.LoadLocalFiles(args[0])
			if err != nil {
				return err
			}
			sc := schema.Detect(t, a.profile.Aliases, a.log)

			out := cmd.OutOrStdout()
			if format == formatJSON {
				return writeJSON(out, sc.Headers())
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(out)
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"Role", "Column"})
			for _, role := range schema.Roles {
				col := "-"
				if m := sc[role]; m.OK() {
					col = m.Header()
				}
				tw.AppendRow(table.Row{string(role), col})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format (table|json)")
	return cmd
}
