package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sociogrid/windows"
)

func newExportCmd(e *env) *cobra.Command {
	f := &gridFlags{}
	var selectedOnly bool

	exportCmd := &cobra.Command{
		Use:   "export <file> <output>",
		Short: "Export the filtered rows of a data file",
		Long: `Export every row that passes the filters, in sort order and with the
visible columns only. The output format follows the extension of <output>:
.csv, .json or .parquet.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := windows.FormatFromPath(args[1]); err != nil {
				return err
			}
			tbl, lf, err := e.openGrid(args[0], f)
			if err != nil {
				return err
			}
			defer lf.Release()

			out, err := windows.ExportRows(tbl, lf.Source, selectedOnly)
			if err != nil {
				return err
			}
			defer out.Release()

			if err := windows.Export(out, args[1]); err != nil {
				return err
			}
			e.log.Info("exported", "from", args[0], "to", args[1], "rows", out.NumRows())
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s rows to %s\n", humanize.Comma(out.NumRows()), args[1])
			return nil
		},
	}

	f.register(exportCmd)
	exportCmd.Flags().BoolVar(&selectedOnly, "selected", false, "export only the rows given with --select")
	return exportCmd
}
