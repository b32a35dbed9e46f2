package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sociogrid/textgrid"
)

func newPrintCmd(e *env) *cobra.Command {
	f := &gridFlags{}
	var selection bool

	printCmd := &cobra.Command{
		Use:   "print <file>",
		Short: "Print one page of a data file",
		Long: `Print one page of a CSV, Parquet or JSON file as a text grid.

Examples:
  sociogrid print socios.csv --sort cuota:desc --page-size 20
  sociogrid print socios.parquet --search "ciudad = Madrid" --page 2
  sociogrid print socios.csv --script activos.go --query 2024`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, lf, err := e.openGrid(args[0], f)
			if err != nil {
				return err
			}
			defer lf.Release()

			opts := textgrid.Options{
				Messages:      e.cfg.Grid.Messages(),
				MaxCellWidth:  e.cfg.Grid.MaxCellWidth,
				ShowSelection: selection || len(f.rowIDs) > 0,
			}
			fmt.Fprint(cmd.OutOrStdout(), textgrid.Render(tbl, opts))
			return nil
		},
	}

	f.register(printCmd)
	printCmd.Flags().IntVarP(&f.pageNum, "page", "p", 1, "page number, starting at 1")
	printCmd.Flags().IntVarP(&f.pageSz, "page-size", "n", 0, "rows per page (default from config)")
	printCmd.Flags().BoolVar(&selection, "selection", false, "show the selection column")
	return printCmd
}
