package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/KaramelBytes/asdp-cli/internal/pipeline"
	"github.com/KaramelBytes/asdp-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	inspJSON  bool
	inspSheet string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Load a dataset and summarize its columns and missing values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := settings()
		s.Load.Sheet = inspSheet
		p := pipeline.New(s, newLogger(), nil)
		if err := p.Load(args[0]); err != nil {
			return err
		}
		sum, err := p.Summary()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if inspJSON {
			b, err := utils.IndentJSON(sum)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(b))
			return nil
		}

		fmt.Fprintf(out, "Rows: %d\nColumns: %d\n\n", sum.Rows, sum.Columns)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COLUMN\tKIND\tMISSING")
		for _, c := range sum.Info {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Name, c.Kind, c.Missing)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if len(sum.Missing) == 0 {
			fmt.Fprintln(out, "\nNo missing values.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspJSON, "json", false, "print the summary as JSON")
	inspectCmd.Flags().StringVar(&inspSheet, "sheet", "", "XLSX: sheet name (default first sheet)")
}
