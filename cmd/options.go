package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/asdp-cli/internal/pipeline"
	"github.com/KaramelBytes/asdp-cli/internal/utils"
	"github.com/spf13/cobra"
)

var optJSON bool

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List available processing methods and input limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := pipeline.Options(settings())
		out := cmd.OutOrStdout()
		if optJSON {
			b, err := utils.IndentJSON(c)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(b))
			return nil
		}
		section := func(title string, ms []pipeline.Method) {
			fmt.Fprintf(out, "%s:\n", title)
			for _, m := range ms {
				fmt.Fprintf(out, "  %-18s %s\n", m.Name, m.Label)
			}
		}
		section("Imputation methods", c.ImputationMethods)
		section("Outlier detection methods", c.OutlierDetectionMethods)
		section("Outlier handling methods", c.OutlierHandlingMethods)
		fmt.Fprintf(out, "Supported file types: %s\n", strings.Join(c.SupportedFileTypes, ", "))
		fmt.Fprintf(out, "Report formats: %s\n", strings.Join(c.ReportFormats, ", "))
		fmt.Fprintf(out, "Export formats: %s\n", strings.Join(c.ExportFormats, ", "))
		if c.MaxFileSizeMB >= 0 {
			fmt.Fprintf(out, "Max file size: %d MB\n", c.MaxFileSizeMB)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
	optionsCmd.Flags().BoolVar(&optJSON, "json", false, "print the catalog as JSON")
}
