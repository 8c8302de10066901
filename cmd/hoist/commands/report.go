package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func (c *CLI) newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize hoisting, duplicates and workspace cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := options(cmd)
			if cmd.Flags().Changed("min-rate") {
				minRate, _ := cmd.Flags().GetFloat64("min-rate")
				opts.MinHoistingRate = &minRate
			}

			report, err := c.app.Report(cmd.Context(), opts)
			if report == nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(report); encErr != nil {
					return encErr
				}
				return err
			}
			renderReport(w, report)
			return err
		},
	}
	cmd.Flags().Float64("min-rate", 0, "Fail when the hoisting rate is below this fraction (default from settings)")
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	return cmd
}
