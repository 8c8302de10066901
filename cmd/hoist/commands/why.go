package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func (c *CLI) newWhyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "why <consumer> <dependency>",
		Short: "Explain where a package gets a dependency from",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := c.app.Why(cmd.Context(), options(cmd), args[0], args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(ex)
			}
			renderExplanation(w, &ex)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the explanation as JSON")
	return cmd
}
