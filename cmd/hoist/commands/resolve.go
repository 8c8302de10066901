package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the workspace and print the install plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.app.Resolve(cmd.Context(), options(cmd))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				data, err := out.Plan.Encode()
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				return err
			}
			renderPlan(w, out)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the canonical JSON plan")
	return cmd
}
