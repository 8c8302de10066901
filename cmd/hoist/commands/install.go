package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Resolve the workspace, write the lockfile and apply the install plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, result, err := c.app.Install(cmd.Context(), options(cmd))
			if err != nil {
				return err
			}
			renderInstall(cmd.OutOrStdout(), out, result)
			return nil
		},
	}
}
