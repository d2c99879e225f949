package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lockship/internal/app"
)

func (c *CLI) newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print PIP_PACKAGES and PIP_OVERRIDES for the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dotenv, _ := cmd.Flags().GetString("dotenv")

			return c.app.Env(cmd.Context(), app.EnvOptions{
				Dir:    dirFlag(cmd),
				Dotenv: dotenv,
			})
		},
	}

	cmd.Flags().String("dotenv", "", "Write the variables to this dotenv file instead of stdout")

	return cmd
}
