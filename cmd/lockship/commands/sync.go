package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lockship/internal/app"
)

func (c *CLI) newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Install the project's lockfile on every worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Sync(cmd.Context(), syncOptions(cmd))
		},
	}
	addSyncFlags(cmd)

	return cmd
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync, then sync again whenever pyproject.toml or the lockfile changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Watch(cmd.Context(), syncOptions(cmd))
		},
	}
	addSyncFlags(cmd)

	return cmd
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().String("coordinator", "", "Coordinator address, overriding lockship.yaml")
	cmd.Flags().IntP("workers", "n", 0, "Wait for this many ready workers before syncing")
	cmd.Flags().String("color", "auto", "Colour progress output: auto, always or never")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print convergence progress")
}

func syncOptions(cmd *cobra.Command) app.SyncOptions {
	coordinator, _ := cmd.Flags().GetString("coordinator")
	workers, _ := cmd.Flags().GetInt("workers")
	color, _ := cmd.Flags().GetString("color")
	quiet, _ := cmd.Flags().GetBool("quiet")

	return app.SyncOptions{
		Dir:         dirFlag(cmd),
		Coordinator: coordinator,
		Workers:     workers,
		Color:       color,
		Quiet:       quiet,
	}
}
