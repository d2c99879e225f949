package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lockship/internal/app"
)

func (c *CLI) newCoordinatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coordinator",
		Short: "Run the coordinator that workers join and clients sync through",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

			return c.app.ServeCoordinator(cmd.Context(), app.CoordinatorOptions{
				Dir:         dirFlag(cmd),
				Listen:      listen,
				MetricsAddr: metricsAddr,
			})
		},
	}

	cmd.Flags().String("listen", "", "Address to serve the coordinator on")
	cmd.Flags().String("metrics-addr", "", "Address to serve Prometheus metrics on")

	return cmd
}

func (c *CLI) newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent [-- command [args...]]",
		Short: "Run a worker agent, optionally supervising the worker process",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			coordinator, _ := cmd.Flags().GetString("coordinator")
			listen, _ := cmd.Flags().GetString("listen")
			advertise, _ := cmd.Flags().GetString("advertise")
			workDir, _ := cmd.Flags().GetString("work-dir")

			return c.app.RunAgent(cmd.Context(), app.AgentOptions{
				Dir:         dirFlag(cmd),
				ID:          id,
				Coordinator: coordinator,
				Listen:      listen,
				Advertise:   advertise,
				WorkDir:     workDir,
				Command:     args,
			})
		},
	}

	cmd.Flags().String("id", "", "Worker id, random when unset")
	cmd.Flags().String("coordinator", "", "Coordinator address, overriding lockship.yaml")
	cmd.Flags().String("listen", "", "Address to serve the worker API on")
	cmd.Flags().String("advertise", "", "Address the coordinator reaches this agent at")
	cmd.Flags().String("work-dir", "", "Directory installers are applied in")

	return cmd
}
