package cmd

import (
	"fmt"

	"github.com/encodeous/dvnet/core"
	"github.com/encodeous/dvnet/state"
	"github.com/spf13/cobra"
)

// convergeCmd represents the converge command
var convergeCmd = &cobra.Command{
	Use:   "converge",
	Short: "Run a topology until the distance vectors converge",
	RunE: func(cmd *cobra.Command, args []string) error {
		edges, err := state.ReadTopologyFile(topologyPath)
		if err != nil {
			return err
		}
		log, err := core.NewLogger(logLevel(cmd), "")
		if err != nil {
			return err
		}
		tr := core.NewLogTracer(log)
		n := core.NewNetwork(edges, core.MultiTracer{core.StatsTracer{}, tr})
		steps := n.RunUntilConverged()
		log.Info("network converged", "steps", steps)
		for _, line := range core.FormatTables(n) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convergeCmd)
	convergeCmd.Flags().StringVarP(&topologyPath, "topology", "t", "topology.txt", "topology edge-list file")
}
