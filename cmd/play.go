package cmd

import (
	"github.com/encodeous/dvnet/core"
	"github.com/spf13/cobra"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Execute a scripted scenario against a simulated network",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := core.ReadScenario(scenarioPath)
		if err != nil {
			return err
		}
		log, err := core.NewLogger(logLevel(cmd), cfg.LogPath)
		if err != nil {
			return err
		}
		tr := core.NewLogTracer(log)
		n, err := core.BuildNetwork(cfg, core.MultiTracer{core.StatsTracer{}, tr})
		if err != nil {
			return err
		}
		return core.RunScript(n, cfg.Script, log)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "scenario.yaml", "scenario file")
}
