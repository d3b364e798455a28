package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var topologyPath string
var scenarioPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dvnet",
	Short: "dvnet distance-vector network simulator",
	Long: `dvnet simulates a small network of routers running a distance-vector
routing protocol, with application-layer message passing riding on top of
the computed routes.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

func logLevel(cmd *cobra.Command) slog.Level {
	if ok, _ := cmd.Flags().GetBool("verbose"); ok {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
