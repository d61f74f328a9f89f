package cmd

import (
	"log/slog"
	"os"

	"github.com/encodeous/gospf/core"
	"github.com/spf13/cobra"
)

var (
	topologyPath = "topology.yaml"
	logPath      = ""
	verbose      = false
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gospf",
	Short: "Global link-state route oracle",
	Long: `gospf computes unicast routes for every router of a simulated topology.
Each router describes its links as LSAs, the LSAs are gathered into one database and a shortest path tree is computed per router.`,
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
	rootCmd.AddGroup(&cobra.Group{
		ID:    "run",
		Title: "Run gospf",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "inspect",
		Title: "Inspect Routing State",
	})
	rootCmd.PersistentFlags().StringVarP(&topologyPath, "topology", "t", topologyPath, "topology file")
	rootCmd.PersistentFlags().StringVarP(&logPath, "log", "l", logPath, "also write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", verbose, "Verbose output")
}

// start loads the topology and populates every routing table, any error is fatal
func start() *core.RouteManager {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	m, _, err := core.Start(topologyPath, logPath, level)
	if err != nil {
		panic(err)
	}
	return m
}
