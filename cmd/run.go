package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/encodeous/gospf/core"
	"github.com/spf13/cobra"
)

var debugAddr = ""

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Populate the routing tables and keep the process alive",
	Long:  `Computes every routing table and waits for an interrupt. With --debug, SPF and lookup metrics are served over http.`,
	Run: func(cmd *cobra.Command, args []string) {
		if debugAddr != "" {
			core.ServeDebug(debugAddr)
		}
		m := start()
		for _, c := range m.RouteCounts() {
			fmt.Printf("%s (%s): %d routes\n", c.V1, m.Agent(c.V1).RouterID(), c.V2)
		}
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
	},
	GroupID: "run",
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&debugAddr, "debug", "d", debugAddr, "serve expvar and metrics on this address, e.g. 127.0.0.1:6060")
}
