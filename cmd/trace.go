package cmd

import (
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace <source node> <destination address>",
	Short: "Follows the routing tables from a router toward an address",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dst, err := netip.ParseAddr(args[1])
		if err != nil {
			panic(err)
		}
		m := start()
		err = m.PrintRoute(cmd.OutOrStdout(), args[0], dst)
		if err != nil {
			fmt.Println("Error:", err.Error())
		}
	},
	GroupID: "inspect",
}

func init() {
	rootCmd.AddCommand(traceCmd)
}
