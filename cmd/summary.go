package cmd

import (
	"fmt"
	"net/netip"

	"github.com/encodeous/gospf/state"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <node>",
	Short: "Prints the aggregated set of prefixes a router can reach",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m := start()
		a := m.Agent(args[0])
		if a == nil {
			panic(state.ErrUnknownNode)
		}
		prefixes := make([]netip.Prefix, 0, a.RoutingTable().GetNRoutes())
		for _, e := range a.RoutingTable().Routes() {
			if e.IsHost() {
				prefixes = append(prefixes, netip.PrefixFrom(e.Dest, e.Dest.BitLen()))
			} else {
				prefixes = append(prefixes, e.Network)
			}
		}
		for _, p := range state.CoalescePrefix(prefixes) {
			fmt.Println(p.String())
		}
	},
	GroupID: "inspect",
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
