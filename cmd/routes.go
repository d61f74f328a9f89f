package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/encodeous/gospf/core"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:     "routes [node...]",
	Aliases: []string{"r"},
	Short:   "Prints the routing table of each router",
	Run: func(cmd *cobra.Command, args []string) {
		m := start()
		agents := m.Agents()
		if len(args) > 0 {
			agents = agents[:0]
			for _, n := range args {
				a := m.Agent(n)
				if a == nil {
					fmt.Fprintf(os.Stderr, "%s does not run global routing\n", n)
					continue
				}
				agents = append(agents, a)
			}
		}
		for _, a := range agents {
			fmt.Printf("%s (router %s)\n", a.Node(), a.RouterID())
			printTable(cmd, a)
			fmt.Println()
		}
	},
	GroupID: "inspect",
}

func printTable(cmd *cobra.Command, a *core.RouterAgent) {
	rows := make([][]string, 0, a.RoutingTable().GetNRoutes())
	for _, e := range a.RoutingTable().Routes() {
		dst := e.Dest.String()
		if !e.IsHost() {
			dst = e.Network.String()
		}
		gw := "on-link"
		if e.IsGateway() {
			gw = e.Gateway.String()
		}
		rows = append(rows, []string{e.Kind.String(), dst, gw, strconv.Itoa(e.Interface), strconv.FormatUint(uint64(e.Metric), 10)})
	}
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"KIND", "DESTINATION", "GATEWAY", "IF", "METRIC"})
	table.AppendBulk(rows)
	table.Render()
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
