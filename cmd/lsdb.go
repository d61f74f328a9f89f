package cmd

import (
	"fmt"
	"github.com/spf13/cobra"
)

var lsdbCmd = &cobra.Command{
	Use:   "lsdb",
	Short: "Prints the global link-state database",
	Run: func(cmd *cobra.Command, args []string) {
		m := start()
		fmt.Println(m.Database().String())
	},
	GroupID: "inspect",
}

func init() {
	rootCmd.AddCommand(lsdbCmd)
}
