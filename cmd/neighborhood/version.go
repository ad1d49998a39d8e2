package main

import (
	"github.com/spf13/cobra"
	"github.com/ternarybob/neighborhood/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Neighborhood version %s\n", common.GetFullVersion())
	},
}
