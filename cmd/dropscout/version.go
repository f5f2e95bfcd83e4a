package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/dropscout/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Version is a leaf command and shouldn't trigger config loading.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dropscout version %s\n", common.GetVersion())
	},
}
