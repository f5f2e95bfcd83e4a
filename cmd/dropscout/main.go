// -----------------------------------------------------------------------
// Last Modified: Friday, 8th November 2025 4:00:00 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/dropscout/internal/common"
)

// configPaths is a custom flag type that allows multiple --config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	flagPort    int
	flagHost    string

	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "dropscout",
	Short: "Stealthy dropshipping catalog crawl orchestrator",
	Long:  `Dropscout paces catalog page submissions to a third-party fetcher, ingests its webhook callbacks, parses embedded product JSON, and routes admitted records to a downstream scoring collaborator.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().VarP(&configFiles, "config", "c", "Configuration file path (repeatable; later files override earlier ones)")
	rootCmd.PersistentFlags().IntVarP(&flagPort, "port", "p", 0, "Server port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "Server host (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves configuration with priority default -> file(s) ->
// env -> CLI flags, then initializes the global structured logger
// (spec.md's ambient logging stack, common.SetupLogger).
func loadConfig() {
	if len(configFiles) == 0 {
		if _, err := os.Stat("dropscout.toml"); err == nil {
			configFiles = append(configFiles, "dropscout.toml")
		} else if _, err := os.Stat("deployments/local/dropscout.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/dropscout.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, flagPort, flagHost)

	logger = common.SetupLogger(config)
	common.PrintBanner(config, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
