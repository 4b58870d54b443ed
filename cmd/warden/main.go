// Command warden applies and reconciles declarative host configuration:
// users, groups, files, directories, packages, services, host-table
// entries, and sysctls, described in a YAML policy manifest.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strandline/warden/pkg/log"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "warden applies and reconciles declarative host configuration",
	Long: `warden is a configuration-management agent: it takes a declared
policy of resources (users, groups, files, directories, packages,
services, host-table entries, sysctls) and brings the host into
compliance, applying only the minimal corrective actions needed.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"warden version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(reportCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
