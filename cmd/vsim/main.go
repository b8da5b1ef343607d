// Command vsim drives the discrete-event simulator: parse a scenario,
// build its topology and workload, and advance the clock. Subcommands
// mirror cmd/warren/main.go's cobra root-command layout: a persistent
// --log-level/--log-json pair initialized once in cobra.OnInitialize,
// one file per command family.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/vsim/pkg/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vsim",
	Short: "vsim - discrete-event simulator for cloud/edge infrastructure",
	Long: `vsim simulates hosts, containers, microservices, and API calls
flowing across a virtual network topology, without touching real
hardware. Describe a scenario in YAML, then run it forward in
virtual time.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
