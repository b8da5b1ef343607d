package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/vsim/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and type/range-check a scenario without running it",
	RunE:  validateScenario,
}

func init() {
	validateCmd.Flags().StringP("file", "f", "", "Scenario YAML file (required)")
	validateCmd.MarkFlagRequired("file")
}

func validateScenario(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")

	scn, err := config.Load(file)
	if err != nil {
		return err
	}

	fmt.Printf("%s is valid\n", file)
	fmt.Printf("  hosts=%d switches=%d routers=%d gateways=%d users=%d links=%d\n",
		len(scn.Hosts), len(scn.Switches), len(scn.Routers), len(scn.Gateways), len(scn.Users), len(scn.Links))
	fmt.Printf("  containers=%d microservices=%d api_calls=%d monitors=%d\n",
		len(scn.Containers), len(scn.Microservices), len(scn.APICalls), len(scn.Monitors))
	return nil
}
