package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/vsim/pkg/config"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactively build a minimal scenario",
	Long: `Walks through the smallest useful scenario — one host, one
container, one monitor — via github.com/AlecAivazis/survey/v2 prompts,
then writes the result to --out.`,
	RunE: runWizard,
}

func init() {
	wizardCmd.Flags().String("out", "scenario.yaml", "Where to write the generated scenario")
}

func runWizard(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	answers := struct {
		HostLabel      string
		Cores          string
		RAMGiB         string
		ContainerLabel string
		CPUMilli       string
		RAMMiB         string
		MonitorSinks   []string
	}{}

	questions := []*survey.Question{
		{
			Name:     "hostlabel",
			Prompt:   &survey.Input{Message: "Host label:", Default: "h1"},
			Validate: survey.Required,
		},
		{
			Name:   "cores",
			Prompt: &survey.Input{Message: "Number of CPU cores:", Default: "4"},
		},
		{
			Name:   "ramgib",
			Prompt: &survey.Input{Message: "Host RAM (GiB):", Default: "8"},
		},
		{
			Name:     "containerlabel",
			Prompt:   &survey.Input{Message: "Container label:", Default: "c1"},
			Validate: survey.Required,
		},
		{
			Name:   "cpumilli",
			Prompt: &survey.Input{Message: "Container CPU request (millicores):", Default: "250"},
		},
		{
			Name:   "rammib",
			Prompt: &survey.Input{Message: "Container RAM request (MiB):", Default: "256"},
		},
	}

	if err := survey.Ask(questions, &answers); err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	sinkPrompt := &survey.MultiSelect{
		Message: "Monitor sinks:",
		Options: []string{"log", "snapshot", "stream"},
		Default: []string{"log"},
	}
	if err := survey.AskOne(sinkPrompt, &answers.MonitorSinks); err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	cores, err := strconv.Atoi(answers.Cores)
	if err != nil {
		return fmt.Errorf("cores must be an integer: %w", err)
	}
	ramGiB, err := strconv.ParseFloat(answers.RAMGiB, 64)
	if err != nil {
		return fmt.Errorf("ram_gib must be a number: %w", err)
	}
	cpuMilli, err := strconv.ParseFloat(answers.CPUMilli, 64)
	if err != nil {
		return fmt.Errorf("cpu_milli must be a number: %w", err)
	}
	ramMiB, err := strconv.ParseFloat(answers.RAMMiB, 64)
	if err != nil {
		return fmt.Errorf("ram_mib must be a number: %w", err)
	}

	scn := config.Scenario{
		Resolution: 4,
		Hosts: []config.HardwareConfig{
			{
				Label:        answers.HostLabel,
				IPC:          1.0,
				FrequencyMHz: 2400,
				NumCores:     cores,
				CPUMode:      1,
				RAMGiB:       ramGiB,
				ROMGiB:       64,
				Architecture: "x86",
			},
		},
		Containers: []config.ContainerConfig{
			{
				Label:         answers.ContainerLabel,
				CPUMilli:      cpuMilli,
				RAMMiB:        ramMiB,
				ImageMiB:      128,
				CPULimitMilli: cpuMilli * 2,
				RAMLimitMiB:   ramMiB * 2,
			},
		},
		Monitors: []config.MonitorConfig{
			{Kind: "host", SamplePeriod: 1, Sinks: answers.MonitorSinks},
		},
	}

	data, err := yaml.Marshal(&scn)
	if err != nil {
		return fmt.Errorf("render scenario: %w", err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Printf("Wrote %s\n", out)
	return nil
}
