package main

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/vsim/pkg/config"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Inspect the local machine and emit a single-host scenario fragment",
	Long: `Reads the real host's CPU count/frequency and installed RAM
(github.com/shirou/gopsutil/v3) and emits a scenario fragment sized to
match, so a scenario can start from actual local hardware instead of
guessed numbers.`,
	RunE: discoverHardware,
}

func init() {
	discoverCmd.Flags().String("out", "", "Write the fragment to this file instead of stdout")
}

func discoverHardware(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")

	counts, err := cpu.Counts(true)
	if err != nil {
		return fmt.Errorf("read cpu count: %w", err)
	}
	infos, err := cpu.Info()
	if err != nil {
		return fmt.Errorf("read cpu info: %w", err)
	}
	mhz := 2400.0
	if len(infos) > 0 && infos[0].Mhz > 0 {
		mhz = infos[0].Mhz
	}

	vmem, err := mem.VirtualMemory()
	if err != nil {
		return fmt.Errorf("read memory: %w", err)
	}

	info, err := host.Info()
	if err != nil {
		return fmt.Errorf("read host info: %w", err)
	}

	scn := config.Scenario{
		Resolution: 4,
		Hosts: []config.HardwareConfig{
			{
				Label:        info.Hostname,
				IPC:          1.0,
				FrequencyMHz: mhz,
				NumCores:     counts,
				CPUMode:      1,
				RAMGiB:       float64(vmem.Total) / (1024 * 1024 * 1024),
				ROMGiB:       64,
				Architecture: "x86",
			},
		},
	}

	data, err := yaml.Marshal(&scn)
	if err != nil {
		return fmt.Errorf("render scenario fragment: %w", err)
	}

	header := fmt.Sprintf("# discovered from %s on %s %s\n", info.Hostname, info.Platform, info.PlatformVersion)
	if out == "" {
		fmt.Print(header)
		fmt.Print(string(data))
		return nil
	}
	return os.WriteFile(out, append([]byte(header), data...), 0644)
}
