// Package config decodes a YAML scenario file into the constructor
// knobs enumerated in spec.md §6: hardware, container, microservice, and
// API-call constructors, plus topology and a monitors list
// (SPEC_FULL.md §6). It mirrors the teacher's YAML-resource-apply
// pattern (`gopkg.in/yaml.v3`), but decodes into this domain's own
// shapes rather than Warren's CRD-style resources.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VolumeConfig is one `volumes` entry on a container or microservice
// (spec.md §6's `(size_MiB, path, label)` tuples).
type VolumeConfig struct {
	SizeMiB float64 `yaml:"size_mib"`
	Path    string  `yaml:"path"`
	Label   string  `yaml:"label"`
}

// HardwareConfig is the shared shape of the hardware constructor (spec.md
// §6): `{ipc, frequency_MHz, num_cores, cpu_tdp_watts, cpu_mode,
// ram_GiB, rom_GiB, architecture}`. cpu_tdp_watts is accepted and
// range-checked for forward compatibility with a power model; nothing in
// the kernel's CPU dispatch (pkg/hardware/cpu.go) consumes wattage today,
// matching the original's dispatch algorithm which is likewise power-
// agnostic (see DESIGN.md).
type HardwareConfig struct {
	Label        string  `yaml:"label"`
	IPC          float64 `yaml:"ipc"`
	FrequencyMHz float64 `yaml:"frequency_mhz"`
	NumCores     int     `yaml:"num_cores"`
	CPUTDPWatts  float64 `yaml:"cpu_tdp_watts"`
	CPUMode      int     `yaml:"cpu_mode"`
	RAMGiB       float64 `yaml:"ram_gib"`
	ROMGiB       float64 `yaml:"rom_gib"`
	Architecture string  `yaml:"architecture"`
}

// SwitchConfig and RouterConfig add the subnet a plain host doesn't
// carry (spec.md §6's "subnet (switches only)"; routers carry one too,
// per pkg/hardware/router.go and spec.md §4.8).
type SwitchConfig struct {
	HardwareConfig `yaml:",inline"`
	Subnet         string `yaml:"subnet"`
}

type RouterConfig struct {
	HardwareConfig `yaml:",inline"`
	Subnet         string `yaml:"subnet"`
}

// GatewayConfig is an edge node: no CPU/RAM knobs, just a label
// (pkg/hardware/gateway.go has infinite RAM and no CPU by design).
type GatewayConfig struct {
	Label string `yaml:"label"`
}

// UserConfig attaches a network-only API-call endpoint to a gateway.
type UserConfig struct {
	Label   string `yaml:"label"`
	Gateway string `yaml:"gateway"`
}

// LinkConfig wires two topology nodes by label (spec.md §6's
// `network.add_link`).
type LinkConfig struct {
	From          string  `yaml:"from"`
	To            string  `yaml:"to"`
	BandwidthMiBs float64 `yaml:"bandwidth_mibs"`
}

// ContainerConfig is the container constructor (spec.md §6).
type ContainerConfig struct {
	Label         string         `yaml:"label"`
	CPUMilli      float64        `yaml:"cpu_milli"`
	RAMMiB        float64        `yaml:"ram_mib"`
	ImageMiB      float64        `yaml:"image_mib"`
	CPULimitMilli float64        `yaml:"cpu_limit_milli"`
	RAMLimitMiB   float64        `yaml:"ram_limit_mib"`
	Volumes       []VolumeConfig `yaml:"volumes"`
	Priority      int            `yaml:"priority"`
	Daemon        bool           `yaml:"daemon"`
	CreateAt      float64        `yaml:"create_at"`
	TerminateAt   *float64       `yaml:"terminate_at"`
	Precursor     string         `yaml:"precursor"`
}

// MicroserviceConfig is the container fields plus the autoscaling group
// knobs (spec.md §6).
type MicroserviceConfig struct {
	ContainerConfig  `yaml:",inline"`
	MinInstances     int     `yaml:"min_instances"`
	MaxInstances     int     `yaml:"max_instances"`
	LoadBalancer     string  `yaml:"load_balancer"` // random | best_fit | worst_fit
	CPUUpper         float64 `yaml:"cpu_upper"`
	CPULower         float64 `yaml:"cpu_lower"`
	RAMUpper         float64 `yaml:"ram_upper"`
	RAMLower         float64 `yaml:"ram_lower"`
	EvaluationPeriod float64 `yaml:"evaluation_interval"`
}

// APICallConfig is the API-call constructor (spec.md §6). Src/Dst name a
// previously-declared user or microservice label.
type APICallConfig struct {
	Label         string   `yaml:"label"`
	Src           string   `yaml:"src"`
	Dst           string   `yaml:"dst"`
	Priority      int      `yaml:"priority"`
	SrcProcLen    int      `yaml:"src_proc_len"`
	DstProcLen    int      `yaml:"dst_proc_len"`
	AckProcLen    int      `yaml:"ack_proc_len"`
	NumSrcPackets int      `yaml:"num_src_packets"`
	SrcPacketSize float64  `yaml:"src_packet_size"`
	NumRetPackets int      `yaml:"num_ret_packets"`
	RetPacketSize float64  `yaml:"ret_packet_size"`
	NumAckPackets int      `yaml:"num_ack_packets"`
	AckPacketSize float64  `yaml:"ack_packet_size"`
	CreateAt      float64  `yaml:"create_at"`
	TerminateAt   *float64 `yaml:"terminate_at"`
	Precursor     string   `yaml:"precursor"`
}

// MonitorConfig is one entry of the `monitors` list (SPEC_FULL.md §6):
// `{kind, sample_period, sinks: [log, snapshot, stream]}`.
type MonitorConfig struct {
	Label        string   `yaml:"label"`
	Kind         string   `yaml:"kind"` // host | container | microservice
	SamplePeriod float64  `yaml:"sample_period"`
	Sinks        []string `yaml:"sinks"`
}

// Scenario is the top-level YAML document (spec.md §6's configuration
// knobs plus topology and monitors).
type Scenario struct {
	Resolution int  `yaml:"resolution"`
	Debug      bool `yaml:"debug"`

	ContainerScheduler string `yaml:"container_scheduler"` // default | bestfit | worstfit
	VolumeScheduler    string `yaml:"volume_scheduler"`

	Hosts    []HardwareConfig `yaml:"hosts"`
	Switches []SwitchConfig   `yaml:"switches"`
	Routers  []RouterConfig   `yaml:"routers"`
	Gateways []GatewayConfig  `yaml:"gateways"`
	Users    []UserConfig     `yaml:"users"`
	Links    []LinkConfig     `yaml:"links"`

	Containers    []ContainerConfig    `yaml:"containers"`
	Microservices []MicroserviceConfig `yaml:"microservices"`
	APICalls      []APICallConfig      `yaml:"api_calls"`

	Monitors []MonitorConfig `yaml:"monitors"`
}

// Load reads and parses a scenario file. Decoding errors are wrapped in
// *Error with the file name attached; the caller (cmd/vsim) need not know
// the scenario's on-disk shape to report a useful location.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errAt(path, "", fmt.Errorf("read scenario: %w", err))
	}
	scn, err := Parse(data)
	if err != nil {
		if cerr, ok := err.(*Error); ok {
			cerr.File = path
			return nil, cerr
		}
		return nil, errAt(path, "", err)
	}
	return scn, nil
}

// Parse decodes raw YAML bytes into a Scenario without touching the
// filesystem, used by `vsim validate` and by tests.
func Parse(data []byte) (*Scenario, error) {
	var scn Scenario
	if err := yaml.Unmarshal(data, &scn); err != nil {
		return nil, errAt("", "", fmt.Errorf("parse scenario yaml: %w", err))
	}
	if scn.Resolution <= 0 {
		scn.Resolution = 4
	}
	if err := Validate(&scn); err != nil {
		return nil, err
	}
	return &scn, nil
}
