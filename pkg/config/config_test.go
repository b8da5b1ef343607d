package config

import (
	"testing"

	"github.com/cuemby/vsim/pkg/sim"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
resolution: 4
hosts:
  - label: h1
    ipc: 2
    frequency_mhz: 2400
    num_cores: 4
    cpu_tdp_watts: 65
    cpu_mode: 1
    ram_gib: 8
    rom_gib: 100
    architecture: x86
switches:
  - label: sw1
    ipc: 1
    frequency_mhz: 1000
    num_cores: 1
    cpu_mode: 1
    ram_gib: 1
    rom_gib: 10
    architecture: x86
    subnet: 10.0.0.0/24
gateways:
  - label: gw1
links:
  - from: h1
    to: sw1
    bandwidth_mibs: 125
  - from: gw1
    to: sw1
    bandwidth_mibs: 125
users:
  - label: u1
    gateway: gw1
containers:
  - label: c1
    cpu_milli: 500
    ram_mib: 256
    image_mib: 512
    priority: 1
    daemon: true
microservices:
  - label: ms1
    cpu_milli: 200
    ram_mib: 128
    image_mib: 256
    priority: 1
    daemon: true
    min_instances: 1
    max_instances: 2
    load_balancer: best_fit
api_calls:
  - label: call1
    src: u1
    dst: ms1
    priority: 1
    src_proc_len: 0
    dst_proc_len: 10
    ack_proc_len: 0
    num_src_packets: 1
    src_packet_size: 1024
    num_ret_packets: 1
    ret_packet_size: 1024
    num_ack_packets: 0
monitors:
  - kind: host
    sample_period: 0.5
    sinks: [log]
  - kind: microservice
    sample_period: 1
    sinks: [log, snapshot]
`

func TestParseMinimalScenario(t *testing.T) {
	scn, err := Parse([]byte(minimalScenario))
	require.NoError(t, err)
	require.Equal(t, 4, scn.Resolution)
	require.Len(t, scn.Hosts, 1)
	require.Len(t, scn.APICalls, 1)
}

func TestParseRejectsHostToHostLink(t *testing.T) {
	scn, err := Parse([]byte(minimalScenario))
	require.NoError(t, err)
	scn.Links = append(scn.Links, LinkConfig{From: "h1", To: "h1", BandwidthMiBs: 1})
	require.Error(t, Validate(scn))
}

func TestParseRejectsDuplicateLabel(t *testing.T) {
	scn, err := Parse([]byte(minimalScenario))
	require.NoError(t, err)
	scn.Hosts = append(scn.Hosts, scn.Hosts[0])
	require.Error(t, Validate(scn))
}

func TestParseRejectsUserEndpointWithNoPackets(t *testing.T) {
	scn, err := Parse([]byte(minimalScenario))
	require.NoError(t, err)
	scn.APICalls[0].NumSrcPackets = 0
	require.Error(t, Validate(scn))
}

func TestBuildConstructsTopologyAndWorkload(t *testing.T) {
	scn, err := Parse([]byte(minimalScenario))
	require.NoError(t, err)

	s := sim.New(sim.Config{Resolution: scn.Resolution})
	built, err := Build(s, scn)
	require.NoError(t, err)
	require.NotNil(t, built.ContainerScheduler)
	require.NotNil(t, built.VolumeScheduler)
	require.NotNil(t, built.APICallInitiator)
	require.Len(t, built.Monitors, 2)

	built.ContainerScheduler.Start(0)
	built.VolumeScheduler.Start(0)
	built.APICallInitiator.Start(0)

	require.NoError(t, s.Simulate(5))

	require.Equal(t, 2, s.Hosts.Len(), "h1 plus switch sw1, which registers as a host")
	require.Equal(t, 1, s.Microservices.Len())
	require.GreaterOrEqual(t, s.Containers.Len(), 2, "standalone container plus at least one microservice instance")
}

func TestBuildUnknownAPICallEndpoint(t *testing.T) {
	scn, err := Parse([]byte(minimalScenario))
	require.NoError(t, err)
	scn.APICalls[0].Dst = "does-not-exist"

	s := sim.New(sim.Config{Resolution: scn.Resolution})
	_, err = Build(s, scn)
	require.Error(t, err)
}
