package config

import (
	"fmt"

	"github.com/cuemby/vsim/pkg/entity"
	"github.com/cuemby/vsim/pkg/hardware"
	"github.com/cuemby/vsim/pkg/monitor"
	"github.com/cuemby/vsim/pkg/network"
	"github.com/cuemby/vsim/pkg/scheduler"
	"github.com/cuemby/vsim/pkg/sim"
	"github.com/cuemby/vsim/pkg/software"
)

// Built is everything Build constructs from a Scenario: the running
// schedulers and the resolved monitor specs, ready for cmd/vsim to
// Start() at the chosen simulation start time.
type Built struct {
	ContainerScheduler *scheduler.ContainerScheduler
	VolumeScheduler    *scheduler.VolumeScheduler
	APICallInitiator   *scheduler.APICallInitiator
	Monitors           []MonitorSpec
}

// MonitorSpec is one configured monitor, already resolved to a concrete
// Observer over the matching entities. pkg/config stops short of
// building the final monitor.Sink: "snapshot"/"stream" sinks live in
// pkg/storage and pkg/api, which this package does not import to avoid
// tying scenario decoding to the control plane. cmd/vsim combines Sinks
// into an actual monitor.Sink and calls monitor.New(...).Start(at).
type MonitorSpec struct {
	Label        string
	SamplePeriod float64
	Sinks        []string
	Observer     monitor.Observer
}

// Build constructs the topology and workload described by scn inside s,
// returning the schedulers and monitors cmd/vsim starts at its chosen
// simulation epoch. Most configuration errors (duplicate labels,
// unresolved references, invalid enums) are caught earlier by Validate.
// Build returns an error when a link, a user's gateway or an API call
// names a node or endpoint it cannot resolve, when a monitor kind is
// unknown, and when pkg/network rejects a link.
func Build(s *sim.Simulation, scn *Scenario) (*Built, error) {
	b := newBuilder(s, scn)

	if err := b.buildHardware(); err != nil {
		return nil, err
	}
	if err := b.buildLinks(); err != nil {
		return nil, err
	}
	if err := b.buildUsers(); err != nil {
		return nil, err
	}
	if err := b.buildContainers(); err != nil {
		return nil, err
	}
	if err := b.buildMicroservices(); err != nil {
		return nil, err
	}
	if err := b.buildAPICalls(); err != nil {
		return nil, err
	}
	monitors, err := b.buildMonitors()
	if err != nil {
		return nil, err
	}

	return &Built{
		ContainerScheduler: scheduler.NewContainerScheduler(s, schedulerPolicy(scn.ContainerScheduler)),
		VolumeScheduler:    scheduler.NewVolumeScheduler(s, schedulerPolicy(scn.VolumeScheduler)),
		APICallInitiator:   scheduler.NewAPICallInitiator(s),
		Monitors:           monitors,
	}, nil
}

func schedulerPolicy(name string) scheduler.HostSelector {
	switch name {
	case "bestfit":
		return scheduler.BestfitPolicy{}
	case "worstfit":
		return scheduler.WorstfitPolicy{}
	default:
		return scheduler.DefaultPolicy{}
	}
}

// builder carries the label indices construction needs to resolve
// precursors, link endpoints, and API-call endpoints by name.
type builder struct {
	s   *sim.Simulation
	scn *Scenario

	nodes     map[string]network.Node      // hosts/switches/routers/gateways by label
	entities  map[string]*entity.Entity    // containers/microservices by label, for precursor lookup
	endpoints map[string]software.Endpoint // users/microservices by label, for api_calls
}

func newBuilder(s *sim.Simulation, scn *Scenario) *builder {
	return &builder{
		s:         s,
		scn:       scn,
		nodes:     make(map[string]network.Node),
		entities:  make(map[string]*entity.Entity),
		endpoints: make(map[string]software.Endpoint),
	}
}

func (b *builder) precursor(label string) []*entity.Entity {
	if label == "" {
		return nil
	}
	if e, ok := b.entities[label]; ok {
		return []*entity.Entity{e}
	}
	return nil
}

// buildHardware constructs every topology node. Label uniqueness across
// hosts/switches/routers/gateways/users/containers/microservices was
// already checked by Validate, so construction here never needs to
// re-check it.
func (b *builder) buildHardware() error {
	for _, h := range b.scn.Hosts {
		host := hardware.NewHost(b.s, h.Label, h.IPC, h.FrequencyMHz, h.NumCores,
			hardware.DispatchMode(h.CPUMode), h.RAMGiB, h.ROMGiB, h.Architecture, nil)
		host.Create(0)
		host.PowerOn(0)
		b.nodes[h.Label] = host
	}
	for _, sw := range b.scn.Switches {
		s := hardware.NewSwitch(b.s, sw.Label, sw.IPC, sw.FrequencyMHz, sw.NumCores,
			hardware.DispatchMode(sw.CPUMode), sw.RAMGiB, sw.ROMGiB, sw.Architecture, sw.Subnet, nil)
		s.Create(0)
		s.PowerOn(0)
		b.nodes[sw.Label] = s
	}
	for _, r := range b.scn.Routers {
		rt := hardware.NewRouter(b.s, r.Label, r.IPC, r.FrequencyMHz, r.NumCores,
			hardware.DispatchMode(r.CPUMode), r.RAMGiB, r.ROMGiB, r.Architecture, r.Subnet, nil)
		rt.Create(0)
		rt.PowerOn(0)
		b.nodes[r.Label] = rt
	}
	for _, g := range b.scn.Gateways {
		gw := hardware.NewGateway(b.s, g.Label)
		gw.Create(0)
		b.nodes[g.Label] = gw
	}
	return nil
}

func (b *builder) buildLinks() error {
	for i, l := range b.scn.Links {
		from, ok := b.nodes[l.From]
		if !ok {
			return errf("", fmt.Sprintf("links[%d].from", i), "unknown node %q", l.From)
		}
		to, ok := b.nodes[l.To]
		if !ok {
			return errf("", fmt.Sprintf("links[%d].to", i), "unknown node %q", l.To)
		}
		if err := b.s.Network.AddLink(from, to, l.BandwidthMiBs, 0); err != nil {
			return errAt("", fmt.Sprintf("links[%d]", i), err)
		}
	}
	return nil
}

func (b *builder) buildUsers() error {
	for i, u := range b.scn.Users {
		gwNode, ok := b.nodes[u.Gateway]
		if !ok {
			return errf("", fmt.Sprintf("users[%d].gateway", i), "unknown gateway %q", u.Gateway)
		}
		gw, ok := gwNode.(sim.NetworkNodeRef)
		if !ok {
			return errf("", fmt.Sprintf("users[%d].gateway", i), "node %q is not a valid network endpoint", u.Gateway)
		}
		user := software.NewUser(b.s, gw, u.Label, nil)
		user.Create(0)
		b.endpoints[u.Label] = user
	}
	return nil
}

func volumeDescs(cfg []VolumeConfig) []software.VolumeDescription {
	out := make([]software.VolumeDescription, 0, len(cfg))
	for _, v := range cfg {
		out = append(out, software.VolumeDescription{SizeBytes: v.SizeMiB * 1024 * 1024, Path: v.Path, Label: v.Label})
	}
	return out
}

func (b *builder) buildContainers() error {
	for _, c := range b.scn.Containers {
		container := software.NewContainer(b.s, c.CPUMilli, c.RAMMiB*1024*1024, c.ImageMiB*1024*1024,
			c.CPULimitMilli, c.RAMLimitMiB*1024*1024, c.Priority, c.Daemon, volumeDescs(c.Volumes), c.Label,
			b.precursor(c.Precursor))
		container.Create(c.CreateAt)
		if c.TerminateAt != nil {
			container.Terminate(*c.TerminateAt)
		}
		b.entities[c.Label] = container.Entity
	}
	return nil
}

func loadBalancer(s *sim.Simulation, name string) software.LoadBalancer {
	switch name {
	case "random":
		return software.NewRandomLoadBalancer(s)
	case "worst_fit":
		return software.NewWorstfitLoadBalancer()
	default:
		return software.NewBestfitLoadBalancer()
	}
}

func (b *builder) buildMicroservices() error {
	for _, m := range b.scn.Microservices {
		cfg := software.MicroserviceConfig{
			RequestedCPU:      m.CPUMilli,
			RequestedRAM:      m.RAMMiB,
			ImageSize:         m.ImageMiB,
			CPULimit:          m.CPULimitMilli,
			RAMLimit:          m.RAMLimitMiB,
			Volumes:           volumeDescs(m.Volumes),
			Priority:          m.Priority,
			Daemon:            m.Daemon,
			MinInstances:      m.MinInstances,
			MaxInstances:      m.MaxInstances,
			LoadBalancer:      loadBalancer(b.s, m.LoadBalancer),
			CPUUpperThreshold: m.CPUUpper,
			CPULowerThreshold: m.CPULower,
			RAMUpperThreshold: m.RAMUpper,
			RAMLowerThreshold: m.RAMLower,
		}
		ms := software.NewMicroservice(b.s, cfg, nil, m.Label, b.precursor(m.Precursor))
		ms.Create(m.CreateAt)
		if m.TerminateAt != nil {
			ms.Terminate(*m.TerminateAt)
		}
		b.entities[m.Label] = ms.Entity
		b.endpoints[m.Label] = ms
	}
	return nil
}

func (b *builder) buildAPICalls() error {
	for i, a := range b.scn.APICalls {
		src, ok := b.endpoints[a.Src]
		if !ok {
			return errf("", fmt.Sprintf("api_calls[%d].src", i), "unknown endpoint %q", a.Src)
		}
		dst, ok := b.endpoints[a.Dst]
		if !ok {
			return errf("", fmt.Sprintf("api_calls[%d].dst", i), "unknown endpoint %q", a.Dst)
		}
		call := software.NewAPICall(b.s, src, dst, a.Priority, a.SrcProcLen, a.DstProcLen, a.AckProcLen,
			a.NumSrcPackets, a.SrcPacketSize, a.NumRetPackets, a.RetPacketSize, a.NumAckPackets, a.AckPacketSize,
			a.Label, b.precursor(a.Precursor))
		call.Create(a.CreateAt)
		if a.TerminateAt != nil {
			call.Terminate(*a.TerminateAt)
		}
	}
	return nil
}

func (b *builder) buildMonitors() ([]MonitorSpec, error) {
	out := make([]MonitorSpec, 0, len(b.scn.Monitors))
	for i, m := range b.scn.Monitors {
		var observer monitor.Observer
		switch m.Kind {
		case "host":
			observer = monitor.NewHostObserver(hostTargets(b.s))
		case "container":
			observer = monitor.NewContainerObserver(containerTargets(b.s))
		case "microservice":
			observer = monitor.NewMicroserviceObserver(microserviceTargets(b.s))
		default:
			return nil, errf("", fmt.Sprintf("monitors[%d].kind", i), "unknown monitor kind %q", m.Kind)
		}
		label := m.Label
		if label == "" {
			label = fmt.Sprintf("%s-monitor-%d", m.Kind, i)
		}
		out = append(out, MonitorSpec{Label: label, SamplePeriod: m.SamplePeriod, Sinks: m.Sinks, Observer: observer})
	}
	return out, nil
}

// hostTargets/containerTargets/microserviceTargets type-assert the
// registries' narrow scheduler-facing interfaces up to the richer
// telemetry surfaces pkg/monitor needs; every concrete *hardware.Host /
// *software.Container / *software.Microservice satisfies both, so the
// assertion only fails for test doubles, which never reach Build.
func hostTargets(s *sim.Simulation) []monitor.HostTarget {
	var out []monitor.HostTarget
	for _, h := range s.AllHosts() {
		if t, ok := h.(monitor.HostTarget); ok {
			out = append(out, t)
		}
	}
	return out
}

func containerTargets(s *sim.Simulation) []monitor.ContainerTarget {
	var out []monitor.ContainerTarget
	for _, c := range s.Containers.All() {
		if t, ok := c.(monitor.ContainerTarget); ok {
			out = append(out, t)
		}
	}
	return out
}

func microserviceTargets(s *sim.Simulation) []monitor.MicroserviceTarget {
	var out []monitor.MicroserviceTarget
	for _, m := range s.Microservices.All() {
		if t, ok := m.(monitor.MicroserviceTarget); ok {
			out = append(out, t)
		}
	}
	return out
}
