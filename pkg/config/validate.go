package config

import "fmt"

// Validate performs the construction-time checks spec.md §7 classes as
// *configuration errors*: invalid architecture, host-to-host links, and
// a user-as-endpoint API call with zero packets. It runs on every Parse
// (so `vsim validate` catches them without simulating) and again,
// implicitly, as Build walks the same data to construct entities.
func Validate(scn *Scenario) error {
	labelKind := make(map[string]string)

	addLabel := func(path, label, kind string) error {
		if label == "" {
			return errf("", path+".label", "label must not be empty")
		}
		if existing, ok := labelKind[label]; ok {
			return errf("", path+".label", "duplicate label %q (already used by a %s)", label, existing)
		}
		labelKind[label] = kind
		return nil
	}

	for i, h := range scn.Hosts {
		path := fmt.Sprintf("hosts[%d]", i)
		if err := addLabel(path, h.Label, "host"); err != nil {
			return err
		}
		if err := validateHardware(path, h); err != nil {
			return err
		}
	}
	for i, sw := range scn.Switches {
		path := fmt.Sprintf("switches[%d]", i)
		if err := addLabel(path, sw.Label, "switch"); err != nil {
			return err
		}
		if err := validateHardware(path, sw.HardwareConfig); err != nil {
			return err
		}
		if sw.Subnet == "" {
			return errf("", path+".subnet", "switch requires a subnet CIDR block")
		}
	}
	for i, r := range scn.Routers {
		path := fmt.Sprintf("routers[%d]", i)
		if err := addLabel(path, r.Label, "router"); err != nil {
			return err
		}
		if err := validateHardware(path, r.HardwareConfig); err != nil {
			return err
		}
		if r.Subnet == "" {
			return errf("", path+".subnet", "router requires a subnet CIDR block")
		}
	}
	for i, g := range scn.Gateways {
		path := fmt.Sprintf("gateways[%d]", i)
		if err := addLabel(path, g.Label, "gateway"); err != nil {
			return err
		}
	}
	for i, u := range scn.Users {
		path := fmt.Sprintf("users[%d]", i)
		if err := addLabel(path, u.Label, "user"); err != nil {
			return err
		}
		if labelKind[u.Gateway] != "gateway" {
			return errf("", path+".gateway", "user references unknown gateway %q", u.Gateway)
		}
	}

	for i, l := range scn.Links {
		path := fmt.Sprintf("links[%d]", i)
		fromKind, ok := labelKind[l.From]
		if !ok {
			return errf("", path+".from", "link references unknown node %q", l.From)
		}
		toKind, ok := labelKind[l.To]
		if !ok {
			return errf("", path+".to", "link references unknown node %q", l.To)
		}
		if fromKind == "host" && toKind == "host" {
			return errf("", path, "host-to-host links are not permitted (%s <-> %s)", l.From, l.To)
		}
		if l.BandwidthMiBs <= 0 {
			return errf("", path+".bandwidth_mibs", "bandwidth must be > 0")
		}
	}

	endpointLabels := make(map[string]string) // label -> "user" | "microservice"
	for _, u := range scn.Users {
		endpointLabels[u.Label] = "user"
	}
	for i, c := range scn.Containers {
		path := fmt.Sprintf("containers[%d]", i)
		if err := addLabel(path, c.Label, "container"); err != nil {
			return err
		}
	}
	for i, m := range scn.Microservices {
		path := fmt.Sprintf("microservices[%d]", i)
		if err := addLabel(path, m.Label, "microservice"); err != nil {
			return err
		}
		endpointLabels[m.Label] = "microservice"
		switch m.LoadBalancer {
		case "", "random", "best_fit", "worst_fit":
		default:
			return errf("", path+".load_balancer", "unknown load balancer %q", m.LoadBalancer)
		}
	}

	for i, a := range scn.APICalls {
		path := fmt.Sprintf("api_calls[%d]", i)
		srcKind, ok := endpointLabels[a.Src]
		if !ok {
			return errf("", path+".src", "api call references unknown endpoint %q", a.Src)
		}
		dstKind, ok := endpointLabels[a.Dst]
		if !ok {
			return errf("", path+".dst", "api call references unknown endpoint %q", a.Dst)
		}
		if (srcKind == "user" || dstKind == "user") && a.NumSrcPackets <= 0 {
			return errf("", path+".num_src_packets", "api call with a user endpoint requires num_src_packets > 0")
		}
	}

	for i, m := range scn.Monitors {
		path := fmt.Sprintf("monitors[%d]", i)
		switch m.Kind {
		case "host", "container", "microservice":
		default:
			return errf("", path+".kind", "unknown monitor kind %q", m.Kind)
		}
		for _, sink := range m.Sinks {
			switch sink {
			case "log", "snapshot", "stream":
			default:
				return errf("", path+".sinks", "unknown sink %q", sink)
			}
		}
	}

	switch scn.ContainerScheduler {
	case "", "default", "bestfit", "worstfit":
	default:
		return errf("", "container_scheduler", "unknown scheduler policy %q", scn.ContainerScheduler)
	}
	switch scn.VolumeScheduler {
	case "", "default", "bestfit", "worstfit":
	default:
		return errf("", "volume_scheduler", "unknown scheduler policy %q", scn.VolumeScheduler)
	}

	return nil
}

func validateHardware(path string, h HardwareConfig) error {
	switch h.Architecture {
	case "x86", "arm":
	default:
		return errf("", path+".architecture", "architecture must be x86 or arm, got %q", h.Architecture)
	}
	if h.CPUMode != 1 && h.CPUMode != 2 {
		return errf("", path+".cpu_mode", "cpu_mode must be 1 (round robin) or 2 (pack), got %d", h.CPUMode)
	}
	if h.NumCores <= 0 {
		return errf("", path+".num_cores", "num_cores must be > 0")
	}
	if h.IPC <= 0 || h.FrequencyMHz <= 0 {
		return errf("", path+".ipc", "ipc and frequency_mhz must be > 0")
	}
	if h.RAMGiB <= 0 || h.ROMGiB <= 0 {
		return errf("", path+".ram_gib", "ram_gib and rom_gib must be > 0")
	}
	if h.CPUTDPWatts < 0 {
		return errf("", path+".cpu_tdp_watts", "cpu_tdp_watts must be >= 0")
	}
	return nil
}
