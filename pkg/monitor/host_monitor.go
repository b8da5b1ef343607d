package monitor

// HostTarget is the sampling-facing surface of a hardware host,
// implemented by *hardware.Host.
type HostTarget interface {
	Label() string
	PoweredOn() bool
	CPUUtilization(now, duration float64) float64
	RAMUtilization(now, duration float64) float64
	ROMUtilization(now, duration float64) float64
	EgressUtilization(now, duration float64) float64
	IngressUtilization(now, duration float64) float64
}

// HostObserver samples CPU/RAM/ROM/bandwidth utilization for a fixed set
// of hosts, grounded on original_source/PyCloudSim/monitor/host_monitor.py.
type HostObserver struct {
	Hosts []HostTarget
}

// NewHostObserver builds an observer over hosts.
func NewHostObserver(hosts []HostTarget) *HostObserver { return &HostObserver{Hosts: hosts} }

// Observe implements Observer.
func (o *HostObserver) Observe(now, samplePeriod float64) []Sample {
	samples := make([]Sample, 0, len(o.Hosts))
	for _, h := range o.Hosts {
		if !h.PoweredOn() {
			continue
		}
		samples = append(samples, Sample{
			At:    now,
			Kind:  "host",
			Label: h.Label(),
			Fields: map[string]float64{
				"cpu_utilization":     h.CPUUtilization(now, samplePeriod),
				"ram_utilization":     h.RAMUtilization(now, samplePeriod),
				"rom_utilization":     h.ROMUtilization(now, samplePeriod),
				"egress_utilization":  h.EgressUtilization(now, samplePeriod),
				"ingress_utilization": h.IngressUtilization(now, samplePeriod),
			},
		})
	}
	return samples
}
