package monitor

// ContainerTarget is the sampling-facing surface of a software
// container, implemented by *software.Container.
type ContainerTarget interface {
	Label() string
	Initiated() bool
	CPUUsage() float64
	CPULimit() float64
	RAMUsage() float64
	RAMLimit() float64
	NumProcesses() int
}

// ContainerObserver samples CPU/RAM usage and process count for a fixed
// set of containers, grounded on
// original_source/PyCloudSim/monitor/container_monitor.py.
type ContainerObserver struct {
	Containers []ContainerTarget
}

// NewContainerObserver builds an observer over containers.
func NewContainerObserver(containers []ContainerTarget) *ContainerObserver {
	return &ContainerObserver{Containers: containers}
}

// Observe implements Observer.
func (o *ContainerObserver) Observe(now, samplePeriod float64) []Sample {
	samples := make([]Sample, 0, len(o.Containers))
	for _, c := range o.Containers {
		if !c.Initiated() {
			continue
		}
		samples = append(samples, Sample{
			At:    now,
			Kind:  "container",
			Label: c.Label(),
			Fields: map[string]float64{
				"cpu_usage_percent": c.CPUUsage() / c.CPULimit() * 100,
				"ram_usage_percent": c.RAMUsage() / c.RAMLimit() * 100,
				"num_of_process":    float64(c.NumProcesses()),
			},
		})
	}
	return samples
}
