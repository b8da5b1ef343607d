package monitor

// MicroserviceTarget is the sampling-facing surface of a microservice
// autoscaling group, implemented by *software.Microservice.
type MicroserviceTarget interface {
	Label() string
	CPUUtilization() float64
	RAMUtilization() float64
	NumActiveContainers() int
}

// MicroserviceObserver samples CPU/RAM utilization and active instance
// count for a fixed set of microservices, grounded on
// original_source/PyCloudSim/monitor/microservice_monitor.py.
type MicroserviceObserver struct {
	Microservices []MicroserviceTarget
}

// NewMicroserviceObserver builds an observer over microservices.
func NewMicroserviceObserver(microservices []MicroserviceTarget) *MicroserviceObserver {
	return &MicroserviceObserver{Microservices: microservices}
}

// Observe implements Observer.
func (o *MicroserviceObserver) Observe(now, samplePeriod float64) []Sample {
	samples := make([]Sample, 0, len(o.Microservices))
	for _, m := range o.Microservices {
		samples = append(samples, Sample{
			At:    now,
			Kind:  "microservice",
			Label: m.Label(),
			Fields: map[string]float64{
				"cpu_utilization": m.CPUUtilization(),
				"ram_utilization": m.RAMUtilization(),
				"num_containers":  float64(m.NumActiveContainers()),
			},
		})
	}
	return samples
}
