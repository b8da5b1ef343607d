package main

import (
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/cuemby/vsim/pkg/api"
	"github.com/cuemby/vsim/pkg/config"
	"github.com/cuemby/vsim/pkg/log"
	"github.com/cuemby/vsim/pkg/monitor"
	"github.com/cuemby/vsim/pkg/sim"
	"github.com/cuemby/vsim/pkg/storage"
)

// combineSink fans one Sample out to every non-nil sink in order, the
// simplest way to honor a monitor's `sinks: [log, snapshot, stream]` list
// without pkg/monitor knowing pkg/storage or pkg/api exist.
func combineSink(sinks ...monitor.Sink) monitor.Sink {
	return func(s monitor.Sample) {
		for _, sink := range sinks {
			if sink != nil {
				sink(s)
			}
		}
	}
}

// resolveSink builds the combined Sink a MonitorSpec's `sinks` names ask
// for. store/hub may be nil when `vsim run` was invoked without
// --snapshot-db/--listen; a "snapshot" or "stream" entry in that case is
// silently dropped rather than failing the run, since the scenario author
// may reuse the same file against both `vsim run` and `vsim serve`.
func resolveSink(names []string, store *storage.Store, hub *api.Hub) monitor.Sink {
	var sinks []monitor.Sink
	for _, name := range names {
		switch name {
		case "log":
			sinks = append(sinks, monitor.LoggingSink())
		case "snapshot":
			if store != nil {
				sinks = append(sinks, store.Sink(func(err error) {
					log.Errorf("persist monitor sample failed", err)
				}))
			}
		case "stream":
			if hub != nil {
				sinks = append(sinks, hub.Sink())
			}
		}
	}
	return combineSink(sinks...)
}

// startAll starts every scheduler and monitor built from a scenario at
// the simulation's t=0 epoch, wiring each MonitorSpec's sinks against the
// optional snapshot store / websocket hub.
func startAll(s *sim.Simulation, built *config.Built, store *storage.Store, hub *api.Hub) {
	built.ContainerScheduler.Start(0)
	built.VolumeScheduler.Start(0)
	built.APICallInitiator.Start(0)
	for _, spec := range built.Monitors {
		monitor.New(s, spec.Label, spec.SamplePeriod, spec.Observer, resolveSink(spec.Sinks, store, hub)).Start(0)
	}
}

// ociContainer is the narrow surface cmd/vsim needs to answer
// `/api/v1/containers/{label}/limits`: every *software.Container
// satisfies it.
type ociContainer interface {
	Label() string
	OCIResources() *specs.LinuxResources
}

// containerLimitsFunc closes over a running Simulation's container
// registry so pkg/api can resolve a label without importing pkg/sim or
// pkg/software itself.
func containerLimitsFunc(s *sim.Simulation) api.ContainerLimitsFunc {
	return func(label string) (*specs.LinuxResources, bool) {
		for _, c := range s.Containers.All() {
			if oc, ok := c.(ociContainer); ok && oc.Label() == label {
				return oc.OCIResources(), true
			}
		}
		return nil, false
	}
}
