/*
Package config decodes a YAML scenario file into a running simulation
(SPEC_FULL.md §6): hardware topology, workload, scheduler policies, and
monitors, matching the constructor knobs spec.md §6 enumerates verbatim.

# Pipeline

	data, _ := os.ReadFile("scenario.yaml")
	scn, err := config.Parse(data)   // decode + Validate
	s := sim.New(sim.Config{Resolution: scn.Resolution})
	built, err := config.Build(s, scn)
	built.ContainerScheduler.Start(0)
	built.VolumeScheduler.Start(0)
	built.APICallInitiator.Start(0)
	for _, m := range built.Monitors {
	    monitor.New(s, m.Label, m.SamplePeriod, m.Observer, sink).Start(0)
	}
	s.Simulate(until)

# Error handling

Validate and Build return *Error, a locator-carrying configuration error
(file/path), never a panic — matching SPEC_FULL.md §7's rule that
configuration errors surface to the caller at construction, while only
state violations abort the simulation (pkg/sim.Simulate's recover
boundary).

# See Also

  - spec.md §6 / SPEC_FULL.md §6: the knob enumeration this package mirrors
  - pkg/hardware, pkg/software: the constructors Build calls
  - pkg/monitor: the Observer/Sample contract MonitorSpec resolves into
*/
package config
