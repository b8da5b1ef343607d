package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/cuemby/vsim/pkg/api"
	"github.com/cuemby/vsim/pkg/config"
	"github.com/cuemby/vsim/pkg/log"
	"github.com/cuemby/vsim/pkg/sim"
	"github.com/cuemby/vsim/pkg/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario to completion",
	Long: `Parse a scenario file, build its topology and workload, and
advance the simulation clock to --until (or indefinitely, if every
entity and monitor in the scenario terminates on its own).`,
	RunE: runScenario,
}

func init() {
	runCmd.Flags().StringP("file", "f", "", "Scenario YAML file (required)")
	runCmd.Flags().Float64("until", 0, "Simulate up to this virtual time (0 = run until the event queue drains)")
	runCmd.Flags().Int("resolution", 0, "Override the scenario's decimal time resolution")
	runCmd.Flags().String("listen", "", "Serve /stream and the snapshot REST API on this address while running")
	runCmd.Flags().String("snapshot-db", "", "Persist monitor samples and checkpoints to this bbolt file")
	runCmd.MarkFlagRequired("file")
}

func runScenario(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	until, _ := cmd.Flags().GetFloat64("until")
	resolution, _ := cmd.Flags().GetInt("resolution")
	listen, _ := cmd.Flags().GetString("listen")
	snapshotDB, _ := cmd.Flags().GetString("snapshot-db")

	scn, err := config.Load(file)
	if err != nil {
		return err
	}
	if resolution > 0 {
		scn.Resolution = resolution
	}

	s := sim.New(sim.Config{Resolution: scn.Resolution})
	log.Info(fmt.Sprintf("starting run %s (resolution=%d)", s.RunID, scn.Resolution))

	built, err := config.Build(s, scn)
	if err != nil {
		return err
	}

	var store *storage.Store
	if snapshotDB != "" {
		store, err = storage.Open("", snapshotDB)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var hub *api.Hub
	var server *api.Server
	if listen != "" {
		hub = api.NewHub("*")
		server = api.NewServer(listen, store, hub, containerLimitsFunc(s))
		go func() {
			if err := server.ListenAndServe(); err != nil {
				log.Errorf("control plane server stopped", err)
			}
		}()
		log.Info("serving live telemetry on " + listen)
	}

	startAll(s, built, store, hub)

	horizon := until
	if horizon <= 0 {
		horizon = math.Inf(1)
	}
	if err := s.Simulate(horizon); err != nil {
		return err
	}

	log.Info(fmt.Sprintf("run %s complete at t=%.*f", s.RunID, scn.Resolution, s.Now()))
	return nil
}
