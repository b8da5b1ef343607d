package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/vsim/pkg/api"
	"github.com/cuemby/vsim/pkg/config"
	"github.com/cuemby/vsim/pkg/log"
	"github.com/cuemby/vsim/pkg/sim"
	"github.com/cuemby/vsim/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a scenario while serving a live control plane",
	Long: `Like "run", but never exits on its own: the simulation advances
in the background while /healthz, /metrics, /stream, and the snapshot
REST API stay up until the process receives SIGINT/SIGTERM. A
robfig/cron schedule periodically checkpoints run progress (simulated
time and entity counts) to --snapshot-db, served at /api/v1/checkpoint.
A restart builds the scenario again and simulates from t=0.`,
	RunE: serveScenario,
}

func init() {
	serveCmd.Flags().StringP("file", "f", "", "Scenario YAML file (required)")
	serveCmd.Flags().Int("resolution", 0, "Override the scenario's decimal time resolution")
	serveCmd.Flags().String("listen", ":8090", "Control plane listen address")
	serveCmd.Flags().String("snapshot-db", "./vsim.db", "bbolt file for telemetry and checkpoints")
	serveCmd.Flags().String("checkpoint-schedule", "@every 30s", "robfig/cron schedule for durable checkpoints")
	serveCmd.MarkFlagRequired("file")
}

func serveScenario(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	resolution, _ := cmd.Flags().GetInt("resolution")
	listen, _ := cmd.Flags().GetString("listen")
	snapshotDB, _ := cmd.Flags().GetString("snapshot-db")
	checkpointSchedule, _ := cmd.Flags().GetString("checkpoint-schedule")

	scn, err := config.Load(file)
	if err != nil {
		return err
	}
	if resolution > 0 {
		scn.Resolution = resolution
	}

	s := sim.New(sim.Config{Resolution: scn.Resolution})
	log.Info(fmt.Sprintf("serving run %s (resolution=%d)", s.RunID, scn.Resolution))

	built, err := config.Build(s, scn)
	if err != nil {
		return err
	}

	store, err := storage.Open("", snapshotDB)
	if err != nil {
		return err
	}
	defer store.Close()

	hub := api.NewHub("*")
	server := api.NewServer(listen, store, hub, containerLimitsFunc(s))

	checkpointer, err := storage.NewCheckpointer(store, checkpointSchedule, func() storage.Checkpoint {
		return storage.Checkpoint{
			WallClock:  time.Now().UTC(),
			SimTime:    s.Now(),
			Hosts:      s.Hosts.Len(),
			Containers: s.Containers.Len(),
			Volumes:    s.Volumes.Len(),
			Services:   s.Microservices.Len(),
			APICalls:   s.APICalls.Len(),
		}
	})
	if err != nil {
		return err
	}
	checkpointer.Start()
	defer checkpointer.Stop()

	startAll(s, built, store, hub)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()
	log.Info("serving control plane on " + listen)

	// The clock itself runs synchronously, so advance it on its own
	// goroutine and let the signal/error select below decide when to
	// stop accepting requests.
	simDone := make(chan error, 1)
	go func() { simDone <- s.Simulate(math.Inf(1)) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("received shutdown signal")
	case err := <-simDone:
		if err != nil {
			log.Errorf("simulation stopped", err)
		}
	case err := <-errCh:
		log.Errorf("control plane server stopped", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
