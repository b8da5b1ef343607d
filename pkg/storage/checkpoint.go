package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/vsim/pkg/log"
)

// Checkpoint is a point-in-time summary of the running simulation
// (simulated time and entity counts). It stays readable after the
// process exits; it holds no state a simulation could resume from.
type Checkpoint struct {
	WallClock  time.Time `json:"wall_clock"`
	SimTime    float64   `json:"sim_time"`
	Hosts      int       `json:"hosts"`
	Containers int       `json:"containers"`
	Volumes    int       `json:"volumes"`
	Services   int       `json:"microservices"`
	APICalls   int       `json:"api_calls"`
}

// CheckpointFunc produces the current Checkpoint; the caller supplies
// it so storage stays ignorant of pkg/sim's registries.
type CheckpointFunc func() Checkpoint

// Checkpointer periodically persists a Checkpoint on a cron schedule
// (robfig/cron/v3), mirroring the teacher's use of the same library for
// background reconciliation loops.
type Checkpointer struct {
	store *Store
	fn    CheckpointFunc
	cron  *cron.Cron
}

// NewCheckpointer schedules fn to run and persist on the given cron
// spec (standard 5-field syntax, e.g. "@every 30s").
func NewCheckpointer(store *Store, schedule string, fn CheckpointFunc) (*Checkpointer, error) {
	c := &Checkpointer{store: store, fn: fn, cron: cron.New()}
	_, err := c.cron.AddFunc(schedule, c.runOnce)
	if err != nil {
		return nil, fmt.Errorf("schedule checkpoint %q: %w", schedule, err)
	}
	return c, nil
}

func (c *Checkpointer) runOnce() {
	cp := c.fn()
	if err := c.store.PutCheckpoint(cp); err != nil {
		log.Errorf("persist checkpoint failed", err)
	}
}

// Start begins the cron scheduler in the background.
func (c *Checkpointer) Start() { c.cron.Start() }

// Stop halts the scheduler and waits for any in-flight checkpoint to
// finish.
func (c *Checkpointer) Stop() { <-c.cron.Stop().Done() }

// PutCheckpoint persists cp keyed by wall-clock time, so the most
// recent checkpoint is always the bucket's last key.
func (s *Store) PutCheckpoint(cp Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCheckpoints)
		return b.Put(timeKeyFromWall(cp.WallClock), data)
	})
}

// LatestCheckpoint returns the most recently persisted Checkpoint, or
// ok=false if none has been written yet.
func (s *Store) LatestCheckpoint() (cp Checkpoint, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCheckpoints)
		k, v := b.Cursor().Last()
		if k == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(v, &cp)
	})
	return cp, ok, err
}

func timeKeyFromWall(t time.Time) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(t.UnixNano()))
	return buf[:]
}
