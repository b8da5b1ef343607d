package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/vsim/pkg/monitor"
)

var bucketSamples = []byte("samples")
var bucketCheckpoints = []byte("checkpoints")

// Store is a bbolt-backed append log for monitor.Sample telemetry,
// keyed so that bucket order matches simulated time order.
type Store struct {
	db *bolt.DB
}

// Open creates (or reuses) the snapshot database at dataDir/name. name
// defaults to "vsim.db".
func Open(dataDir, name string) (*Store, error) {
	if name == "" {
		name = "vsim.db"
	}
	db, err := bolt.Open(filepath.Join(dataDir, name), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketSamples, bucketCheckpoints} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error { return s.db.Close() }

// seriesKey scopes every sample's key to its kind+label bucket.
func seriesKey(kind, label string) []byte {
	return []byte(kind + "/" + label)
}

// timeKey encodes `at` so lexicographic byte order matches numeric
// order: At is always non-negative simulated time, and the IEEE-754
// bit pattern of a non-negative float64 sorts the same as the float
// itself when compared as a big-endian unsigned integer.
func timeKey(at float64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(at))
	return buf[:]
}

// AppendSample persists one sample under its kind/label series bucket.
func (s *Store) AppendSample(sample monitor.Sample) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketSamples)
		series, err := root.CreateBucketIfNotExists(seriesKey(sample.Kind, sample.Label))
		if err != nil {
			return err
		}
		data, err := json.Marshal(sample)
		if err != nil {
			return err
		}
		return series.Put(timeKey(sample.At), data)
	})
}

// Sink adapts the store into a monitor.Sink. Write failures are
// returned to the caller rather than panicking: a snapshot-sink outage
// is an I/O failure, not the state violation pkg/sim.Simulate's
// recover boundary exists for.
func (s *Store) Sink(onError func(error)) monitor.Sink {
	return func(sample monitor.Sample) {
		if err := s.AppendSample(sample); err != nil && onError != nil {
			onError(err)
		}
	}
}

// Series returns every sample recorded for kind/label, oldest first.
func (s *Store) Series(kind, label string) ([]monitor.Sample, error) {
	var out []monitor.Sample
	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketSamples)
		series := root.Bucket(seriesKey(kind, label))
		if series == nil {
			return nil
		}
		return series.ForEach(func(_, v []byte) error {
			var sample monitor.Sample
			if err := json.Unmarshal(v, &sample); err != nil {
				return err
			}
			out = append(out, sample)
			return nil
		})
	})
	return out, err
}

// Tail returns the most recent n samples for kind/label, oldest first.
func (s *Store) Tail(kind, label string, n int) ([]monitor.Sample, error) {
	if n <= 0 {
		return nil, nil
	}
	var out []monitor.Sample
	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketSamples)
		series := root.Bucket(seriesKey(kind, label))
		if series == nil {
			return nil
		}
		c := series.Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			var sample monitor.Sample
			if err := json.Unmarshal(v, &sample); err != nil {
				return err
			}
			out = append(out, sample)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
