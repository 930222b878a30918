package zonefiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/nsdctl/internal/nsd/common/clock"
	"github.com/haukened/nsdctl/internal/nsd/common/log"
)

const (
	errDirRequired      = "zone directory is required"
	errRegistryRequired = "registry path is required"

	// bloomMinCapacity keeps the prefilter usefully sized for small or
	// empty registries that will grow after startup.
	bloomMinCapacity = 1024
	bloomFPRate      = 0.01
)

var bucketZones = []byte("zones")

// Record is the registry entry persisted per provisioned zone.
type Record struct {
	Name    string    `json:"name"`
	Pattern string    `json:"pattern,omitempty"`
	Path    string    `json:"path"`
	Added   time.Time `json:"added"`
}

// Store writes zone files under a root directory and tracks provisioned
// zones in a bbolt registry. A Bloom filter seeded from the registry at
// open time answers most negative lookups without touching the database.
type Store struct {
	dir     string
	pattern Pattern
	db      *bbolt.DB
	logger  log.Logger
	clock   clock.Clock

	mu     sync.RWMutex
	filter *bitsbloom.BloomFilter
}

// Options configures a zone file store.
type Options struct {
	// Dir is the root directory zone files are written under.
	Dir string
	// FilePattern derives each zone's path relative to Dir.
	FilePattern string
	// RegistryPath is the bbolt database file tracking provisioned zones.
	RegistryPath string
	Logger       log.Logger
	Clock        clock.Clock
}

// New opens (or creates) the registry database, ensures the zones bucket
// exists, and seeds the Bloom prefilter from the registered zone names.
func New(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New(errDirRequired)
	}
	if opts.RegistryPath == "" {
		return nil, errors.New(errRegistryRequired)
	}
	pattern, err := ParsePattern(opts.FilePattern)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	db, err := bbolt.Open(opts.RegistryPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening zone registry: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketZones)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing zone registry: %w", err)
	}

	s := &Store{
		dir:     opts.Dir,
		pattern: pattern,
		db:      db,
		logger:  logger,
		clock:   clk,
	}
	if err := s.seedFilter(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// seedFilter sizes a fresh Bloom filter from the current registry and adds
// every registered zone name to it.
func (s *Store) seedFilter() error {
	var names [][]byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketZones)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			kk := make([]byte, len(k))
			copy(kk, k)
			names = append(names, kk)
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("seeding zone prefilter: %w", err)
	}

	capacity := uint(len(names))
	if capacity < bloomMinCapacity {
		capacity = bloomMinCapacity
	}
	filter := bitsbloom.NewWithEstimates(capacity, bloomFPRate)
	for _, n := range names {
		filter.Add(n)
	}

	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()

	s.logger.Debug(map[string]any{
		"zones":    len(names),
		"capacity": capacity,
	}, "zone registry prefilter seeded")
	return nil
}

// Path returns the absolute path a zone's file maps to under this store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, s.pattern.Expand(name))
}

// Write renders the zone's path, creates any missing parent directories,
// and writes the zone data. It returns the path written.
func (s *Store) Write(name, data string) (string, error) {
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("creating zone directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o640); err != nil {
		return "", fmt.Errorf("writing zone file: %w", err)
	}
	s.logger.Info(map[string]any{
		"zone": name,
		"path": path,
	}, "zone file written")
	return path, nil
}

// Remove deletes the zone's file. A file that is already gone is not an
// error, so removal stays idempotent.
func (s *Store) Remove(name string) error {
	path := s.Path(name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing zone file: %w", err)
	}
	return nil
}

// Register records a provisioned zone in the registry and the prefilter.
func (s *Store) Register(name, pattern string) error {
	rec := Record{
		Name:    name,
		Pattern: pattern,
		Path:    s.Path(name),
		Added:   s.clock.Now().UTC(),
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding zone record: %w", err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketZones).Put([]byte(name), buf)
	})
	if err != nil {
		return fmt.Errorf("registering zone: %w", err)
	}

	s.mu.Lock()
	s.filter.Add([]byte(name))
	s.mu.Unlock()
	return nil
}

// Deregister removes the zone's registry entry. The Bloom filter cannot
// forget, so a deleted zone may still reach the database until the filter
// is reseeded on the next open; the lookup then reports a clean miss.
func (s *Store) Deregister(name string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketZones).Delete([]byte(name))
	})
	if err != nil {
		return fmt.Errorf("deregistering zone: %w", err)
	}
	return nil
}

// Lookup reports whether a zone is registered and returns its record.
// The prefilter short-circuits definite misses.
func (s *Store) Lookup(name string) (Record, bool, error) {
	s.mu.RLock()
	maybe := s.filter.Test([]byte(name))
	s.mu.RUnlock()
	if !maybe {
		return Record{}, false, nil
	}

	var rec Record
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketZones).Get([]byte(name))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("looking up zone: %w", err)
	}
	return rec, found, nil
}

// List returns every registered zone record in key order.
func (s *Store) List() ([]Record, error) {
	var out []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketZones).ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing zones: %w", err)
	}
	return out, nil
}

// Close closes the registry database.
func (s *Store) Close() error {
	return s.db.Close()
}
