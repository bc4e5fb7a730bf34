package kvsource

import (
	"context"
	"strconv"
	"time"

	"github.com/boltdb/bolt"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
	"github.com/kbukum/seqkit/observability"
	"github.com/kbukum/seqkit/validation"
)

// Options configures Open.
type Options struct {
	// Timeout bounds the wait for the file lock. 0 waits forever.
	Timeout time.Duration `mapstructure:"timeout"`
	// ReadOnly opens the file with a shared lock.
	ReadOnly bool `mapstructure:"read_only"`
	// Metrics, if set, receives one operation per Load.
	Metrics *observability.Metrics `mapstructure:"-"`
}

// Store is an open bolt database.
type Store struct {
	db      *bolt.DB
	path    string
	metrics *observability.Metrics
	log     *logger.Logger
}

// Open opens or creates the database at path.
func Open(path string, opts Options) (*Store, error) {
	if v := validation.New().Required("path", path); v.HasErrors() {
		return nil, v.Validate()
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: opts.Timeout, ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, errors.SourceFailed("bolt:"+path, err)
	}
	s := &Store{db: db, path: path, metrics: opts.Metrics, log: logger.Get("kvsource")}
	s.log.Debug("store opened", logger.Fields("path", path, "read_only", opts.ReadOnly))
	return s, nil
}

// Close closes the database. Open enumerations must be disposed first.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// DB returns the underlying bolt handle.
func (s *Store) DB() *bolt.DB { return s.db }

// Buckets returns the names of the top-level buckets.
func (s *Store) Buckets() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

// CheckHealth reports the store as up if a read transaction can be opened.
func (s *Store) CheckHealth(ctx context.Context) observability.Health {
	err := ctx.Err()
	if err == nil {
		err = s.db.View(func(*bolt.Tx) error { return nil })
	}
	h := observability.Healthy("kvsource", err)
	if err != nil {
		return h
	}
	stats := s.db.Stats()
	h.Details = map[string]string{
		"path":         s.path,
		"open_read_tx": strconv.Itoa(stats.OpenTxN),
		"read_tx":      strconv.Itoa(stats.TxN),
	}
	return h
}
