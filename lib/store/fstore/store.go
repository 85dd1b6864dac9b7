package fstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvmarket/lib/db"
	"github.com/ValentinKolb/kvmarket/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

const (
	// MetricSnapshot is the name of the timer tracking snapshot writes
	MetricSnapshot = "fstore.snapshot"
	// MetricSnapshotBytes is the name of the histogram tracking snapshot sizes
	MetricSnapshotBytes = "fstore.snapshot.bytes"
)

var log = logger.GetLogger("fstore")

// Options configures a file store
type Options struct {
	// Path of the snapshot file. The directory is created if missing.
	Path string
	// Registry receives the snapshot metrics (nil = go-metrics default registry)
	Registry gometrics.Registry
}

type storeImpl struct {
	db    db.KVDB
	path  string
	index atomic.Uint64

	// mu serializes writes so the snapshot on disk always reflects a prefix of the write sequence
	mu sync.Mutex

	snapshotTimer gometrics.Timer
	snapshotBytes gometrics.Histogram
}

// NewFileStore opens (or creates) a durable store backed by a snapshot file.
// The database created by the factory must support Save and Load.
func NewFileStore(factory store.DBFactory, opts Options) (store.IStore, error) {
	if opts.Path == "" {
		return nil, store.NewError(store.RetCInvalidOperation, "file store requires a path")
	}
	if opts.Registry == nil {
		opts.Registry = gometrics.DefaultRegistry
	}

	database := factory()
	if !database.SupportsFeature(db.FeatureSave | db.FeatureLoad) {
		return nil, store.NewError(store.RetCUnsupportedOperation, "file store requires a database with Save and Load support")
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, store.NewError(store.RetCPersistenceError, err.Error())
	}

	s := &storeImpl{
		db:            database,
		path:          opts.Path,
		snapshotTimer: gometrics.GetOrRegisterTimer(MetricSnapshot, opts.Registry),
		snapshotBytes: gometrics.GetOrRegisterHistogram(MetricSnapshotBytes, opts.Registry, gometrics.NewUniformSample(1028)),
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	s.index.Store(database.WriteIdx())

	return s, nil
}

// load restores the snapshot file if it exists
func (s *storeImpl) load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugf("no snapshot at %s, starting empty", s.path)
		return nil
	}
	if err != nil {
		return store.NewError(store.RetCPersistenceError, err.Error())
	}
	defer f.Close()

	if err := s.db.Load(f); err != nil {
		return store.NewError(store.RetCPersistenceError, fmt.Sprintf("loading %s: %v", s.path, err))
	}
	log.Infof("loaded snapshot %s (write index %d)", s.path, s.db.WriteIdx())
	return nil
}

// persist writes the full database to a temp file and renames it over the snapshot.
//
// Thread-safety: must be called with s.mu held.
func (s *storeImpl) persist() error {
	start := time.Now()
	defer s.snapshotTimer.UpdateSince(start)

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return s.persistError(err)
	}
	tmpName := tmp.Name()

	if err := s.db.Save(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return s.persistError(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return s.persistError(err)
	}
	if info, err := tmp.Stat(); err == nil {
		s.snapshotBytes.Update(info.Size())
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return s.persistError(err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return s.persistError(err)
	}

	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		log.Warningf("snapshot of %s took %.2fms", s.path, float64(elapsed)/float64(time.Millisecond))
	}
	return nil
}

func (s *storeImpl) persistError(err error) error {
	log.Errorf("writing snapshot %s failed: %v", s.path, err)
	return store.NewError(store.RetCPersistenceError, err.Error())
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if !s.db.SupportsFeature(db.FeatureSet) {
		return store.NewError(store.RetCUnsupportedOperation, "Set operation is not supported")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.db.Set(key, value, s.index.Add(1))
	return s.persist()
}

func (s *storeImpl) SetIfUnset(key string, value []byte) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureSetIfUnset) {
		return false, store.NewError(store.RetCUnsupportedOperation, "SetIfUnset operation is not supported")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.db.SetIfUnset(key, value, s.index.Add(1)) {
		return false, nil
	}
	return true, s.persist()
}

func (s *storeImpl) Delete(key string) error {
	if !s.db.SupportsFeature(db.FeatureDelete) {
		return store.NewError(store.RetCUnsupportedOperation, "Delete operation is not supported")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.db.Has(key) {
		return nil
	}
	s.db.Delete(key, s.index.Add(1))
	return s.persist()
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return nil, false, store.NewError(store.RetCUnsupportedOperation, "Get operation is not supported")
	}
	val, ok := s.db.Get(key)
	return val, ok, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureHas) {
		return false, store.NewError(store.RetCUnsupportedOperation, "Has operation is not supported")
	}
	return s.db.Has(key), nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}

func (s *storeImpl) Close() error {
	return s.db.Close()
}
