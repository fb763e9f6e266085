// Package lmdiskann provides a disk-resident approximate nearest
// neighbor vector index based on the LM-DiskANN design: memory-mapped
// adjacency and vector tables, online insert/delete, and top-k
// similarity search under a configurable metric.
package lmdiskann

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/xDarkicex/lmdiskann/internal/obs"
)

// Database owns a set of named collections rooted under a shared storage
// path. Each collection is an independent on-disk index; the Database
// itself holds no index state of its own.
type Database struct {
	mu          sync.RWMutex
	collections map[string]*Collection
	metrics     *obs.Metrics
	health      *obs.HealthChecker
	config      *Config
	closed      bool
}

// Config holds database-wide configuration.
type Config struct {
	StoragePath    string
	MetricsEnabled bool
	MaxCollections int
}

// New creates a Database instance with the given options.
func New(opts ...Option) (*Database, error) {
	config := &Config{
		StoragePath:    "./data",
		MetricsEnabled: true,
		MaxCollections: 100,
	}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := os.MkdirAll(config.StoragePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage path: %w", err)
	}

	var metrics *obs.Metrics
	if config.MetricsEnabled {
		metrics = obs.NewMetrics()
	}

	db := &Database{
		collections: make(map[string]*Collection),
		metrics:     metrics,
		config:      config,
	}
	return db, nil
}

// CreateCollection creates a brand new collection with the given name
// and options. It is an error to create a collection whose on-disk
// metadata file already exists under this Database's storage path.
func (db *Database) CreateCollection(ctx context.Context, name string, opts ...CollectionOption) (*Collection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil, ErrDatabaseClosed
	}
	if _, exists := db.collections[name]; exists {
		return nil, ErrCollectionExists
	}
	if len(db.collections) >= db.config.MaxCollections {
		return nil, ErrTooManyCollections
	}

	collection, err := newCollection(db.config.StoragePath, name, db.metrics, true, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	db.collections[name] = collection
	if db.health == nil {
		db.health = obs.NewHealthChecker(collection)
	}
	return collection, nil
}

// OpenCollection resumes a previously created collection. Reopening
// preserves all previously issued external IDs.
func (db *Database) OpenCollection(ctx context.Context, name string, opts ...CollectionOption) (*Collection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil, ErrDatabaseClosed
	}
	if collection, exists := db.collections[name]; exists {
		return collection, nil
	}

	collection, err := newCollection(db.config.StoragePath, name, db.metrics, false, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}

	db.collections[name] = collection
	return collection, nil
}

// GetCollection retrieves an already-open collection by name.
func (db *Database) GetCollection(name string) (*Collection, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, ErrDatabaseClosed
	}
	collection, exists := db.collections[name]
	if !exists {
		return nil, ErrCollectionNotFound
	}
	return collection, nil
}

// ListCollections returns the names of all open collections.
func (db *Database) ListCollections() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	names := make([]string, 0, len(db.collections))
	for name := range db.collections {
		names = append(names, name)
	}
	return names
}

// Health returns the current health status, derived from the first
// collection created through CreateCollection (there is no database-wide
// invariant beyond the sum of its collections' own). Collections resumed
// with OpenCollection are not checked; with no created collection the
// status is "healthy" with no checks.
func (db *Database) Health(ctx context.Context) (*obs.HealthStatus, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.health == nil {
		return &obs.HealthStatus{Status: "healthy", Checks: map[string]*obs.CheckResult{}}, nil
	}
	return db.health.Check(ctx)
}

// Stats returns statistics for every open collection.
func (db *Database) Stats() *DatabaseStats {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stats := &DatabaseStats{
		CollectionCount: len(db.collections),
		Collections:     make(map[string]*CollectionStats, len(db.collections)),
	}
	for name, collection := range db.collections {
		stats.Collections[name] = collection.Stats()
	}
	return stats
}

// Close shuts down every open collection.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil
	}

	var errs []error
	for _, collection := range db.collections {
		if err := collection.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	db.closed = true

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
