package lmdiskann

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/xDarkicex/lmdiskann/internal/diskann"
	"github.com/xDarkicex/lmdiskann/internal/keystore"
	"github.com/xDarkicex/lmdiskann/internal/obs"
)

// Collection is a single named LM-DiskANN index, rooted at its own file
// prefix under the Database's storage path.
type Collection struct {
	mu      sync.RWMutex
	name    string
	config  *CollectionConfig
	index   *diskann.Index
	keys    *keystore.Store
	metrics *obs.Metrics
	closed  bool
}

// CollectionConfig holds collection-specific configuration.
type CollectionConfig struct {
	Dimension      int
	Metric         diskann.Metric
	ElementType    diskann.ElementType
	MaxDegree      int
	EfConstruction int
	EfSearch       int
	UseKeyStore    bool
}

func defaultCollectionConfig() *CollectionConfig {
	return &CollectionConfig{
		Dimension:      768,
		Metric:         diskann.L2,
		ElementType:    diskann.Float32,
		MaxDegree:      diskann.DefaultMaxDegree,
		EfConstruction: diskann.DefaultEfConstruction,
		EfSearch:       diskann.DefaultEfSearch,
		UseKeyStore:    true,
	}
}

func (c *CollectionConfig) validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", c.Dimension)
	}
	if c.MaxDegree <= 0 {
		return fmt.Errorf("max degree must be positive, got %d", c.MaxDegree)
	}
	if c.EfConstruction <= 0 {
		return fmt.Errorf("ef_construction must be positive, got %d", c.EfConstruction)
	}
	if c.EfSearch <= 0 {
		return fmt.Errorf("ef_search must be positive, got %d", c.EfSearch)
	}
	return nil
}

// collectionPrefix is P in spec §6: the files it names are P.vec, P.adj,
// P.meta, P+"forward_db.leveldb", P+"reverse_db.leveldb" — plain string
// concatenation, exactly as the spec writes it.
func collectionPrefix(storagePath, name string) string {
	return filepath.Join(storagePath, name)
}

func newCollection(storagePath, name string, metrics *obs.Metrics, create bool, opts ...CollectionOption) (*Collection, error) {
	config := defaultCollectionConfig()
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply collection option: %w", err)
		}
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid collection config: %w", err)
	}

	prefix := collectionPrefix(storagePath, name)

	var ks *keystore.Store
	if config.UseKeyStore {
		var err error
		ks, err = keystore.Open(prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to open key store: %w", err)
		}
	}

	idxCfg := diskann.Config{
		Dim:            config.Dimension,
		ElementType:    config.ElementType,
		MaxDegree:      config.MaxDegree,
		Metric:         config.Metric,
		EfSearch:       config.EfSearch,
		EfConstruction: config.EfConstruction,
	}
	if ks != nil {
		idxCfg.KeyStore = ks
	}
	if metrics != nil {
		idxCfg.OnGrow = metrics.StorageGrowth.Inc
	}

	var idx *diskann.Index
	var err error
	if create {
		idx, err = diskann.Create(prefix, idxCfg)
	} else {
		idx, err = diskann.Open(prefix, idxCfg)
	}
	if err != nil {
		if ks != nil {
			ks.Close()
		}
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	return &Collection{
		name:    name,
		config:  config,
		index:   idx,
		keys:    ks,
		metrics: metrics,
	}, nil
}

// Insert adds vec to the collection, optionally addressable by key, and
// returns the effective key and external ID.
func (c *Collection) Insert(vec []float64, key string) (string, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", 0, ErrCollectionClosed
	}

	start := time.Now()
	effectiveKey, ext, err := c.index.Insert(vec, key)
	if c.metrics != nil {
		c.metrics.InsertLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return "", 0, newVectorDBError(classifyErr(err), c.name, "insert failed", err)
	}
	if c.metrics != nil {
		c.metrics.VectorInserts.Inc()
	}
	return effectiveKey, ext, nil
}

// Search performs a top-k nearest neighbor query.
func (c *Collection) Search(vec []float64, topk int) (*SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrCollectionClosed
	}

	start := time.Now()
	hits, err := c.index.Search(vec, topk)
	elapsed := time.Since(start)
	if c.metrics != nil {
		c.metrics.SearchLatency.Observe(elapsed.Seconds())
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.SearchErrors.Inc()
		}
		return nil, newVectorDBError(classifyErr(err), c.name, "search failed", err)
	}
	if c.metrics != nil {
		c.metrics.SearchQueries.Inc()
	}

	out := make([]SearchHit, len(hits))
	for i, h := range hits {
		out[i] = SearchHit{
			Key:        h.Key,
			HasKey:     h.HasKey,
			ExternalID: h.ExternalID,
			Distance:   h.Distance,
		}
	}
	return &SearchResult{Hits: out, Took: elapsed}, nil
}

// DeleteByID tombstones the vector at the given external ID.
func (c *Collection) DeleteByID(ext int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrCollectionClosed
	}
	start := time.Now()
	err := c.index.DeleteByID(ext)
	if c.metrics != nil {
		c.metrics.DeleteLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return newVectorDBError(classifyErr(err), c.name, "delete failed", err)
	}
	if c.metrics != nil {
		c.metrics.VectorDeletes.Inc()
	}
	return nil
}

// DeleteByKey resolves key and tombstones the entry it names. Returns
// false, nil if the key is unknown (spec §4.4.2: silent on unknown key).
func (c *Collection) DeleteByKey(key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrCollectionClosed
	}
	start := time.Now()
	ok, err := c.index.DeleteByKey(key)
	if c.metrics != nil {
		c.metrics.DeleteLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return false, newVectorDBError(classifyErr(err), c.name, "delete by key failed", err)
	}
	if ok && c.metrics != nil {
		c.metrics.VectorDeletes.Inc()
	}
	return ok, nil
}

// GetVectorByID returns a copy of the vector at the given external ID.
func (c *Collection) GetVectorByID(ext int64) ([]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrCollectionClosed
	}
	vec, err := c.index.GetVectorByID(ext)
	if err != nil {
		return nil, newVectorDBError(classifyErr(err), c.name, "get vector failed", err)
	}
	return vec, nil
}

// GetVectorByKey resolves key and returns its vector.
func (c *Collection) GetVectorByKey(key string) ([]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrCollectionClosed
	}
	vec, err := c.index.GetVectorByKey(key)
	if err != nil {
		return nil, newVectorDBError(classifyErr(err), c.name, "get vector by key failed", err)
	}
	return vec, nil
}

// Stats returns the collection's current lifecycle state.
func (c *Collection) Stats() *CollectionStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.index.Stats()
	return &CollectionStats{
		Name:        c.name,
		NumPoints:   s.NumPoints,
		LiveCount:   s.LiveCount,
		FreeListLen: s.FreeListLen,
		Dimension:   s.Dim,
		MaxDegree:   s.MaxDegree,
		Entrypoint:  s.Entrypoint,
	}
}

// NumPoints, LiveCount and HasEntrypoint implement obs.HealthSource.
func (c *Collection) NumPoints() int64    { return c.index.Stats().NumPoints }
func (c *Collection) LiveCount() int64    { return c.index.Stats().LiveCount }
func (c *Collection) HasEntrypoint() bool { return c.index.Stats().Entrypoint != -1 }

// Close shuts down the collection's index and key store.
func (c *Collection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	var errs []error
	if err := c.index.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.keys != nil {
		if err := c.keys.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closed = true

	if len(errs) > 0 {
		return fmt.Errorf("errors during collection shutdown: %v", errs)
	}
	return nil
}

func classifyErr(err error) ErrorCode {
	var de *diskann.Error
	if e, ok := err.(*diskann.Error); ok {
		de = e
	}
	if de == nil {
		return ErrCodeUnknown
	}
	switch de.Kind {
	case diskann.InvalidArgument:
		return ErrCodeInvalidArgument
	case diskann.NotFound:
		return ErrCodeNotFound
	case diskann.IOError:
		return ErrCodeIO
	case diskann.Corrupted:
		return ErrCodeCorrupted
	default:
		return ErrCodeUnknown
	}
}
