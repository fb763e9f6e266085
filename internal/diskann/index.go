package diskann

import (
	"fmt"
	"os"
	"strconv"
)

// Default tunables, chosen as representative mid-range values for a
// single-machine disk-resident index.
const (
	DefaultMaxDegree      = 64
	DefaultEfSearch       = 200
	DefaultEfConstruction = 300
)

// KeyStore is the external collaborator maintaining a bidirectional
// mapping between caller-supplied string keys and external IDs. The
// engine always updates both directions together; keeping them in
// lockstep internally is the KeyStore implementation's responsibility.
type KeyStore interface {
	// Put records that externalID is addressable by key, replacing any
	// prior key for that ID and any prior ID for that key.
	Put(key string, externalID int64) error
	// LookupID returns the external ID registered for key.
	LookupID(key string) (externalID int64, ok bool, err error)
	// LookupKey returns the key registered for externalID, if any.
	LookupKey(externalID int64) (key string, ok bool, err error)
	// Delete removes externalID's entry in both directions.
	Delete(externalID int64) error
	Close() error
}

// Config pins the parameters of an index for its entire lifetime. Dim,
// max_degree and element type are persisted in the metadata file; Open
// validates a caller-supplied dim/max_degree against what's on disk and
// always takes element type from the metadata. Metric is written to the
// metadata file but Open does not read it back: it uses the caller's
// Metric, which is the caller's responsibility to supply consistently
// across opens.
type Config struct {
	Dim            int
	ElementType    ElementType
	MaxDegree      int
	Metric         Metric
	EfSearch       int
	EfConstruction int
	// KeyStore is optional; a nil KeyStore disables key tracking. Insert
	// still reports the supplied key (or the stringified external ID when
	// key is empty), but nothing records it.
	KeyStore KeyStore
	// OnGrow, if set, is invoked after every successful mmap capacity
	// extension of the vector/adjacency files (used by the façade layer
	// to drive a metrics counter).
	OnGrow func()
}

func (c *Config) setDefaults() {
	if c.MaxDegree <= 0 {
		c.MaxDegree = DefaultMaxDegree
	}
	if c.EfSearch <= 0 {
		c.EfSearch = DefaultEfSearch
	}
	if c.EfConstruction <= 0 {
		c.EfConstruction = DefaultEfConstruction
	}
}

// Index is a single open handle over the three on-disk files rooted at a
// shared prefix. It is not safe for concurrent use; callers needing
// concurrent access must serialize it themselves.
type Index struct {
	prefix string
	cfg    Config
	dist   distanceFunc

	store   *storage
	meta    *metadata
	freeSet map[int32]bool
}

func filePaths(prefix string) (vec, adj, meta string) {
	return prefix + ".vec", prefix + ".adj", prefix + ".meta"
}

// Create initializes a brand new empty index at prefix. It is an error
// to call Create against an existing metadata file.
func Create(prefix string, cfg Config) (*Index, error) {
	if cfg.Dim <= 0 {
		return nil, newError(InvalidArgument, "create", fmt.Errorf("dim must be positive, got %d", cfg.Dim))
	}
	if !cfg.ElementType.valid() {
		return nil, newError(InvalidArgument, "create", fmt.Errorf("invalid element type %d", cfg.ElementType))
	}
	cfg.setDefaults()

	vecPath, adjPath, metaPath := filePaths(prefix)
	if _, err := os.Stat(metaPath); err == nil {
		return nil, newError(InvalidArgument, "create", fmt.Errorf("metadata file %q already exists", metaPath))
	}

	st, err := openStorage(vecPath, adjPath, cfg.Dim, cfg.MaxDegree, cfg.ElementType, 1)
	if err != nil {
		return nil, newError(IOError, "create", err)
	}
	st.onGrow = cfg.OnGrow

	m := &metadata{
		numPoints:  0,
		dim:        int32(cfg.Dim),
		maxDegree:  int32(cfg.MaxDegree),
		elemType:   cfg.ElementType,
		metric:     cfg.Metric,
		entrypoint: -1,
		freeList:   nil,
	}
	if err := m.commit(metaPath); err != nil {
		st.Close()
		return nil, newError(IOError, "create", err)
	}

	dist, err := getDistanceFunc(cfg.Metric)
	if err != nil {
		st.Close()
		return nil, newError(InvalidArgument, "create", err)
	}

	return &Index{
		prefix:  prefix,
		cfg:     cfg,
		dist:    dist,
		store:   st,
		meta:    m,
		freeSet: map[int32]bool{},
	}, nil
}

// Open resumes an index previously created at prefix. A caller-supplied
// dim or max_degree that disagrees with what's on disk is rejected
// outright rather than silently migrated.
func Open(prefix string, cfg Config) (*Index, error) {
	vecPath, adjPath, metaPath := filePaths(prefix)

	if _, err := os.Stat(vecPath); err != nil {
		return nil, newError(IOError, "open", fmt.Errorf("missing vector file: %w", err))
	}
	if _, err := os.Stat(adjPath); err != nil {
		return nil, newError(IOError, "open", fmt.Errorf("missing adjacency file: %w", err))
	}

	m, err := loadMetadata(metaPath)
	if err != nil {
		return nil, newError(Corrupted, "open", err)
	}

	if cfg.Dim > 0 && int32(cfg.Dim) != m.dim {
		return nil, newError(InvalidArgument, "open", fmt.Errorf("dim mismatch: index has %d, caller supplied %d", m.dim, cfg.Dim))
	}
	if cfg.MaxDegree > 0 && int32(cfg.MaxDegree) != m.maxDegree {
		return nil, newError(InvalidArgument, "open", fmt.Errorf("max_degree mismatch: index has %d, caller supplied %d", m.maxDegree, cfg.MaxDegree))
	}
	cfg.Dim = int(m.dim)
	cfg.MaxDegree = int(m.maxDegree)
	cfg.ElementType = m.elemType
	cfg.setDefaults()

	st, err := openStorage(vecPath, adjPath, cfg.Dim, cfg.MaxDegree, cfg.ElementType, int(m.numPoints))
	if err != nil {
		return nil, newError(IOError, "open", err)
	}
	st.onGrow = cfg.OnGrow

	dist, err := getDistanceFunc(cfg.Metric)
	if err != nil {
		st.Close()
		return nil, newError(InvalidArgument, "open", err)
	}

	freeSet := make(map[int32]bool, len(m.freeList))
	for _, id := range m.freeList {
		freeSet[id] = true
	}

	return &Index{
		prefix:  prefix,
		cfg:     cfg,
		dist:    dist,
		store:   st,
		meta:    m,
		freeSet: freeSet,
	}, nil
}

// Close releases the mapped files. The KeyStore, if any, is owned by the
// caller and is not closed here.
func (ix *Index) Close() error {
	return ix.store.Close()
}

func (ix *Index) metaPath() string { _, _, m := filePaths(ix.prefix); return m }

func (ix *Index) isLive(id int32) bool {
	return id >= 0 && id < int32(ix.meta.numPoints) && !ix.freeSet[id]
}

// allocateSlot returns the internal ID for a new node: a reused
// tombstoned slot if the free list is nonempty, else the next dense ID.
func (ix *Index) allocateSlot() int32 {
	if n := len(ix.meta.freeList); n > 0 {
		id := ix.meta.freeList[n-1]
		ix.meta.freeList = ix.meta.freeList[:n-1]
		delete(ix.freeSet, id)
		return id
	}
	id := ix.meta.numPoints
	ix.meta.numPoints++
	return id
}

func externalID(internal int32) int64 { return int64(internal) + 1 }
func internalID(external int64) int32 { return int32(external - 1) }

func defaultKey(external int64) string { return strconv.FormatInt(external, 10) }
