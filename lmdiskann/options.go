package lmdiskann

import (
	"fmt"

	"github.com/xDarkicex/lmdiskann/internal/diskann"
)

// Option configures a Database.
type Option func(*Config) error

// WithStoragePath sets the directory collections are rooted under.
func WithStoragePath(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return fmt.Errorf("storage path cannot be empty")
		}
		c.StoragePath = path
		return nil
	}
}

// WithMetrics enables or disables Prometheus metrics collection.
func WithMetrics(enabled bool) Option {
	return func(c *Config) error {
		c.MetricsEnabled = enabled
		return nil
	}
}

// WithMaxCollections sets the maximum number of collections a Database
// will hold open at once.
func WithMaxCollections(max int) Option {
	return func(c *Config) error {
		if max <= 0 {
			return fmt.Errorf("max collections must be positive")
		}
		c.MaxCollections = max
		return nil
	}
}

// CollectionOption configures a CollectionConfig.
type CollectionOption func(*CollectionConfig) error

// WithDimension sets the vector dimension for the collection.
func WithDimension(dim int) CollectionOption {
	return func(c *CollectionConfig) error {
		if dim <= 0 {
			return fmt.Errorf("dimension must be positive")
		}
		c.Dimension = dim
		return nil
	}
}

// WithMetric sets the distance metric for the collection.
func WithMetric(metric diskann.Metric) CollectionOption {
	return func(c *CollectionConfig) error {
		c.Metric = metric
		return nil
	}
}

// WithElementType sets the on-disk scalar width for vectors (spec §4.5,
// §6: "element_type: IEEE 16/32/64-bit float; chosen at create").
func WithElementType(et diskann.ElementType) CollectionOption {
	return func(c *CollectionConfig) error {
		c.ElementType = et
		return nil
	}
}

// WithGraphParams configures the LM-DiskANN graph tunables (spec §6):
// maxDegree bounds adjacency row width, efConstruction bounds traversal
// during insertion, efSearch bounds traversal during query.
func WithGraphParams(maxDegree, efConstruction, efSearch int) CollectionOption {
	return func(c *CollectionConfig) error {
		if maxDegree <= 0 || efConstruction <= 0 || efSearch <= 0 {
			return fmt.Errorf("graph parameters must be positive")
		}
		c.MaxDegree = maxDegree
		c.EfConstruction = efConstruction
		c.EfSearch = efSearch
		return nil
	}
}

// WithKeyStore enables or disables the bidirectional user-key dictionary
// (spec §6: "P+\"forward_db.leveldb\"" / "P+\"reverse_db.leveldb\""). When
// disabled, keys are not recorded: Insert still reports the supplied key
// (or the stringified external ID when none is given), GetVectorByKey
// fails with a not-found error, and DeleteByKey deletes nothing.
func WithKeyStore(enabled bool) CollectionOption {
	return func(c *CollectionConfig) error {
		c.UseKeyStore = enabled
		return nil
	}
}
