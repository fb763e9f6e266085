package diskann

import "fmt"

// SearchHit is one ranked result from Search: the external ID plus its
// registered key, if any.
type SearchHit struct {
	ExternalID int64
	Key        string
	HasKey     bool
	Distance   float64
}

// Search returns up to topk nearest neighbors of query under the index's
// configured metric, re-ranked by exact distance. An empty index returns
// an empty slice.
func (ix *Index) Search(query []float64, topk int) ([]SearchHit, error) {
	if len(query) != ix.cfg.Dim {
		return nil, newError(InvalidArgument, "search", fmt.Errorf("query has dim %d, index dim is %d", len(query), ix.cfg.Dim))
	}
	if topk <= 0 {
		return nil, newError(InvalidArgument, "search", fmt.Errorf("topk must be positive, got %d", topk))
	}

	if ix.meta.entrypoint == -1 {
		return nil, nil
	}

	ef := ix.cfg.EfSearch
	if topk > ef {
		ef = topk
	}
	hits := traverse(ix.store, ix.dist, query, ix.meta.entrypoint, ef, ix.isLive)

	// finalize (sqrt for L2) is monotonic, so it cannot change the
	// ascending order traverse already produced.
	for i := range hits {
		hits[i].distance = ix.cfg.Metric.finalize(hits[i].distance)
	}
	if len(hits) > topk {
		hits = hits[:topk]
	}

	out := make([]SearchHit, len(hits))
	for i, h := range hits {
		ext := externalID(h.id)
		hit := SearchHit{ExternalID: ext, Distance: h.distance}
		if ix.cfg.KeyStore != nil {
			if k, ok, err := ix.cfg.KeyStore.LookupKey(ext); err != nil {
				return nil, newError(IOError, "search", err)
			} else if ok {
				hit.Key = k
				hit.HasKey = true
			}
		}
		out[i] = hit
	}
	return out, nil
}

// GetVectorByID returns a copy of the vector stored at external ID ext.
func (ix *Index) GetVectorByID(ext int64) ([]float64, error) {
	internal := internalID(ext)
	if internal < 0 || internal >= int32(ix.meta.numPoints) {
		return nil, newError(InvalidArgument, "get_vector_by_id", fmt.Errorf("external id %d out of range", ext))
	}
	if ix.freeSet[internal] {
		return nil, newError(InvalidArgument, "get_vector_by_id", fmt.Errorf("external id %d is tombstoned", ext))
	}
	return ix.store.readVector(int(internal)), nil
}

// GetVectorByKey resolves key through the KeyStore and returns its vector.
func (ix *Index) GetVectorByKey(key string) ([]float64, error) {
	if ix.cfg.KeyStore == nil {
		return nil, newError(NotFound, "get_vector_by_key", fmt.Errorf("no key store configured"))
	}
	ext, ok, err := ix.cfg.KeyStore.LookupID(key)
	if err != nil {
		return nil, newError(IOError, "get_vector_by_key", err)
	}
	if !ok {
		return nil, newError(NotFound, "get_vector_by_key", fmt.Errorf("unknown key %q", key))
	}
	return ix.GetVectorByID(ext)
}
