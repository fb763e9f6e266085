package diskann

import "fmt"

// Insert adds vec as a new node, optionally addressable by key, and
// returns the effective key (key if supplied, else the stringified
// external ID) and the new external ID.
func (ix *Index) Insert(vec []float64, key string) (string, int64, error) {
	if len(vec) != ix.cfg.Dim {
		return "", 0, newError(InvalidArgument, "insert", fmt.Errorf("vector has dim %d, index dim is %d", len(vec), ix.cfg.Dim))
	}

	newID := ix.allocateSlot()

	if err := ix.store.writeVector(int(newID), vec); err != nil {
		return "", 0, newError(IOError, "insert", err)
	}

	ext := externalID(newID)
	effectiveKey := key
	if effectiveKey == "" {
		effectiveKey = defaultKey(ext)
	}

	if ix.meta.entrypoint == -1 {
		if err := ix.store.clearAdjacency(int(newID)); err != nil {
			return "", 0, newError(IOError, "insert", err)
		}
		ix.meta.entrypoint = newID
		if err := ix.commitInsert(effectiveKey, ext); err != nil {
			return "", 0, err
		}
		return effectiveKey, ext, nil
	}

	ef := ix.cfg.EfConstruction
	if ix.cfg.MaxDegree > ef {
		ef = ix.cfg.MaxDegree
	}
	hits := traverse(ix.store, ix.dist, vec, ix.meta.entrypoint, ef, ix.isLive)

	candidateIDs := make([]int32, 0, len(hits))
	for _, h := range hits {
		if h.id != newID {
			candidateIDs = append(candidateIDs, h.id)
		}
	}

	forward := pruneNeighbors(ix.store, ix.dist, newID, vec, candidateIDs, ix.cfg.MaxDegree)
	if err := ix.store.writeAdjacency(int(newID), forward); err != nil {
		return "", 0, newError(IOError, "insert", err)
	}

	for _, c := range forward {
		if err := ix.backPatch(c, newID); err != nil {
			return "", 0, newError(IOError, "insert", err)
		}
	}

	if err := ix.commitInsert(effectiveKey, ext); err != nil {
		return "", 0, err
	}
	return effectiveKey, ext, nil
}

// backPatch appends newID to candidate's neighbor row and re-prunes it.
// Not transactional across candidates: a crash partway through leaves a
// valid, slightly less-connected graph rather than a corrupt one.
func (ix *Index) backPatch(candidateID, newID int32) error {
	existing := ix.store.readAdjacency(int(candidateID))
	merged := append(existing, newID)
	ownerVec := ix.store.readVector(int(candidateID))
	pruned := pruneNeighbors(ix.store, ix.dist, candidateID, ownerVec, merged, ix.cfg.MaxDegree)
	return ix.store.writeAdjacency(int(candidateID), pruned)
}

func (ix *Index) commitInsert(key string, ext int64) error {
	if err := ix.meta.commit(ix.metaPath()); err != nil {
		return newError(IOError, "insert", err)
	}
	if ix.cfg.KeyStore != nil {
		if err := ix.cfg.KeyStore.Put(key, ext); err != nil {
			return newError(IOError, "insert", err)
		}
	}
	return nil
}
