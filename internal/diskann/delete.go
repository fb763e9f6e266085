package diskann

import "fmt"

// DeleteByID tombstones the node at external ID ext. It is an error to
// delete an out-of-range or already-tombstoned ID.
func (ix *Index) DeleteByID(ext int64) error {
	internal := internalID(ext)
	if internal < 0 || internal >= int32(ix.meta.numPoints) {
		return newError(InvalidArgument, "delete", fmt.Errorf("external id %d out of range", ext))
	}
	if ix.freeSet[internal] {
		return newError(InvalidArgument, "delete", fmt.Errorf("external id %d already deleted", ext))
	}
	return ix.deleteInternal(internal, ext)
}

// DeleteByKey resolves key through the KeyStore and deletes the entry it
// names. Unlike DeleteByID, an unknown key is not an error: it returns
// (false, nil) silently, making repeated deletes of the same key
// idempotent. An index without a KeyStore knows no keys, so every key is
// unknown to it.
func (ix *Index) DeleteByKey(key string) (bool, error) {
	if ix.cfg.KeyStore == nil {
		return false, nil
	}
	ext, ok, err := ix.cfg.KeyStore.LookupID(key)
	if err != nil {
		return false, newError(IOError, "delete", err)
	}
	if !ok {
		return false, nil
	}
	internal := internalID(ext)
	if internal < 0 || internal >= int32(ix.meta.numPoints) || ix.freeSet[internal] {
		return false, nil
	}
	if err := ix.deleteInternal(internal, ext); err != nil {
		return false, err
	}
	return true, nil
}

func (ix *Index) deleteInternal(internal int32, ext int64) error {
	// Scrub the target from every live row, not only from the rows of its
	// own neighbors: back-patch pruning can leave one-way edges pointing at
	// it that its own row does not mirror.
	for id := int32(0); id < int32(ix.meta.numPoints); id++ {
		if id == internal || ix.freeSet[id] {
			continue
		}
		row := ix.store.readAdjacency(int(id))
		n := len(row)
		trimmed := removeID(row, internal)
		if len(trimmed) == n {
			continue
		}
		if err := ix.store.writeAdjacency(int(id), trimmed); err != nil {
			return newError(IOError, "delete", err)
		}
	}

	if err := ix.store.clearAdjacency(int(internal)); err != nil {
		return newError(IOError, "delete", err)
	}

	if ix.meta.entrypoint == internal {
		ix.meta.entrypoint = ix.findNewEntrypoint(internal)
	}

	ix.meta.freeList = append(ix.meta.freeList, internal)
	ix.freeSet[internal] = true
	ix.store.zeroVector(int(internal))

	if err := ix.meta.commit(ix.metaPath()); err != nil {
		return newError(IOError, "delete", err)
	}
	if ix.cfg.KeyStore != nil {
		if err := ix.cfg.KeyStore.Delete(ext); err != nil {
			return newError(IOError, "delete", err)
		}
	}
	return nil
}

// findNewEntrypoint scans internal IDs ascending for the first live node
// other than excluded, or -1 if none exists.
func (ix *Index) findNewEntrypoint(excluded int32) int32 {
	for id := int32(0); id < int32(ix.meta.numPoints); id++ {
		if id == excluded {
			continue
		}
		if !ix.freeSet[id] {
			return id
		}
	}
	return -1
}

func removeID(ids []int32, target int32) []int32 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
