package diskann

// Stats is a point-in-time snapshot of an index's lifecycle state, used
// by health reporting and by tests asserting the live-count/entrypoint
// invariant.
type Stats struct {
	NumPoints  int64
	LiveCount  int64
	Entrypoint int64 // -1 means none
	FreeListLen int
	Dim         int
	MaxDegree   int
}

func (ix *Index) Stats() Stats {
	free := len(ix.meta.freeList)
	entrypoint := int64(-1)
	if ix.meta.entrypoint != -1 {
		entrypoint = externalID(ix.meta.entrypoint)
	}
	return Stats{
		NumPoints:   int64(ix.meta.numPoints),
		LiveCount:   int64(ix.meta.numPoints) - int64(free),
		Entrypoint:  entrypoint,
		FreeListLen: free,
		Dim:         ix.cfg.Dim,
		MaxDegree:   ix.cfg.MaxDegree,
	}
}
