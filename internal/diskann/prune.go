package diskann

import "sort"

// pruneNeighbors reduces candidateIDs to at most maxDegree entries, using
// a pure distance-to-owner criterion: duplicates are dropped, candidates
// are sorted by ascending distance to owner (ties by ascending internal
// ID), and the closest maxDegree are kept (all of them if they fit).
// ownerID is filtered out of the input if present — traversal has no a
// priori reason to exclude the node being inserted, so the guard lives
// here instead.
func pruneNeighbors(s *storage, dist distanceFunc, ownerID int32, ownerVec []float64, candidateIDs []int32, maxDegree int) []int32 {
	filtered := make([]int32, 0, len(candidateIDs))
	seen := make(map[int32]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		if id == ownerID || seen[id] {
			continue
		}
		seen[id] = true
		filtered = append(filtered, id)
	}

	if len(filtered) <= maxDegree {
		sortByDistanceToOwner(s, dist, ownerVec, filtered)
		return filtered
	}

	sortByDistanceToOwner(s, dist, ownerVec, filtered)
	return filtered[:maxDegree]
}

func sortByDistanceToOwner(s *storage, dist distanceFunc, ownerVec []float64, ids []int32) {
	distances := make(map[int32]float64, len(ids))
	for _, id := range ids {
		distances[id] = dist(ownerVec, s.readVector(int(id)))
	}
	sort.Slice(ids, func(i, j int) bool {
		di, dj := distances[ids[i]], distances[ids[j]]
		if di != dj {
			return di < dj
		}
		return ids[i] < ids[j]
	})
}
