package diskann

// traverse performs a best-first expansion over the graph starting from
// entry, returning up to ef closest visited nodes to query sorted
// ascending by distance. Distances are computed with dist, which for L2
// is the squared-distance shortcut (monotonic, sqrt deferred to callers
// that need the true metric value).
//
// isLive reports whether an internal ID is a live node. Delete scrubs a
// tombstoned ID from every live row, so a live node's adjacency row never
// names a tombstoned ID and this check does not fire on an intact graph;
// it is kept as a defensive guard (permitted by §9's open question on
// tombstone checks).
//
// Returns nil if entry < 0, which is how an empty index is represented.
func traverse(s *storage, dist distanceFunc, query []float64, entry int32, ef int, isLive func(int32) bool) []candidate {
	if entry < 0 || ef <= 0 {
		return nil
	}

	visited := map[int32]bool{entry: true}
	frontier := newMinHeap(ef * 2)
	result := newMaxHeap(ef)

	seed := candidate{id: entry, distance: dist(query, s.readVector(int(entry)))}
	frontier.push(seed)
	result.push(seed)

	for {
		cur, ok := frontier.pop()
		if !ok {
			break
		}

		if result.Len() >= ef {
			worst, _ := result.top()
			if cur.distance > worst.distance {
				break
			}
		}

		for _, nb := range s.readAdjacency(int(cur.id)) {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			if isLive != nil && !isLive(nb) {
				continue
			}

			c := candidate{id: nb, distance: dist(query, s.readVector(int(nb)))}
			frontier.push(c)

			if result.Len() < ef {
				result.push(c)
				continue
			}
			worst, _ := result.top()
			if c.distance < worst.distance {
				result.pop()
				result.push(c)
			}
		}
	}

	return result.sorted()
}
