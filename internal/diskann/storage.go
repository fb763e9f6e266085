package diskann

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// neighborSentinel marks an empty adjacency slot in a node's row.
const neighborSentinel int32 = -1

// storage owns the two memory-mapped files backing the graph: a vector
// file (P.vec, one row of dim*elemSize bytes per node) and an adjacency
// file (P.adj, one row of maxDegree*4 bytes per node, int32 internal IDs
// little-endian, padded with neighborSentinel). Column-per-node layout:
// node n's vector lives at offset n*dim*elemSize, its adjacency row at
// n*maxDegree*4.
type storage struct {
	vecPath string
	adjPath string

	vecFile *os.File
	adjFile *os.File

	vecMap mmap.MMap
	adjMap mmap.MMap

	elemType  ElementType
	dim       int
	maxDegree int

	// capacity is the number of node rows currently backed by the mapped
	// files (may exceed numPoints seen so far; see ensureCapacity).
	capacity int

	// onGrow, if set, is invoked after every successful capacity
	// extension (used by the façade layer to drive a metrics counter).
	onGrow func()
}

func vectorRowSize(dim int, et ElementType) int { return dim * et.byteSize() }
func adjacencyRowSize(maxDegree int) int        { return maxDegree * 4 }

// openStorage opens (creating if necessary) the vector and adjacency files
// for a node count of at least minCapacity, and maps them.
func openStorage(vecPath, adjPath string, dim, maxDegree int, et ElementType, minCapacity int) (*storage, error) {
	if !et.valid() {
		return nil, fmt.Errorf("diskann: invalid element type %d", et)
	}
	vecFile, err := os.OpenFile(vecPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("diskann: open vector file: %w", err)
	}
	adjFile, err := os.OpenFile(adjPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		vecFile.Close()
		return nil, fmt.Errorf("diskann: open adjacency file: %w", err)
	}

	s := &storage{
		vecPath:   vecPath,
		adjPath:   adjPath,
		vecFile:   vecFile,
		adjFile:   adjFile,
		elemType:  et,
		dim:       dim,
		maxDegree: maxDegree,
	}

	if minCapacity < 1 {
		minCapacity = 1
	}
	if err := s.ensureCapacity(minCapacity); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// ensureCapacity grows the backing files and re-maps them if the current
// mapped capacity is below need. Growth policy: max(need, current +
// max(1024, current)) node rows, so capacity at least doubles once it
// passes 1024 rows and otherwise grows by 1024 rows.
func (s *storage) ensureCapacity(need int) error {
	if need <= s.capacity {
		return nil
	}
	grown := s.capacity + 1024
	if s.capacity > 1024 {
		grown = s.capacity * 2
	}
	newCap := need
	if grown > newCap {
		newCap = grown
	}

	vecSize := int64(newCap) * int64(vectorRowSize(s.dim, s.elemType))
	adjSize := int64(newCap) * int64(adjacencyRowSize(s.maxDegree))

	if err := s.remapVec(vecSize); err != nil {
		return err
	}
	if err := s.remapAdj(adjSize); err != nil {
		return err
	}
	s.capacity = newCap
	if s.onGrow != nil {
		s.onGrow()
	}
	return nil
}

func (s *storage) remapVec(size int64) error {
	if s.vecMap != nil {
		if err := s.vecMap.Unmap(); err != nil {
			return fmt.Errorf("diskann: unmap vector file: %w", err)
		}
		s.vecMap = nil
	}
	info, err := s.vecFile.Stat()
	if err != nil {
		return fmt.Errorf("diskann: stat vector file: %w", err)
	}
	if info.Size() < size {
		if err := s.vecFile.Truncate(size); err != nil {
			return fmt.Errorf("diskann: truncate vector file: %w", err)
		}
	}
	m, err := mmap.Map(s.vecFile, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("diskann: map vector file: %w", err)
	}
	s.vecMap = m
	return nil
}

func (s *storage) remapAdj(size int64) error {
	if s.adjMap != nil {
		if err := s.adjMap.Unmap(); err != nil {
			return fmt.Errorf("diskann: unmap adjacency file: %w", err)
		}
		s.adjMap = nil
	}
	info, err := s.adjFile.Stat()
	if err != nil {
		return fmt.Errorf("diskann: stat adjacency file: %w", err)
	}
	// oldSize is how much of the file already holds real, possibly
	// persisted-from-a-prior-session, adjacency rows. Only bytes beyond
	// it are newly appended by the Truncate below and need sentinel
	// filling; bytes before it must never be touched, or a reopen would
	// wipe every node's neighbor row.
	oldSize := info.Size()
	if oldSize < size {
		if err := s.adjFile.Truncate(size); err != nil {
			return fmt.Errorf("diskann: truncate adjacency file: %w", err)
		}
	}
	m, err := mmap.Map(s.adjFile, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("diskann: map adjacency file: %w", err)
	}
	s.adjMap = m

	if oldSize < int64(len(m)) {
		fillSentinelRows(m[oldSize:])
	}
	return nil
}

// fillSentinelRows stamps neighborSentinel (as little-endian int32 -1,
// i.e. all 0xFF bytes) across b. A freshly truncated file reads as zero
// bytes, which would otherwise be misread as "neighbor 0".
func fillSentinelRows(b []byte) {
	for i := range b {
		b[i] = 0xFF
	}
}

func (s *storage) vectorRow(n int) []byte {
	sz := vectorRowSize(s.dim, s.elemType)
	off := n * sz
	return s.vecMap[off : off+sz]
}

func (s *storage) adjacencyRow(n int) []byte {
	sz := adjacencyRowSize(s.maxDegree)
	off := n * sz
	return s.adjMap[off : off+sz]
}

func (s *storage) writeVector(n int, vec []float64) error {
	if len(vec) != s.dim {
		return fmt.Errorf("diskann: vector has dim %d, index dim is %d", len(vec), s.dim)
	}
	if err := s.ensureCapacity(n + 1); err != nil {
		return err
	}
	s.elemType.encodeVector(s.vectorRow(n), vec)
	return nil
}

func (s *storage) readVector(n int) []float64 {
	return s.elemType.decodeVector(s.vectorRow(n), s.dim)
}

func (s *storage) zeroVector(n int) {
	row := s.vectorRow(n)
	for i := range row {
		row[i] = 0
	}
}

// writeAdjacency writes a compact list of live neighbor IDs (len <=
// maxDegree), padding the remainder of the row with neighborSentinel.
func (s *storage) writeAdjacency(n int, neighbors []int32) error {
	if len(neighbors) > s.maxDegree {
		return fmt.Errorf("diskann: %d neighbors exceeds max degree %d", len(neighbors), s.maxDegree)
	}
	if err := s.ensureCapacity(n + 1); err != nil {
		return err
	}
	row := s.adjacencyRow(n)
	for i := 0; i < s.maxDegree; i++ {
		var v int32 = neighborSentinel
		if i < len(neighbors) {
			v = neighbors[i]
		}
		putInt32(row[i*4:i*4+4], v)
	}
	return nil
}

// readAdjacency returns the compact list of live neighbor IDs for node n,
// in on-disk order, with sentinel slots dropped.
func (s *storage) readAdjacency(n int) []int32 {
	row := s.adjacencyRow(n)
	out := make([]int32, 0, s.maxDegree)
	for i := 0; i < s.maxDegree; i++ {
		v := getInt32(row[i*4 : i*4+4])
		if v != neighborSentinel {
			out = append(out, v)
		}
	}
	return out
}

func (s *storage) clearAdjacency(n int) error {
	return s.writeAdjacency(n, nil)
}

func putInt32(b []byte, v int32) {
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}

func getInt32(b []byte) int32 {
	u := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return int32(u)
}

// Flush asks the OS to write back dirty mapped pages without unmapping.
func (s *storage) Flush() error {
	if s.vecMap != nil {
		if err := s.vecMap.Flush(); err != nil {
			return fmt.Errorf("diskann: flush vector file: %w", err)
		}
	}
	if s.adjMap != nil {
		if err := s.adjMap.Flush(); err != nil {
			return fmt.Errorf("diskann: flush adjacency file: %w", err)
		}
	}
	return nil
}

func (s *storage) Close() error {
	var firstErr error
	if s.vecMap != nil {
		if err := s.vecMap.Unmap(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.vecMap = nil
	}
	if s.adjMap != nil {
		if err := s.adjMap.Unmap(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.adjMap = nil
	}
	if s.vecFile != nil {
		if err := s.vecFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.adjFile != nil {
		if err := s.adjFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
