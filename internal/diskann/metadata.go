package diskann

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
)

const (
	metaMagic   uint32 = 0x4C4D4441 // "LMDA"
	metaVersion uint32 = 1
)

// metadata is the small, atomically-committed control record for an
// index: everything needed to resume traversal and insertion that isn't
// itself one of the two bulk mmap'd files.
type metadata struct {
	numPoints  int32
	dim        int32
	maxDegree  int32
	elemType   ElementType
	metric     Metric
	entrypoint int32 // -1 means empty index
	freeList   []int32
}

// encode serializes m to its binary form: magic, version, fixed fields,
// free-list length + entries, then a trailing CRC32 over everything
// before it, so a torn or bit-flipped metadata file is detected on load
// rather than silently trusted.
func (m *metadata) encode() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, metaMagic)
	binary.Write(&buf, binary.LittleEndian, metaVersion)
	binary.Write(&buf, binary.LittleEndian, m.numPoints)
	binary.Write(&buf, binary.LittleEndian, m.dim)
	binary.Write(&buf, binary.LittleEndian, m.maxDegree)
	binary.Write(&buf, binary.LittleEndian, uint8(m.elemType))
	binary.Write(&buf, binary.LittleEndian, uint8(m.metric))
	binary.Write(&buf, binary.LittleEndian, m.entrypoint)
	binary.Write(&buf, binary.LittleEndian, int32(len(m.freeList)))
	for _, id := range m.freeList {
		binary.Write(&buf, binary.LittleEndian, id)
	}

	sum := crc32.ChecksumIEEE(buf.Bytes())
	out := buf.Bytes()
	out = append(out, 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(out[len(out)-4:], sum)
	return out
}

func decodeMetadata(b []byte) (*metadata, error) {
	if len(b) < 4+4 {
		return nil, fmt.Errorf("diskann: metadata file too short")
	}
	body := b[:len(b)-4]
	wantSum := binary.LittleEndian.Uint32(b[len(b)-4:])
	if gotSum := crc32.ChecksumIEEE(body); gotSum != wantSum {
		return nil, fmt.Errorf("diskann: metadata checksum mismatch (corrupted)")
	}

	r := bytes.NewReader(body)
	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("diskann: read metadata magic: %w", err)
	}
	if magic != metaMagic {
		return nil, fmt.Errorf("diskann: bad metadata magic %x", magic)
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("diskann: read metadata version: %w", err)
	}
	if version != metaVersion {
		return nil, fmt.Errorf("diskann: unsupported metadata version %d", version)
	}

	m := &metadata{}
	var elemType, metric uint8
	var freeLen int32
	for _, field := range []interface{}{&m.numPoints, &m.dim, &m.maxDegree, &elemType, &metric, &m.entrypoint, &freeLen} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("diskann: read metadata field: %w", err)
		}
	}
	m.elemType = ElementType(elemType)
	m.metric = Metric(metric)

	if freeLen < 0 {
		return nil, fmt.Errorf("diskann: negative free-list length %d", freeLen)
	}
	m.freeList = make([]int32, freeLen)
	for i := range m.freeList {
		if err := binary.Read(r, binary.LittleEndian, &m.freeList[i]); err != nil {
			return nil, fmt.Errorf("diskann: read free-list entry: %w", err)
		}
	}
	return m, nil
}

// loadMetadata reads and validates the metadata file at path.
func loadMetadata(path string) (*metadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("diskann: read metadata file: %w", err)
	}
	return decodeMetadata(b)
}

// commit atomically replaces the metadata file at path with m's encoding:
// write to a sibling temp file, fsync, then rename over the original.
// Rename is atomic on POSIX filesystems, so a crash mid-write never
// leaves a torn metadata file.
func (m *metadata) commit(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".meta-tmp-*")
	if err != nil {
		return fmt.Errorf("diskann: create temp metadata file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(m.encode()); err != nil {
		tmp.Close()
		return fmt.Errorf("diskann: write temp metadata file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("diskann: fsync temp metadata file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("diskann: close temp metadata file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("diskann: rename metadata file into place: %w", err)
	}
	return nil
}
