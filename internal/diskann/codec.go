package diskann

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// ElementType is the on-disk scalar width of a vector file, chosen at
// create time and persisted in the metadata record so Open never needs
// it supplied again.
type ElementType uint8

const (
	Float32 ElementType = iota
	Float64
	Float16
)

func (e ElementType) String() string {
	switch e {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	default:
		return "unknown"
	}
}

// byteSize returns sizeof(T) for the element type, used to size the
// vector file as dim * capacity * sizeof(T).
func (e ElementType) byteSize() int {
	switch e {
	case Float32:
		return 4
	case Float64:
		return 8
	case Float16:
		return 2
	default:
		return 0
	}
}

func (e ElementType) valid() bool {
	switch e {
	case Float32, Float64, Float16:
		return true
	default:
		return false
	}
}

// encodeScalar writes v (the canonical in-memory float64 representation)
// into dst using the element type's byte width, in little-endian order.
func (e ElementType) encodeScalar(dst []byte, v float64) {
	switch e {
	case Float32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	case Float16:
		binary.LittleEndian.PutUint16(dst, uint16(float16.Fromfloat32(float32(v)).Bits()))
	default:
		panic(fmt.Sprintf("diskann: invalid element type %d", e))
	}
}

// decodeScalar is the inverse of encodeScalar.
func (e ElementType) decodeScalar(src []byte) float64 {
	switch e {
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(src)))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(src))
	case Float16:
		return float64(float16.Frombits(binary.LittleEndian.Uint16(src)).Float32())
	default:
		panic(fmt.Sprintf("diskann: invalid element type %d", e))
	}
}

// encodeVector writes vec (length dim) into dst (length dim*byteSize).
func (e ElementType) encodeVector(dst []byte, vec []float64) {
	sz := e.byteSize()
	for i, v := range vec {
		e.encodeScalar(dst[i*sz:(i+1)*sz], v)
	}
}

// decodeVector reads a dim-length vector out of src (length dim*byteSize).
func (e ElementType) decodeVector(src []byte, dim int) []float64 {
	sz := e.byteSize()
	out := make([]float64, dim)
	for i := range out {
		out[i] = e.decodeScalar(src[i*sz : (i+1)*sz])
	}
	return out
}
