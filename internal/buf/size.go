// Package buf contains checked size arithmetic and little-endian helpers for
// the value codec.
package buf

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// MulOverflowSafe multiplies a and b, returning ok = false when the result
// would overflow uint64. This is the count * unitWidth step of every size
// calculation.
func MulOverflowSafe(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// AddOverflowSafe adds a and b, returning ok = false when the result would
// overflow uint64.
func AddOverflowSafe(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// Length32 narrows n to a 32-bit length field, returning ok = false when it
// does not fit.
func Length32(n uint64) (uint32, bool) {
	if n > math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// PutU32LE returns v as four little-endian bytes.
func PutU32LE(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}
