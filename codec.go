package gpt

import "encoding/binary"

// getUint16 reads a little-endian uint16 at offset off in b.
func getUint16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

// putUint16 writes a little-endian uint16 at offset off in b.
func putUint16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}

// getUint32 reads a little-endian uint32 at offset off in b.
func getUint32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// putUint32 writes a little-endian uint32 at offset off in b.
func putUint32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// getUint64 reads a little-endian uint64 at offset off in b.
func getUint64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// putUint64 writes a little-endian uint64 at offset off in b.
func putUint64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// isAllZero reports whether every byte in b is zero.
func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// ceilDiv computes ceil(a/b) for positive integers.
func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
