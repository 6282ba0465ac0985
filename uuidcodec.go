package gpt

import "github.com/google/uuid"

// swapMixedEndian converts a 16-byte UUID between RFC 4122 byte order and
// the GPT on-disk mixed-endian layout. The transform is its own inverse:
// the first three groups (4, 2, 2 bytes) are byte-reversed in place and
// the trailing 8 bytes are left untouched, exactly as UEFI specifies.
func swapMixedEndian(in [16]byte) [16]byte {
	var out [16]byte
	out[0], out[1], out[2], out[3] = in[3], in[2], in[1], in[0]
	out[4], out[5] = in[5], in[4]
	out[6], out[7] = in[7], in[6]
	copy(out[8:], in[8:])
	return out
}

// decodeGUID reads a GPT mixed-endian GUID from b (which must be at
// least 16 bytes) into a standard uuid.UUID.
func decodeGUID(b []byte) uuid.UUID {
	var disk [16]byte
	copy(disk[:], b[:16])
	return uuid.UUID(swapMixedEndian(disk))
}

// encodeGUID writes u to b (which must be at least 16 bytes) in GPT
// mixed-endian order.
func encodeGUID(u uuid.UUID, b []byte) {
	mixed := swapMixedEndian([16]byte(u))
	copy(b[:16], mixed[:])
}

// newUUID generates a fresh random (version 4) unique identifier for a
// disk or partition.
func newUUID() (uuid.UUID, error) {
	return uuid.NewRandom()
}
