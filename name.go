package gpt

import (
	"fmt"
	"unicode/utf16"
)

// nameFieldBytes is the fixed on-disk width of a partition name field.
const nameFieldBytes = 72

// maxNameCodeUnits is the maximum number of UTF-16 code units a
// partition name may occupy, per spec.md's NameTooLong invariant.
const maxNameCodeUnits = nameFieldBytes / 2

// decodeName decodes a 72-byte UTF-16LE partition name field. Code
// units after the first NUL are ignored.
func decodeName(b []byte) string {
	units := make([]uint16, 0, nameFieldBytes/2)
	for i := 0; i+1 < len(b); i += 2 {
		v := getUint16(b, i)
		if v == 0 {
			break
		}
		units = append(units, v)
	}
	return string(utf16.Decode(units))
}

// encodeName encodes name into a fresh 72-byte UTF-16LE field,
// zero-padded after the terminator. Returns ErrNameTooLong if name
// needs more than 36 UTF-16 code units.
func encodeName(name string) ([nameFieldBytes]byte, error) {
	var out [nameFieldBytes]byte

	units := utf16.Encode([]rune(name))
	if len(units) > maxNameCodeUnits {
		return out, fmt.Errorf("%w: %q needs %d code units, max %d", ErrNameTooLong, name, len(units), maxNameCodeUnits)
	}

	for i, u := range units {
		putUint16(out[:], i*2, u)
	}
	return out, nil
}
