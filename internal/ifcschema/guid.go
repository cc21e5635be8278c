package ifcschema

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// guidAlphabet is the 64-character set used by the buildingSMART
// compressed-UUID scheme that IfcGloballyUniqueId attributes are encoded
// with, rather than RFC-4122's hyphenated hex form.
const guidAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_$"

// guidLength is the fixed width of every encoded IfcGloballyUniqueId
// value: 128 bits packed 6 bits per character, rounded up.
const guidLength = 22

var guidModulus = new(big.Int).Lsh(big.NewInt(1), 128)

// EncodeGUID compresses a UUID into its 22-character IFC representation.
func EncodeGUID(id uuid.UUID) string {
	n := new(big.Int).SetBytes(id[:])
	out := make([]byte, guidLength)
	six := big.NewInt(63)
	for i := guidLength - 1; i >= 0; i-- {
		idx := new(big.Int).And(n, six).Int64()
		out[i] = guidAlphabet[idx]
		n.Rsh(n, 6)
	}
	return string(out)
}

// DecodeGUID expands a 22-character IFC GUID back into a UUID, rejecting
// strings that are the wrong length or use characters outside the
// compressed alphabet.
func DecodeGUID(s string) (uuid.UUID, error) {
	if len(s) != guidLength {
		return uuid.Nil, fmt.Errorf("ifcschema: GUID %q must be %d characters, got %d", s, guidLength, len(s))
	}
	n := new(big.Int)
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(guidAlphabet, s[i])
		if idx < 0 {
			return uuid.Nil, fmt.Errorf("ifcschema: GUID %q contains invalid character %q", s, s[i])
		}
		n.Lsh(n, 6)
		n.Or(n, big.NewInt(int64(idx)))
	}
	n.Mod(n, guidModulus)
	b := n.Bytes()
	var full [16]byte
	copy(full[16-len(b):], b)
	return uuid.FromBytes(full[:])
}

// ValidGUID reports whether s is syntactically a well-formed IFC GUID,
// without requiring it to round-trip through a specific UUID version.
func ValidGUID(s string) bool {
	_, err := DecodeGUID(s)
	return err == nil
}
