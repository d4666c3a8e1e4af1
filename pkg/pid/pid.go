// Package pid generates and decodes the kernel's v3 document identifier:
// a 128-bit random value encoded in a 48-symbol alphabet that omits vowels
// and visually ambiguous characters.
package pid

import (
	"math/big"

	"github.com/google/uuid"
)

// alphabet is fixed at 48 symbols: no vowels, no 0/1/2/i/l/o and friends.
const alphabet = "bcdfghjkmnpqrstvwxyzBCDFGHJKLMNPQRSTVWXYZ3456789"

// Length is the fixed digit count of a v3 PID.
const Length = 23

var base = big.NewInt(int64(len(alphabet)))

// New generates a fresh v3 PID from a new random 128-bit UUID.
func New() string {
	return UUIDToString(uuid.New())
}

// UUIDToString encodes a 128-bit UUID as a 23-digit base-48 string,
// least-significant digit first during the divmod loop, assembled
// most-significant digit first in the returned string.
func UUIDToString(u uuid.UUID) string {
	n := new(big.Int).SetBytes(u[:])

	digits := make([]byte, Length)
	mod := new(big.Int)
	for i := Length - 1; i >= 0; i-- {
		n.DivMod(n, base, mod)
		digits[i] = alphabet[mod.Int64()]
	}
	return string(digits)
}

// StringToUUID decodes a v3 PID back into its source 128-bit UUID.
// It returns false if s is not a well-formed v3 PID (wrong length or
// a symbol outside the alphabet).
func StringToUUID(s string) (uuid.UUID, bool) {
	var zero uuid.UUID
	if len(s) != Length {
		return zero, false
	}

	n := new(big.Int)
	for i := 0; i < Length; i++ {
		idx := indexOf(s[i])
		if idx < 0 {
			return zero, false
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(int64(idx)))
	}

	b := n.Bytes()
	if len(b) > 16 {
		return zero, false
	}

	var out uuid.UUID
	copy(out[16-len(b):], b)
	return out, true
}

func indexOf(c byte) int {
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == c {
			return i
		}
	}
	return -1
}
