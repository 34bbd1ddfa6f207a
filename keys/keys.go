// Package keys implements the fixed-width fingerprint arithmetic behind the
// structural matcher: the Key type, two fold primitives with different
// algebraic contracts, and pluggable text hashers.
//
// CombineUnique is order-sensitive: the shifting accumulator mixes each
// operand's position into the result, so swapping two distinct inputs
// changes the key. Use it where the role of each operand matters (an
// attribute's name vs its value, a node's tag vs its text).
//
// CombineLoose is a plain XOR fold, invariant under permutation of its
// inputs and under insertion of zero keys. Use it for collections whose
// order carries no meaning (attribute sets, child sets).
//
// Both fold to the zero Key when called with no arguments; zero is the only
// Key ever constructed by hand.
package keys

import (
	"fmt"
	"strconv"
)

// Key is a 64-bit structural fingerprint. Keys have no identity beyond
// their bit pattern; equality is ==.
type Key uint64

// golden is the 64-bit golden-ratio constant. Odd, with well-spread bits,
// it keeps CombineUnique from cancelling when the inputs themselves are
// poorly distributed.
const golden Key = 0x9e3779b97f4a7c15

// CombineUnique folds keys into one under an order-sensitive contract:
// swapping two distinct arguments changes the result with high probability.
func CombineUnique(ks ...Key) Key {
	var acc Key
	for _, k := range ks {
		acc ^= k + golden + (acc << 6) + (acc >> 2)
	}
	return acc
}

// CombineLoose folds keys into one under an order-insensitive contract:
// the result is the XOR of all arguments, so any permutation of the same
// multiset yields the same key.
func CombineLoose(ks ...Key) Key {
	var acc Key
	for _, k := range ks {
		acc ^= k
	}
	return acc
}

// String renders the key as 16 lowercase hex digits, the form the baseline
// store persists.
func (k Key) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

// Parse reads a key back from its 16-hex-digit form.
func Parse(s string) (Key, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("keys: parse %q: %w", s, err)
	}
	return Key(v), nil
}

// MarshalText renders the key in its 16-hex-digit form. A JSON number
// cannot carry all 64 bits, so keys always cross encoding boundaries as
// text.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the 16-hex-digit form.
func (k *Key) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
