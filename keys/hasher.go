package keys

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"

	"golang.org/x/crypto/blake2b"
)

// Hasher maps a text value to a Key. Every Hasher is deterministic for the
// lifetime of the process; whether two processes agree is a property of the
// algorithm (see Stable).
type Hasher func(s string) Key

// Algorithm names accepted by ByName and recorded by the baseline store.
const (
	AlgoMaphash = "maphash"
	AlgoFNV     = "fnv"
	AlgoBlake2b = "blake2b"
)

// seed is drawn once per process. Keys hashed under it are comparable only
// within that process, which is all the matcher itself needs.
var seed = maphash.MakeSeed()

// Maphash returns the default hasher: hash/maphash under one process-wide
// random seed. Fastest option. Not stable across processes.
func Maphash() Hasher {
	return func(s string) Key {
		return Key(maphash.String(seed, s))
	}
}

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// FNV returns an FNV-1a 64-bit hasher. Stable across processes and
// architectures; the baseline store records keys produced with it.
func FNV() Hasher {
	return func(s string) Key {
		h := uint64(fnvOffset64)
		for i := 0; i < len(s); i++ {
			h ^= uint64(s[i])
			h *= fnvPrime64
		}
		return Key(h)
	}
}

// Blake2b returns a hasher that takes the 8-byte BLAKE2b digest of the text.
// Roughly an order of magnitude slower than FNV, in exchange for
// cryptographic-quality distribution on adversarial inputs. Stable across
// processes.
func Blake2b() Hasher {
	return func(s string) Key {
		h, _ := blake2b.New(8, nil) // digest size 8 is always valid
		h.Write([]byte(s))
		var buf [8]byte
		h.Sum(buf[:0])
		return Key(binary.BigEndian.Uint64(buf[:]))
	}
}

// ByName resolves a hasher from its configuration name. The empty string
// selects the default (maphash).
func ByName(name string) (Hasher, error) {
	switch name {
	case AlgoMaphash, "":
		return Maphash(), nil
	case AlgoFNV:
		return FNV(), nil
	case AlgoBlake2b:
		return Blake2b(), nil
	default:
		return nil, fmt.Errorf("keys: unknown hash algorithm %q", name)
	}
}

// Stable reports whether keys produced under the named algorithm may be
// compared across process boundaries. Persisting a maphash key is a bug.
func Stable(name string) bool {
	return name == AlgoFNV || name == AlgoBlake2b
}
