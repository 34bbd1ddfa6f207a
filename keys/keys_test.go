package keys

import (
	"encoding/json"
	"testing"
)

func TestCombineUnique_Empty(t *testing.T) {
	if got := CombineUnique(); got != 0 {
		t.Fatalf("expected identity key, got %s", got)
	}
}

func TestCombineLoose_Empty(t *testing.T) {
	if got := CombineLoose(); got != 0 {
		t.Fatalf("expected identity key, got %s", got)
	}
}

func TestCombineUnique_OrderSensitive(t *testing.T) {
	k1, k2 := Key(0x1111), Key(0x2222)
	if CombineUnique(k1, k2) == CombineUnique(k2, k1) {
		t.Fatal("expected swapped arguments to change the key")
	}
}

func TestCombineUnique_SingleArgumentDiffersFromInput(t *testing.T) {
	// The mixer must not degenerate to identity on one argument, otherwise
	// a node's key could equal its only child's key.
	k := Key(0xdeadbeef)
	if CombineUnique(k) == k {
		t.Fatal("expected mixed key to differ from its input")
	}
}

func TestCombineLoose_PermutationInvariant(t *testing.T) {
	a, b, c := Key(17), Key(5000), Key(1<<40)
	want := CombineLoose(a, b, c)

	perms := [][]Key{
		{a, c, b},
		{b, a, c},
		{b, c, a},
		{c, a, b},
		{c, b, a},
	}
	for i, p := range perms {
		if got := CombineLoose(p...); got != want {
			t.Errorf("permutation %d: got %s, want %s", i, got, want)
		}
	}
}

func TestCombineLoose_ZeroInsertionInvariant(t *testing.T) {
	a, b := Key(42), Key(99)
	if CombineLoose(a, b) != CombineLoose(a, 0, b, 0) {
		t.Fatal("expected zero keys to be absorbed")
	}
}

func TestCombineLoose_SelfCancels(t *testing.T) {
	// XOR algebra: a duplicated key cancels itself. For the matcher this
	// means an even multiplicity of one identical subtree vanishes from the
	// parent's key; match.WithVerification exists for callers who care.
	a := Key(0xabcdef)
	if got := CombineLoose(a, a); got != 0 {
		t.Fatalf("expected self-cancellation, got %s", got)
	}
}

func TestCombineUnique_Deterministic(t *testing.T) {
	in := []Key{3, 1, 4, 1, 5, 9, 2, 6}
	first := CombineUnique(in...)
	for i := 0; i < 100; i++ {
		if got := CombineUnique(in...); got != first {
			t.Fatalf("run %d: got %s, want %s", i, got, first)
		}
	}
}

func TestKeyString_Width(t *testing.T) {
	for _, k := range []Key{0, 1, 0xffffffffffffffff} {
		if s := k.String(); len(s) != 16 {
			t.Errorf("key %d: expected 16 hex digits, got %q", uint64(k), s)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	for _, k := range []Key{0, 42, 0x9e3779b97f4a7c15, 0xffffffffffffffff} {
		got, err := Parse(k.String())
		if err != nil {
			t.Fatalf("parse %s: %v", k, err)
		}
		if got != k {
			t.Fatalf("round trip: got %s, want %s", got, k)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "zz", "not a key", "10000000000000000"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestKey_JSONRoundTrip(t *testing.T) {
	// Keys cross JSON as hex text: a number would lose bits above 2^53.
	in := Key(0xfedcba9876543210)
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"fedcba9876543210"` {
		t.Fatalf("marshalled as %s, want quoted hex", data)
	}
	var out Key
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip: got %s, want %s", out, in)
	}
}
