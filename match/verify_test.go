package match

import "testing"

func TestEquivalent_Reflexive(t *testing.T) {
	n := el("r", el("x").withAttr("a", "1"), el("y").withText("t"))
	if !Equivalent(n, n) {
		t.Fatal("expected a node to be equivalent to itself")
	}
}

func TestEquivalent_SiblingPermutation(t *testing.T) {
	a := el("r", el("x").withAttr("a", "1"), el("y"), el("z").withText("t"))
	b := el("r", el("z").withText("t"), el("x").withAttr("a", "1"), el("y"))
	if !Equivalent(a, b) {
		t.Fatal("expected permuted siblings to be equivalent")
	}
}

func TestEquivalent_AttributePermutation(t *testing.T) {
	a := el("r").withAttr("a", "1").withAttr("b", "2").withAttr("c", "3")
	b := el("r").withAttr("c", "3").withAttr("a", "1").withAttr("b", "2")
	if !Equivalent(a, b) {
		t.Fatal("expected permuted attributes to be equivalent")
	}
}

func TestEquivalent_CountsMatter(t *testing.T) {
	one := el("r", el("x"))
	two := el("r", el("x"), el("x"))
	empty := el("r")

	if Equivalent(one, two) {
		t.Fatal("expected different child counts to differ")
	}
	if Equivalent(two, empty) {
		t.Fatal("expected twin children not to vanish")
	}
}

func TestEquivalent_DuplicateSiblingsPairOff(t *testing.T) {
	a := el("r", el("x"), el("x"), el("y"))
	b := el("r", el("y"), el("x"), el("x"))
	if !Equivalent(a, b) {
		t.Fatal("expected equal multisets of duplicated siblings to match")
	}
}

func TestEquivalent_TagTextAttrDifferences(t *testing.T) {
	base := func() *testNode { return el("r", el("x").withAttr("a", "1").withText("t")) }

	cases := []struct {
		name  string
		other Node
	}{
		{"tag", el("r", el("X").withAttr("a", "1").withText("t"))},
		{"text", el("r", el("x").withAttr("a", "1").withText("T"))},
		{"attr value", el("r", el("x").withAttr("a", "2").withText("t"))},
		{"attr name", el("r", el("x").withAttr("b", "1").withText("t"))},
		{"extra attr", el("r", el("x").withAttr("a", "1").withAttr("b", "2").withText("t"))},
	}
	for _, c := range cases {
		if Equivalent(base(), c.other) {
			t.Errorf("%s: expected difference to be detected", c.name)
		}
	}
}

func TestEquivalent_DeepNesting(t *testing.T) {
	deep := func(text string) *testNode {
		return el("a", el("b", el("c", el("d").withText(text))))
	}
	if !Equivalent(deep("x"), deep("x")) {
		t.Fatal("expected identical deep trees to match")
	}
	if Equivalent(deep("x"), deep("y")) {
		t.Fatal("expected deep text difference to be detected")
	}
}
