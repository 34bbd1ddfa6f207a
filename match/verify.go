package match

// Equivalent reports exact structural equivalence of two subtrees up to
// attribute order and sibling order, with no fingerprinting and so no
// collision risk. Quadratic over sibling groups in the worst case. Loosely
// consults it under WithVerification; tests use it as ground truth.
func Equivalent(a, b Node) bool {
	if a.Tag() != b.Tag() || a.Text() != b.Text() {
		return false
	}
	if !attributesEquivalent(a.Attributes(), b.Attributes()) {
		return false
	}
	return childrenEquivalent(a.Children(), b.Children())
}

// attributesEquivalent compares attribute multisets. Well-formed markup has
// unique names per element, but duplicates still compare correctly.
func attributesEquivalent(as, bs []Attribute) bool {
	if len(as) != len(bs) {
		return false
	}
	counts := make(map[[2]string]int, len(as))
	for _, a := range as {
		counts[[2]string{a.Name(), a.Value()}]++
	}
	for _, b := range bs {
		k := [2]string{b.Name(), b.Value()}
		counts[k]--
		if counts[k] < 0 {
			return false
		}
	}
	return true
}

// childrenEquivalent pairs children greedily. Equivalence is transitive, so
// greedy pairing is exact: when a child matches two candidates the
// candidates also match each other, and consuming either leaves the same
// residue.
func childrenEquivalent(as, bs []Node) bool {
	if len(as) != len(bs) {
		return false
	}
	used := make([]bool, len(bs))
outer:
	for _, a := range as {
		for i, b := range bs {
			if used[i] {
				continue
			}
			if Equivalent(a, b) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}
