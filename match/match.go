// Package match decides structural equivalence of markup trees by
// fingerprint: two documents are judged equivalent when their trees fold to
// the same 64-bit key, ignoring attribute order and sibling order but
// sensitive to every tag, text value and attribute pair at every level.
//
// Equal keys mean "almost certainly equivalent", not "provably equivalent":
// two genuinely different trees can collide on a fixed-width key. Callers
// who cannot tolerate that residual probability build their Computer
// WithVerification, which re-checks equal keys by full structural
// comparison.
//
// Usage:
//
//	doc1, _ := xmldom.Load("a.xml")
//	doc2, _ := xmldom.Load("b.xml")
//	if match.Loosely(doc1, doc2) {
//		// same tags, text and attributes, any attribute/sibling order
//	}
//
// Everything here is a pure function of its inputs; a Computer is immutable
// after New and safe for concurrent use.
package match

import "github.com/hazyhaar/domkey/keys"

// Computer reduces nodes to keys. The zero-option Computer hashes text with
// keys.Maphash, so its keys are valid only within the current process.
type Computer struct {
	hash   keys.Hasher
	verify bool
}

// Option configures a Computer.
type Option func(*Computer)

// WithHasher selects the text-hash algorithm. Pick a stable hasher
// (keys.FNV, keys.Blake2b) when keys will be persisted.
func WithHasher(h keys.Hasher) Option {
	return func(c *Computer) { c.hash = h }
}

// WithVerification makes Loosely confirm equal keys by full structural
// comparison, removing the collision false-positive at O(n²) worst case.
func WithVerification() Option {
	return func(c *Computer) { c.verify = true }
}

// New builds a Computer.
func New(opts ...Option) *Computer {
	c := &Computer{hash: keys.Maphash()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AttributeKey mixes an attribute's name and value in role order: name and
// value play different parts, so a=1,b=2 and a=2,b=1 must not coincide.
func (c *Computer) AttributeKey(a Attribute) keys.Key {
	return keys.CombineUnique(c.hash(a.Name()), c.hash(a.Value()))
}

// AttributesKey folds a node's attribute set order-insensitively.
// No attributes yields the identity key.
func (c *Computer) AttributesKey(n Node) keys.Key {
	var acc keys.Key
	for _, a := range n.Attributes() {
		acc = keys.CombineLoose(acc, c.AttributeKey(a))
	}
	return acc
}

// NodeKey reduces a node and its whole subtree to one key. Four facets are
// mixed in role order (tag, direct text, attribute-set key, child-set key)
// while the two set facets are internally order-free. Recursion depth
// equals tree depth.
func (c *Computer) NodeKey(n Node) keys.Key {
	var children keys.Key
	for _, ch := range n.Children() {
		children = keys.CombineLoose(children, c.NodeKey(ch))
	}
	return keys.CombineUnique(
		c.hash(n.Tag()),
		c.hash(n.Text()),
		c.AttributesKey(n),
		children,
	)
}

// DocumentKey is NodeKey of the document root.
func (c *Computer) DocumentKey(d Document) keys.Key {
	return c.NodeKey(d.Root())
}

// Loosely reports whether two documents are structurally equivalent up to
// attribute order and sibling order.
func (c *Computer) Loosely(a, b Document) bool {
	if c.DocumentKey(a) != c.DocumentKey(b) {
		return false
	}
	if c.verify {
		return Equivalent(a.Root(), b.Root())
	}
	return true
}

var defaultComputer = New()

// Loosely matches two documents with the default Computer.
func Loosely(a, b Document) bool {
	return defaultComputer.Loosely(a, b)
}

// NodeKey computes a subtree key with the default Computer.
func NodeKey(n Node) keys.Key {
	return defaultComputer.NodeKey(n)
}

// DocumentKey computes a document key with the default Computer.
func DocumentKey(d Document) keys.Key {
	return defaultComputer.DocumentKey(d)
}

// Count returns the number of element nodes in the subtree rooted at n,
// including n itself.
func Count(n Node) int {
	total := 1
	for _, ch := range n.Children() {
		total += Count(ch)
	}
	return total
}
