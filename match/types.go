package match

// Attribute is one name/value pair exposed by a tree node.
type Attribute interface {
	Name() string
	Value() string
}

// Node is a read-only element of a markup tree. The matcher only ever
// traverses, never mutates, what a provider hands it. Providers
// guarantee the tree is acyclic; the matcher does not check.
type Node interface {
	// Tag is the element name.
	Tag() string
	// Text is the element's direct text value, empty when there is none.
	Text() string
	// Attributes returns the element's attributes in provider order.
	// That order never influences a fingerprint.
	Attributes() []Attribute
	// Children returns child elements in provider order. That order never
	// influences a fingerprint either.
	Children() []Node
}

// Document is a handle on one parsed tree.
type Document interface {
	Root() Node
}
