// Package xmldom parses XML into the read-only tree the matcher consumes.
//
// The tree keeps exactly what contributes to a structural fingerprint:
// element names, attributes, direct text and child elements. Comments,
// processing instructions and directives are not part of a document's
// structural identity and are dropped at parse time, as are the
// whitespace-only text runs that pretty-printing inserts between elements:
// reformatting a document must not change its key.
//
// An element's text value is its first non-whitespace character-data run,
// kept verbatim (CDATA counts as character data). Element and attribute
// names are namespace-resolved: the decoder's resolved namespace is joined
// to the local name, so two documents binding different prefixes to the
// same namespace agree on tag identity, while their differing xmlns
// attributes still tell them apart.
package xmldom

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hazyhaar/domkey/match"
)

// Attr is one attribute as written in the source.
type Attr struct {
	name  string
	value string
}

// Name returns the qualified attribute name.
func (a Attr) Name() string { return a.name }

// Value returns the attribute value.
func (a Attr) Value() string { return a.value }

// Node is one element of a parsed document.
type Node struct {
	tag      string
	text     string
	attrs    []match.Attribute
	children []match.Node
}

// Tag returns the qualified element name.
func (n *Node) Tag() string { return n.tag }

// Text returns the element's direct text value, empty when there is none.
func (n *Node) Text() string { return n.text }

// Attributes returns the element's attributes in source order.
func (n *Node) Attributes() []match.Attribute { return n.attrs }

// Children returns the child elements in source order.
func (n *Node) Children() []match.Node { return n.children }

// Document owns one parsed tree.
type Document struct {
	root *Node
}

// Root returns the document element.
func (d *Document) Root() match.Node { return d.root }

var (
	_ match.Document  = (*Document)(nil)
	_ match.Node      = (*Node)(nil)
	_ match.Attribute = Attr{}
)

// Parse parses a complete XML document held in memory.
func Parse(data []byte) (*Document, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader parses a complete XML document from r. The decoder runs in
// strict mode, so unbalanced or malformed markup is an error.
func ParseReader(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)

	var root *Node
	var stack []*Node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmldom: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{tag: qualify(t.Name)}
			if len(t.Attr) > 0 {
				n.attrs = make([]match.Attribute, 0, len(t.Attr))
				for _, a := range t.Attr {
					n.attrs = append(n.attrs, Attr{name: qualify(a.Name), value: a.Value})
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("xmldom: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue // prolog or epilog whitespace
			}
			cur := stack[len(stack)-1]
			if cur.text != "" {
				continue // only the first run counts
			}
			if !isSpace(t) {
				cur.text = string(t)
			}

		case xml.Comment, xml.ProcInst, xml.Directive:
			// Not part of the structural identity.
		}
	}

	if root == nil {
		return nil, errors.New("xmldom: no root element")
	}
	return &Document{root: root}, nil
}

// Load reads and parses the XML file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("xmldom: %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// qualify joins the decoder-resolved namespace to the local name. Unprefixed
// names pass through unchanged; xmlns declarations arrive here as ordinary
// attributes in the "xmlns" space.
func qualify(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + " " + n.Local
}

// isSpace reports whether the run is entirely XML whitespace.
func isSpace(data []byte) bool {
	for _, c := range data {
		switch c {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
