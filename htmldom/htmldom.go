// Package htmldom parses HTML into the read-only tree the matcher consumes.
//
// The HTML5 parsing algorithm (golang.org/x/net/html) is total: any byte
// stream yields a tree, with the html/head/body skeleton inserted as
// needed, so Parse fails only when reading fails. Both sides of a
// comparison go through the same normalization, which is what makes
// comparing two DOM serializations of the same page meaningful.
//
// The same reduction rules as xmldom apply: comments and doctypes are
// dropped, whitespace-only text runs are dropped, and an element's text
// value is its first remaining text run, verbatim. Tag and attribute names
// come back lowercase from the parser; foreign content (svg, math) keeps
// its namespace joined to the name.
package htmldom

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domkey/match"
)

// Attr is one attribute as the parser reports it.
type Attr struct {
	name  string
	value string
}

// Name returns the qualified attribute name.
func (a Attr) Name() string { return a.name }

// Value returns the attribute value.
func (a Attr) Value() string { return a.value }

// Node is one element of a parsed page.
type Node struct {
	tag      string
	text     string
	attrs    []match.Attribute
	children []match.Node
}

// Tag returns the element name.
func (n *Node) Tag() string { return n.tag }

// Text returns the element's direct text value, empty when there is none.
func (n *Node) Text() string { return n.text }

// Attributes returns the element's attributes in parser order.
func (n *Node) Attributes() []match.Attribute { return n.attrs }

// Children returns the child elements in document order.
func (n *Node) Children() []match.Node { return n.children }

// Document owns one parsed page, rooted at the <html> element.
type Document struct {
	root *Node
}

// Root returns the <html> element.
func (d *Document) Root() match.Node { return d.root }

var (
	_ match.Document  = (*Document)(nil)
	_ match.Node      = (*Node)(nil)
	_ match.Attribute = Attr{}
)

// Parse parses an HTML page held in memory.
func Parse(data []byte) (*Document, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader parses an HTML page from r.
func ParseReader(r io.Reader) (*Document, error) {
	tree, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldom: %w", err)
	}

	// html.Parse guarantees an <html> element child on the document node.
	for c := tree.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return &Document{root: convert(c)}, nil
		}
	}
	return nil, fmt.Errorf("htmldom: no document element")
}

// Load reads and parses the HTML file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("htmldom: %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// convert reduces a parsed element to the matcher's view of it.
func convert(src *html.Node) *Node {
	n := &Node{tag: qualify(src.Namespace, src.Data)}
	if len(src.Attr) > 0 {
		n.attrs = make([]match.Attribute, 0, len(src.Attr))
		for _, a := range src.Attr {
			n.attrs = append(n.attrs, Attr{name: qualify(a.Namespace, a.Key), value: a.Val})
		}
	}
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			n.children = append(n.children, convert(c))
		case html.TextNode:
			if n.text == "" && !isSpace(c.Data) {
				n.text = c.Data
			}
		}
	}
	return n
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + " " + name
}

// isSpace reports whether the run is entirely markup whitespace.
func isSpace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f':
		default:
			return false
		}
	}
	return true
}
