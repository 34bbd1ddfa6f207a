package htmldom

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/domkey/match"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return doc
}

func TestParse_Skeleton(t *testing.T) {
	doc := mustParse(t, `<p>hi</p>`)

	root := doc.Root()
	if root.Tag() != "html" {
		t.Fatalf("root tag = %q, want html", root.Tag())
	}
	kids := root.Children()
	if len(kids) != 2 || kids[0].Tag() != "head" || kids[1].Tag() != "body" {
		t.Fatalf("unexpected skeleton under html: %d children", len(kids))
	}
	body := kids[1].Children()
	if len(body) != 1 || body[0].Tag() != "p" || body[0].Text() != "hi" {
		t.Fatalf("body content not preserved: %+v", body)
	}
}

func TestParse_SkeletonInsertionCancelsOut(t *testing.T) {
	// The parser inserts html/head/body on both sides, so a bare fragment
	// and the fully spelled out page reduce to the same tree.
	full := mustParse(t, `<html><head></head><body><p>hi</p></body></html>`)
	bare := mustParse(t, `<p>hi</p>`)

	if !match.Loosely(full, bare) {
		t.Fatal("explicit and implied skeletons should match")
	}
}

func TestParse_OrderInsensitive(t *testing.T) {
	a := mustParse(t, `<body><p id="x" class="c">one</p><p id="y">two</p></body>`)
	b := mustParse(t, `<body><p id="y">two</p><p class="c" id="x">one</p></body>`)

	if !match.Loosely(a, b) {
		t.Fatal("attribute and sibling reordering should not change the document key")
	}
}

func TestParse_TextIsFirstNonBlankRun(t *testing.T) {
	doc := mustParse(t, "<p>\n\t<b>x</b>hello</p>")

	p := doc.Root().Children()[1].Children()[0]
	if p.Tag() != "p" {
		t.Fatalf("tag = %q, want p", p.Tag())
	}
	if p.Text() != "hello" {
		t.Fatalf("text = %q, want %q", p.Text(), "hello")
	}
	if b := p.Children()[0]; b.Text() != "x" {
		t.Fatalf("nested text = %q, want %q", b.Text(), "x")
	}
}

func TestParse_CommentsAndDoctypeIgnored(t *testing.T) {
	plain := mustParse(t, `<p>hi</p>`)
	noisy := mustParse(t, "<!DOCTYPE html><!-- header --><p>hi<!-- inline --></p>")

	if !match.Loosely(plain, noisy) {
		t.Fatal("comments and doctype should not affect the document key")
	}
}

func TestParse_TagCaseFolded(t *testing.T) {
	upper := mustParse(t, `<DIV ID="a">x</DIV>`)
	lower := mustParse(t, `<div id="a">x</div>`)

	if !match.Loosely(upper, lower) {
		t.Fatal("tag and attribute case should be folded by the parser")
	}
}

func TestParse_ForeignContentKeepsNamespace(t *testing.T) {
	doc := mustParse(t, `<body><svg><circle r="1"></circle></svg></body>`)

	body := doc.Root().Children()[1]
	svg := body.Children()[0]
	if svg.Tag() != "svg svg" {
		t.Fatalf("svg tag = %q, want %q", svg.Tag(), "svg svg")
	}
	if c := svg.Children()[0]; c.Tag() != "svg circle" {
		t.Fatalf("circle tag = %q, want %q", c.Tag(), "svg circle")
	}
}

func TestParse_ContentChangesDetected(t *testing.T) {
	a := mustParse(t, `<p>hello</p>`)
	b := mustParse(t, `<p>goodbye</p>`)

	if match.Loosely(a, b) {
		t.Fatal("different text should produce different document keys")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte(`<p id="x">hi</p>`), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !match.Loosely(doc, mustParse(t, `<p id="x">hi</p>`)) {
		t.Fatal("loaded file should match the equivalent in-memory parse")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.html"))
	if err == nil {
		t.Fatal("want error for missing file")
	}
	if !strings.Contains(err.Error(), "absent.html") {
		t.Fatalf("error should name the file: %v", err)
	}
}
