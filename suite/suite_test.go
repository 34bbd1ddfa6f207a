package suite

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/domkey/keys"
	"github.com/hazyhaar/domkey/match"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "cases.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Format != "xml" {
		t.Fatalf("format = %q, want xml", m.Format)
	}
	if len(m.Cases) != 9 {
		t.Fatalf("cases = %d, want 9", len(m.Cases))
	}
	first := m.Cases[0]
	if first.Name != "attribute-order" || first.Left != "1.xml" || first.Right != "2.xml" || !first.Equivalent {
		t.Fatalf("unexpected first case: %+v", first)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantIn   string
	}{
		{"bad yaml", "cases: [", "parse"},
		{"no cases", "format: xml\ncases: []\n", "no cases"},
		{"unknown format", "format: sgml\ncases:\n  - {left: a.xml, right: b.xml}\n", "unknown format"},
		{"missing path", "cases:\n  - {left: a.xml, equivalent: true}\n", "missing document path"},
		{"traversal", "cases:\n  - {left: ../a.xml, right: b.xml}\n", "traversal"},
		{"bad name", "cases:\n  - {name: \"two words\", left: a.xml, right: b.xml}\n", "invalid character"},
	}
	for _, tt := range tests {
		_, err := Load(writeManifest(t, tt.manifest))
		if err == nil {
			t.Errorf("%s: want error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantIn) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.wantIn)
		}
	}
}

func TestLoad_MissingManifest(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("want error for missing manifest")
	}
}

func TestRun_Matrix(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "cases.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	results := Run(m, WithComputer(match.New(match.WithHasher(keys.FNV()))))
	if len(results) != len(m.Cases) {
		t.Fatalf("results = %d, want %d", len(results), len(m.Cases))
	}
	for _, res := range results {
		if res.Err != nil {
			t.Errorf("%s: %v", res.Case.label(), res.Err)
			continue
		}
		if !res.Pass {
			t.Errorf("%s: matcher said %v, manifest expects %v (keys %s / %s)",
				res.Case.label(), res.Equivalent, res.Case.Equivalent, res.LeftKey, res.RightKey)
		}
		if got := res.LeftKey == res.RightKey; got != res.Equivalent {
			t.Errorf("%s: verdict %v disagrees with key comparison", res.Case.label(), res.Equivalent)
		}
	}
}

func TestRun_MissingDocument(t *testing.T) {
	path := writeManifest(t, "cases:\n  - {left: ghost.xml, right: ghost.xml, equivalent: true}\n")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	results := Run(m)
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Err == nil || results[0].Pass {
		t.Fatalf("missing document should fail the case: %+v", results[0])
	}
}

func TestRun_HTMLFormat(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.html":     `<p id="x" class="c">hi</p>`,
		"b.html":     `<p class="c" id="x">hi</p>`,
		"cases.yaml": "format: html\ncases:\n  - {name: attr-order, left: a.html, right: b.html, equivalent: true}\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	m, err := Load(filepath.Join(dir, "cases.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	results := Run(m)
	if results[0].Err != nil || !results[0].Pass {
		t.Fatalf("html pair should pass: %+v", results[0])
	}
}

func TestReport(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "cases.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var buf bytes.Buffer
	passed, failed := Report(&buf, Run(m))
	if passed != 9 || failed != 0 {
		t.Fatalf("tally = %d/%d, want 9/0\n%s", passed, failed, buf.String())
	}
	out := buf.String()
	for _, line := range []string{
		"[1.xml] == [2.xml] ---> PASSED",
		"[3.xml] != [4.xml] ---> PASSED",
		"[17.xml] != [18.xml] ---> PASSED",
	} {
		if !strings.Contains(out, line) {
			t.Errorf("report missing line %q:\n%s", line, out)
		}
	}
}

func TestReport_Failure(t *testing.T) {
	var buf bytes.Buffer
	passed, failed := Report(&buf, []Result{
		{Case: Case{Left: "a.xml", Right: "b.xml", Equivalent: true}, Pass: false},
	})
	if passed != 0 || failed != 1 {
		t.Fatalf("tally = %d/%d, want 0/1", passed, failed)
	}
	if !strings.Contains(buf.String(), "[a.xml] == [b.xml] ---> FAILED") {
		t.Fatalf("unexpected report: %s", buf.String())
	}
}
