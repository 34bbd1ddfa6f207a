// Package suite runs manifest-driven equivalence checks over pairs of
// markup files.
//
// A manifest is a YAML file listing cases, each naming two documents and
// whether they are expected to be structurally equivalent. File references
// are resolved relative to the manifest's directory and must stay inside
// it. Run evaluates every case and Report renders the classic console
// matrix:
//
//	[1.xml] == [2.xml] ---> PASSED
//	[3.xml] != [4.xml] ---> PASSED
package suite

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/domkey/htmldom"
	"github.com/hazyhaar/domkey/keys"
	"github.com/hazyhaar/domkey/match"
	"github.com/hazyhaar/domkey/safeio"
	"github.com/hazyhaar/domkey/xmldom"
)

// Case is one expected comparison between two documents.
type Case struct {
	// Name labels the case in errors and reports. Optional.
	Name string `yaml:"name"`
	// Left and Right are document paths relative to the manifest.
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
	// Equivalent is the expected verdict.
	Equivalent bool `yaml:"equivalent"`
}

// Manifest is a parsed suite definition.
type Manifest struct {
	// Format selects the parser for every case: "xml" (default) or "html".
	Format string `yaml:"format"`
	Cases  []Case `yaml:"cases"`

	dir string
}

// Load reads and validates the manifest at path. Document references are
// checked against the manifest's directory so a manifest cannot reach
// outside its own tree.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("suite: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("suite: parse %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)

	switch strings.ToLower(m.Format) {
	case "", "xml", "html":
	default:
		return nil, fmt.Errorf("suite: %s: unknown format %q", path, m.Format)
	}
	if len(m.Cases) == 0 {
		return nil, fmt.Errorf("suite: %s: no cases", path)
	}
	for i, c := range m.Cases {
		if c.Name != "" {
			if err := safeio.ValidateName(c.Name); err != nil {
				return nil, fmt.Errorf("suite: case %d: %w", i+1, err)
			}
		}
		for _, ref := range []string{c.Left, c.Right} {
			if ref == "" {
				return nil, fmt.Errorf("suite: case %d (%s): missing document path", i+1, c.label())
			}
			if _, err := safeio.SafePath(m.dir, ref); err != nil {
				return nil, fmt.Errorf("suite: case %d (%s): %q: %w", i+1, c.label(), ref, err)
			}
		}
	}
	return &m, nil
}

func (c Case) label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Left + " vs " + c.Right
}

// Result is the outcome of one case.
type Result struct {
	Case Case
	// LeftKey and RightKey are the computed document keys. Zero when the
	// case failed to load.
	LeftKey  keys.Key
	RightKey keys.Key
	// Equivalent is the matcher's verdict.
	Equivalent bool
	// Pass reports whether the verdict agreed with the expectation.
	Pass bool
	// Err is set when a document could not be loaded or parsed; Pass is
	// false in that case.
	Err error
}

// Option adjusts how Run evaluates a manifest.
type Option func(*runner)

// WithComputer substitutes the key computer used for every case.
func WithComputer(c *match.Computer) Option {
	return func(r *runner) { r.computer = c }
}

type runner struct {
	computer *match.Computer
}

// Run evaluates every case in the manifest. Per-case failures are reported
// in the result slice, not as an error.
func Run(m *Manifest, opts ...Option) []Result {
	r := runner{computer: match.New()}
	for _, opt := range opts {
		opt(&r)
	}

	load := xmlLoad
	if strings.EqualFold(m.Format, "html") {
		load = htmlLoad
	}

	results := make([]Result, 0, len(m.Cases))
	for _, c := range m.Cases {
		results = append(results, r.one(m.dir, c, load))
	}
	return results
}

func (r *runner) one(dir string, c Case, load func(string) (match.Document, error)) Result {
	res := Result{Case: c}

	left, err := loadSide(dir, c.Left, load)
	if err != nil {
		res.Err = err
		return res
	}
	right, err := loadSide(dir, c.Right, load)
	if err != nil {
		res.Err = err
		return res
	}

	res.LeftKey = r.computer.DocumentKey(left)
	res.RightKey = r.computer.DocumentKey(right)
	res.Equivalent = r.computer.Loosely(left, right)
	res.Pass = res.Equivalent == c.Equivalent
	return res
}

func loadSide(dir, ref string, load func(string) (match.Document, error)) (match.Document, error) {
	path, err := safeio.SafePath(dir, ref)
	if err != nil {
		return nil, err
	}
	return load(path)
}

func xmlLoad(path string) (match.Document, error)  { return xmldom.Load(path) }
func htmlLoad(path string) (match.Document, error) { return htmldom.Load(path) }

// Report writes one line per result to w and returns the pass/fail tally.
func Report(w io.Writer, results []Result) (passed, failed int) {
	for _, res := range results {
		op := "!="
		if res.Case.Equivalent {
			op = "=="
		}
		verdict := "PASSED"
		switch {
		case res.Err != nil:
			verdict = fmt.Sprintf("FAILED (%v)", res.Err)
		case !res.Pass:
			verdict = "FAILED"
		}
		fmt.Fprintf(w, "[%s] %s [%s] ---> %s\n", res.Case.Left, op, res.Case.Right, verdict)
		if res.Pass {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
