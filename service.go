// Package domkey reduces markup documents to 64-bit structural
// fingerprints and decides equivalence from them: two documents match when
// their trees carry the same tags, text and attributes at every level,
// whatever order the attributes and siblings appear in.
//
// The building blocks live in subpackages (keys, match, xmldom, htmldom,
// suite, baseline); Service wires them into one unit behind a config:
//
//	svc, err := domkey.New(cfg, logger)
//	defer svc.Close()
//	res, err := svc.MatchFiles("a.xml", "b.xml")
//	svc.RegisterHTTP(router)
//	svc.RegisterMCP(mcpServer)
//
// Fingerprints computed by one Service are comparable to fingerprints
// computed by another only under a stable algorithm (keys.Stable); the
// service defaults to one so baselines can be recorded and re-checked
// across processes.
package domkey

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/domkey/baseline"
	"github.com/hazyhaar/domkey/dbopen"
	"github.com/hazyhaar/domkey/htmldom"
	"github.com/hazyhaar/domkey/keys"
	"github.com/hazyhaar/domkey/kit"
	"github.com/hazyhaar/domkey/match"
	"github.com/hazyhaar/domkey/safeio"
	"github.com/hazyhaar/domkey/suite"
	"github.com/hazyhaar/domkey/xmldom"
)

// Document formats accepted by the service.
const (
	FormatXML  = "xml"
	FormatHTML = "html"
)

// Service is the main domkey orchestrator.
type Service struct {
	computer  *match.Computer
	baselines *baseline.Store
	logger    *slog.Logger
	config    *Config
}

// New creates a Service instance. Opens the baseline SQLite database and
// builds the key computer from the configured algorithm.
func New(cfg *Config, logger *slog.Logger) (*Service, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	hash, err := keys.ByName(cfg.Algo)
	if err != nil {
		return nil, err
	}
	opts := []match.Option{match.WithHasher(hash)}
	if cfg.Verify {
		opts = append(opts, match.WithVerification())
	}

	var dbOpts []dbopen.Option
	if cfg.TraceSQL {
		dbOpts = append(dbOpts, dbopen.WithTrace())
	}
	store, err := baseline.Open(cfg.DBPath, dbOpts...)
	if err != nil {
		return nil, err
	}

	return &Service{
		computer:  match.New(opts...),
		baselines: store,
		logger:    logger,
		config:    cfg,
	}, nil
}

// Close shuts down the service and closes the database.
func (s *Service) Close() error {
	return s.baselines.Close()
}

// Computer returns the underlying key computer for direct use.
func (s *Service) Computer() *match.Computer {
	return s.computer
}

// Baselines returns the underlying baseline store for direct access
// (testing, admin).
func (s *Service) Baselines() *baseline.Store {
	return s.baselines
}

// KeyResult describes one fingerprinted document.
type KeyResult struct {
	Source string   `json:"source,omitempty"`
	Format string   `json:"format"`
	Algo   string   `json:"algo"`
	Key    keys.Key `json:"key"`
	Nodes  int      `json:"nodes"`
}

// MatchResult is the verdict on a document pair.
type MatchResult struct {
	Left       *KeyResult `json:"left"`
	Right      *KeyResult `json:"right"`
	Equivalent bool       `json:"equivalent"`
}

// DetectFormat picks a document format from the file extension. Anything
// that is not recognisably HTML is treated as XML.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatXML
	}
}

func parseDocument(data []byte, format string) (match.Document, error) {
	switch format {
	case FormatHTML:
		return htmldom.Parse(data)
	case FormatXML, "":
		return xmldom.Parse(data)
	default:
		return nil, fmt.Errorf("domkey: unknown format %q", format)
	}
}

func readDocument(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := safeio.LimitedReadAll(f, safeio.MaxDocumentBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

func (s *Service) keyDocument(doc match.Document, format string) *KeyResult {
	return &KeyResult{
		Format: format,
		Algo:   s.config.Algo,
		Key:    s.computer.DocumentKey(doc),
		Nodes:  match.Count(doc.Root()),
	}
}

// loadFile reads, parses and fingerprints one document, keeping the parsed
// tree so a caller can still run a structural comparison on it.
func (s *Service) loadFile(path string) (match.Document, *KeyResult, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, nil, err
	}
	format := DetectFormat(path)
	doc, err := parseDocument(data, format)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	res := s.keyDocument(doc, format)
	res.Source = path
	return doc, res, nil
}

// KeyBytes fingerprints a document held in memory. An empty format means
// XML.
func (s *Service) KeyBytes(data []byte, format string) (*KeyResult, error) {
	if format == "" {
		format = FormatXML
	}
	doc, err := parseDocument(data, format)
	if err != nil {
		return nil, err
	}
	return s.keyDocument(doc, format), nil
}

// KeyFile fingerprints the document at path, picking the parser from the
// file extension.
func (s *Service) KeyFile(path string) (*KeyResult, error) {
	_, res, err := s.loadFile(path)
	return res, err
}

// MatchBytes compares two documents held in memory, both in the same
// format.
func (s *Service) MatchBytes(left, right []byte, format string) (*MatchResult, error) {
	if format == "" {
		format = FormatXML
	}
	ldoc, err := parseDocument(left, format)
	if err != nil {
		return nil, fmt.Errorf("left document: %w", err)
	}
	rdoc, err := parseDocument(right, format)
	if err != nil {
		return nil, fmt.Errorf("right document: %w", err)
	}
	return &MatchResult{
		Left:       s.keyDocument(ldoc, format),
		Right:      s.keyDocument(rdoc, format),
		Equivalent: s.computer.Loosely(ldoc, rdoc),
	}, nil
}

// MatchFiles compares the two documents on disk, picking each parser from
// its file extension.
func (s *Service) MatchFiles(leftPath, rightPath string) (*MatchResult, error) {
	ldoc, lres, err := s.loadFile(leftPath)
	if err != nil {
		return nil, err
	}
	rdoc, rres, err := s.loadFile(rightPath)
	if err != nil {
		return nil, err
	}
	return &MatchResult{
		Left:       lres,
		Right:      rres,
		Equivalent: s.computer.Loosely(ldoc, rdoc),
	}, nil
}

// RunSuite evaluates the manifest at path with the service's computer.
func (s *Service) RunSuite(path string) ([]suite.Result, error) {
	m, err := suite.Load(path)
	if err != nil {
		return nil, err
	}
	return suite.Run(m, suite.WithComputer(s.computer)), nil
}

// RecordBaseline fingerprints the document at path and stores it under
// name. Re-recording an existing name overwrites the key but keeps the
// record's identity.
func (s *Service) RecordBaseline(ctx context.Context, name, path string) (*baseline.Baseline, error) {
	_, res, err := s.loadFile(path)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, name, res)
}

// RecordBaselineBytes stores a fingerprint computed from an in-memory
// document. Source is free-form provenance kept with the record.
func (s *Service) RecordBaselineBytes(ctx context.Context, name string, data []byte, format, source string) (*baseline.Baseline, error) {
	res, err := s.KeyBytes(data, format)
	if err != nil {
		return nil, err
	}
	res.Source = source
	return s.record(ctx, name, res)
}

func (s *Service) record(ctx context.Context, name string, res *KeyResult) (*baseline.Baseline, error) {
	b := &baseline.Baseline{
		Name:      name,
		Source:    res.Source,
		Format:    res.Format,
		Algo:      res.Algo,
		Key:       res.Key,
		NodeCount: res.Nodes,
	}
	if err := s.baselines.Record(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("baseline recorded",
		"name", name, "key", b.Key.String(), "nodes", b.NodeCount,
		"transport", kit.GetTransport(ctx))
	return b, nil
}

// VerifyBaseline re-fingerprints the document at path and checks it
// against the baseline recorded under name.
func (s *Service) VerifyBaseline(ctx context.Context, name, path string) (*baseline.Verification, error) {
	_, res, err := s.loadFile(path)
	if err != nil {
		return nil, err
	}
	return s.baselines.Verify(ctx, name, res.Algo, res.Key)
}

// VerifyBaselineBytes checks an in-memory document against the baseline
// recorded under name.
func (s *Service) VerifyBaselineBytes(ctx context.Context, name string, data []byte, format string) (*baseline.Verification, error) {
	res, err := s.KeyBytes(data, format)
	if err != nil {
		return nil, err
	}
	return s.baselines.Verify(ctx, name, res.Algo, res.Key)
}

// GetBaseline retrieves a recorded baseline by name.
func (s *Service) GetBaseline(ctx context.Context, name string) (*baseline.Baseline, error) {
	return s.baselines.Get(ctx, name)
}

// ListBaselines returns all recorded baselines ordered by name.
func (s *Service) ListBaselines(ctx context.Context) ([]*baseline.Baseline, error) {
	return s.baselines.List(ctx)
}

// DeleteBaseline removes a recorded baseline by name.
func (s *Service) DeleteBaseline(ctx context.Context, name string) error {
	if err := s.baselines.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info("baseline deleted", "name", name, "transport", kit.GetTransport(ctx))
	return nil
}
