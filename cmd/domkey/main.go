// Command domkey fingerprints markup documents and decides structural
// equivalence: same tags, text and attributes at every level, in any
// attribute or sibling order.
//
// Usage:
//
//	domkey a.xml b.xml                  # compare two documents
//	domkey -key doc.xml                 # print one fingerprint
//	domkey -suite cases.yaml            # run a comparison manifest
//	domkey -record nightly doc.xml      # record a baseline
//	domkey -verify nightly doc.xml      # check a document against it
//	domkey -baselines                   # list recorded baselines
//	domkey -monitor a.xml b.xml         # re-compare whenever a file changes
//	domkey -serve :8080                 # REST API
//	domkey -mcp                         # MCP tools on stdio
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/domkey"
	"github.com/hazyhaar/domkey/kit"
	"github.com/hazyhaar/domkey/suite"
	_ "github.com/hazyhaar/domkey/trace" // "sqlite-trace" driver for -trace-sql
	"github.com/hazyhaar/domkey/watch"
)

type options struct {
	configPath string
	dbPath     string
	algo       string
	traceSQL   bool
	keyPath    string
	suitePath  string
	record     string
	verify     string
	deleteName string
	baselines  bool
	monitor    bool
	serveAddr  string
	mcpStdio   bool
	args       []string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to domkey.yaml config file")
	flag.StringVar(&opts.dbPath, "db", "", "path to the baseline SQLite database")
	flag.StringVar(&opts.algo, "algo", "", "hash algorithm: fnv, blake2b, maphash")
	flag.BoolVar(&opts.traceSQL, "trace-sql", false, "log every baseline database statement")
	flag.StringVar(&opts.keyPath, "key", "", "fingerprint one document and exit")
	flag.StringVar(&opts.suitePath, "suite", "", "run a comparison manifest and exit")
	flag.StringVar(&opts.record, "record", "", "record the document argument as a baseline under this name")
	flag.StringVar(&opts.verify, "verify", "", "verify the document argument against this baseline")
	flag.StringVar(&opts.deleteName, "delete", "", "delete the named baseline and exit")
	flag.BoolVar(&opts.baselines, "baselines", false, "list recorded baselines and exit")
	flag.BoolVar(&opts.monitor, "monitor", false, "watch the document arguments and report on change")
	flag.StringVar(&opts.serveAddr, "serve", "", "serve the HTTP API on this address (e.g. :8080)")
	flag.BoolVar(&opts.mcpStdio, "mcp", false, "serve MCP tools on stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()
	opts.args = flag.Args()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts); err != nil {
		logger.Error("domkey: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	svc, err := domkey.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer svc.Close()

	switch {
	// One-shot: fingerprint a single document.
	case opts.keyPath != "":
		res, err := svc.KeyFile(opts.keyPath)
		if err != nil {
			return err
		}
		return printJSON(res)

	// One-shot: run a manifest and render the console matrix.
	case opts.suitePath != "":
		results, err := svc.RunSuite(opts.suitePath)
		if err != nil {
			return err
		}
		passed, failed := suite.Report(os.Stdout, results)
		fmt.Printf("%d passed, %d failed\n", passed, failed)
		if failed > 0 {
			return fmt.Errorf("%d of %d cases failed", failed, passed+failed)
		}
		return nil

	// One-shot: record a baseline.
	case opts.record != "":
		if len(opts.args) != 1 {
			return errors.New("-record needs exactly one document argument")
		}
		b, err := svc.RecordBaseline(ctx, opts.record, opts.args[0])
		if err != nil {
			return err
		}
		return printJSON(b)

	// One-shot: verify against a baseline. Exits non-zero on mismatch so
	// CI pipelines can gate on it.
	case opts.verify != "":
		if len(opts.args) != 1 {
			return errors.New("-verify needs exactly one document argument")
		}
		v, err := svc.VerifyBaseline(ctx, opts.verify, opts.args[0])
		if err != nil {
			return err
		}
		if err := printJSON(v); err != nil {
			return err
		}
		if !v.Match {
			return fmt.Errorf("%s does not match baseline %s", opts.args[0], opts.verify)
		}
		return nil

	case opts.deleteName != "":
		if err := svc.DeleteBaseline(ctx, opts.deleteName); err != nil {
			return err
		}
		return printJSON(map[string]string{"status": "deleted", "name": opts.deleteName})

	case opts.baselines:
		list, err := svc.ListBaselines(ctx)
		if err != nil {
			return err
		}
		return printJSON(list)

	// Daemons.
	case opts.monitor:
		return runMonitor(ctx, logger, svc, cfg, opts.args)

	case opts.serveAddr != "":
		return runServe(ctx, logger, svc, opts.serveAddr)

	case opts.mcpStdio:
		return runMCP(ctx, logger, svc)

	// Default: compare two documents.
	case len(opts.args) == 2:
		res, err := svc.MatchFiles(opts.args[0], opts.args[1])
		if err != nil {
			return err
		}
		return printJSON(res)

	default:
		flag.Usage()
		return errors.New("no operation requested")
	}
}

func resolveConfig(opts options) (*domkey.Config, error) {
	cfg := &domkey.Config{}
	if opts.configPath != "" {
		var err error
		cfg, err = domkey.LoadConfigFile(opts.configPath)
		if err != nil {
			return nil, err
		}
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.algo != "" {
		cfg.Algo = opts.algo
	}
	if opts.traceSQL {
		cfg.TraceSQL = true
	}
	return cfg, nil
}

// runMonitor watches one document (report its key on change) or two
// (re-compare on change) until the context is cancelled.
func runMonitor(ctx context.Context, logger *slog.Logger, svc *domkey.Service, cfg *domkey.Config, paths []string) error {
	var action func() error
	switch len(paths) {
	case 1:
		path := paths[0]
		action = func() error {
			res, err := svc.KeyFile(path)
			if err != nil {
				return err
			}
			logger.Info("document changed", "path", path,
				"key", res.Key.String(), "nodes", res.Nodes)
			return nil
		}
	case 2:
		left, right := paths[0], paths[1]
		action = func() error {
			res, err := svc.MatchFiles(left, right)
			if err != nil {
				return err
			}
			logger.Info("pair changed", "left", left, "right", right,
				"equivalent", res.Equivalent,
				"left_key", res.Left.Key.String(), "right_key", res.Right.Key.String())
			return nil
		}
	default:
		return fmt.Errorf("-monitor takes one or two documents, got %d", len(paths))
	}

	// Report the starting state before settling into the poll loop.
	if err := action(); err != nil {
		return err
	}

	w := watch.New(watch.FilesStamp(paths...), watch.Options{
		Interval: cfg.Monitor.Interval,
		Debounce: cfg.Monitor.Debounce,
		Logger:   logger,
	})
	w.OnChange(ctx, action)
	return nil
}

func runServe(ctx context.Context, logger *slog.Logger, svc *domkey.Service, addr string) error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(kit.HTTPContext)
	svc.RegisterHTTP(r)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("domkey: http listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("domkey: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCP(ctx context.Context, logger *slog.Logger, svc *domkey.Service) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "domkey", Version: "1.0.0"}, nil)
	svc.RegisterMCP(srv)
	logger.Info("domkey: mcp serving on stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
