// Package watch provides a generic "poll, detect change, debounce, reload"
// loop over files on disk. Monitor mode uses it to re-key a document
// whenever the file is rewritten, with a debounce window absorbing editors
// and generators that save in bursts.
//
// Typical usage:
//
//	w := watch.New(watch.FileStamp("page.xml"), watch.Options{Interval: 200*time.Millisecond, Debounce: 500*time.Millisecond})
//	go w.OnChange(ctx, func() error { return rekey() })
package watch

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// ChangeDetector reads a stamp token from the watched source. Two calls
// that return different values mean "something changed". Tokens must be
// non-negative; -1 is reserved by the loop.
type ChangeDetector func(ctx context.Context) (int64, error)

// Options tunes the watcher behaviour.
type Options struct {
	// Interval is the polling frequency. Default: 1s.
	Interval time.Duration
	// Debounce is the quiet period after a change is detected before the
	// action fires. If more changes arrive during the window the timer
	// resets. 0 means fire immediately. Default: 0.
	Debounce time.Duration
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Watcher polls a source for changes and runs an action when a change is
// detected. It is safe for concurrent use.
type Watcher struct {
	detector ChangeDetector
	opts     Options

	// stamp is the last successfully processed token.
	stamp atomic.Int64

	// mu + cond broadcast when a reload completes, enabling WaitForReload.
	mu   sync.Mutex
	cond *sync.Cond

	// Counters for observability (exported via Stats).
	checks   atomic.Int64
	changes  atomic.Int64
	errors   atomic.Int64
	reloads  atomic.Int64
	reloadNs atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Checks          int64         `json:"checks"`
	ChangesDetected int64         `json:"changes_detected"`
	Errors          int64         `json:"errors"`
	Reloads         int64         `json:"reloads"`
	AvgReloadTime   time.Duration `json:"avg_reload_time"`
}

// New creates a Watcher over detector. Call OnChange to start the loop.
func New(detector ChangeDetector, opts Options) *Watcher {
	opts.defaults()
	w := &Watcher{detector: detector, opts: opts}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Stats returns the current counters.
func (w *Watcher) Stats() Stats {
	s := Stats{
		Checks:          w.checks.Load(),
		ChangesDetected: w.changes.Load(),
		Errors:          w.errors.Load(),
		Reloads:         w.reloads.Load(),
	}
	if s.Reloads > 0 {
		s.AvgReloadTime = time.Duration(w.reloadNs.Load() / s.Reloads)
	}
	return s
}

// Stamp returns the last successfully processed token.
func (w *Watcher) Stamp() int64 { return w.stamp.Load() }

// OnChange blocks until ctx is cancelled, polling at opts.Interval.
// When the detector reports a stamp change and the debounce window passes
// without further changes, action is called.
//
// If action returns an error the stamp is NOT advanced; the action will
// be retried on the next poll cycle.
func (w *Watcher) OnChange(ctx context.Context, action func() error) {
	log := w.opts.Logger

	// Seed initial stamp.
	v, err := w.detector(ctx)
	if err != nil {
		log.Warn("watch: initial stamp check failed", "error", err)
	} else {
		w.stamp.Store(v)
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	pendingStamp := int64(-1)

	log.Info("watch: started", "interval", w.opts.Interval, "debounce", w.opts.Debounce)

	for {
		select {
		case <-ctx.Done():
			log.Info("watch: stopped")
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case <-ticker.C:
			w.checks.Add(1)
			cur, err := w.detector(ctx)
			if err != nil {
				w.errors.Add(1)
				log.Warn("watch: stamp check failed", "error", err)
				continue
			}
			if cur != w.stamp.Load() && cur != pendingStamp {
				w.changes.Add(1)
				pendingStamp = cur

				if w.opts.Debounce <= 0 {
					// No debounce: fire immediately.
					w.fire(log, action, pendingStamp)
					pendingStamp = -1
				} else {
					// (Re)start the debounce timer only when the pending
					// stamp actually changed, not on every poll cycle.
					if debounceTimer != nil {
						debounceTimer.Stop()
					}
					debounceTimer = time.NewTimer(w.opts.Debounce)
					debounceCh = debounceTimer.C
					log.Debug("watch: change detected, debouncing", "pending_stamp", cur)
				}
			}

		case <-debounceCh:
			debounceCh = nil
			if pendingStamp >= 0 {
				w.fire(log, action, pendingStamp)
				pendingStamp = -1
			}
		}
	}
}

// WaitForReload blocks until the watcher has completed (action returned
// nil) at least target reloads, or ctx expires.
func (w *Watcher) WaitForReload(ctx context.Context, target int64) error {
	// Fast path.
	if w.reloads.Load() >= target {
		return nil
	}

	done := ctx.Done()
	w.mu.Lock()
	defer w.mu.Unlock()

	for w.reloads.Load() < target {
		// Interruptible wait: spawn a goroutine that wakes the cond on
		// context cancellation so we can observe both.
		ch := make(chan struct{})
		go func() {
			select {
			case <-done:
				w.cond.Broadcast()
			case <-ch:
			}
		}()

		w.cond.Wait()
		close(ch)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (w *Watcher) fire(log *slog.Logger, action func() error, stamp int64) {
	log.Info("watch: reloading", "old_stamp", w.stamp.Load(), "new_stamp", stamp)
	start := time.Now()
	if err := action(); err != nil {
		w.errors.Add(1)
		log.Error("watch: reload failed", "error", err, "stamp", stamp)
		return
	}
	elapsed := time.Since(start)
	w.reloadNs.Add(int64(elapsed))
	w.stamp.Store(stamp)
	w.reloads.Add(1)
	w.cond.Broadcast()
	log.Info("watch: reload complete", "stamp", stamp, "duration", elapsed)
}

// ---------- Built-in detectors ----------

// FileStamp returns a ChangeDetector that stats path and folds modification
// time and size into one token. The fold of two non-negative values stays
// non-negative.
func FileStamp(path string) ChangeDetector {
	return func(ctx context.Context) (int64, error) {
		fi, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		return fi.ModTime().UnixNano() ^ fi.Size(), nil
	}
}

// FilesStamp folds the stamps of several files into one token, so a single
// watcher can cover both sides of a comparison.
func FilesStamp(paths ...string) ChangeDetector {
	return func(ctx context.Context) (int64, error) {
		var acc int64
		for _, p := range paths {
			fi, err := os.Stat(p)
			if err != nil {
				return 0, err
			}
			acc ^= fi.ModTime().UnixNano() ^ fi.Size()
		}
		return acc, nil
	}
}
