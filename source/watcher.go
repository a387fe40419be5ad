package source

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kbukum/pipegraph/config"
	"github.com/kbukum/pipegraph/logger"
	"github.com/kbukum/pipegraph/observability"
	"github.com/kbukum/pipegraph/resilience"
	"github.com/kbukum/pipegraph/stream"
)

// WatcherConfig tunes a Watcher.
type WatcherConfig struct {
	// Debounce is the quiet period after the last file event before reloading.
	Debounce time.Duration
	// MaxAttempts bounds the reload attempts of one change.
	MaxAttempts int
	// RetryDelay is the initial delay between reload attempts.
	RetryDelay time.Duration
}

// WatcherConfigFrom converts the watch section of the configuration.
func WatcherConfigFrom(c config.WatchConfig) WatcherConfig {
	return WatcherConfig{Debounce: c.Debounce, MaxAttempts: c.MaxAttempts, RetryDelay: c.RetryDelay}
}

// Watcher reloads a snapshot file whenever it changes and hands every
// decoded snapshot to a callback. It implements component.Component.
type Watcher[T any] struct {
	path   string
	cfg    WatcherConfig
	onLoad func(context.Context, *T)
	log    *logger.Logger

	mu      sync.Mutex
	fw      *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
	loads   int
	lastErr error
}

type reload[T any] struct {
	value *T
	err   error
}

// NewWatcher creates a watcher for path.
func NewWatcher[T any](path string, cfg WatcherConfig, onLoad func(context.Context, *T)) *Watcher[T] {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 200 * time.Millisecond
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Watcher[T]{
		path:   filepath.Clean(path),
		cfg:    cfg,
		onLoad: onLoad,
		log:    logger.Get("watcher").WithFields(logger.Fields("path", path)),
	}
}

// Name returns the component name.
func (w *Watcher[T]) Name() string { return "watcher" }

// Reload loads the file, retrying decode failures of a file caught
// mid-write.
func (w *Watcher[T]) Reload(ctx context.Context) (*T, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanReload)
	defer span.End()

	rc := resilience.DefaultRetryConfig()
	if w.cfg.MaxAttempts > 0 {
		rc.MaxAttempts = w.cfg.MaxAttempts
	}
	if w.cfg.RetryDelay > 0 {
		rc.InitialBackoff = w.cfg.RetryDelay
	}
	rc.OnRetry = func(attempt int, err error, backoff time.Duration) {
		w.log.Debug("reload failed, retrying", logger.Fields("attempt", attempt, "backoff", backoff.String(), "error", err.Error()))
	}

	v, err := resilience.Retry(ctx, rc, func() (*T, error) {
		return LoadFile[T](w.path)
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return v, err
}

// Start begins watching. It does not block and does not load the file;
// call Reload for the initial snapshot.
func (w *Watcher[T]) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: editors replace files by renaming over them.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	w.mu.Lock()
	w.fw, w.cancel, w.done = fw, cancel, done
	w.mu.Unlock()

	go w.logErrors(fw.Errors)
	go func() {
		defer close(done)
		w.run(runCtx, fw.Events)
	}()

	w.log.Info("watching snapshot file")
	return nil
}

func (w *Watcher[T]) run(ctx context.Context, events <-chan fsnotify.Event) {
	changes := stream.Filter(stream.FromChan(events), func(e fsnotify.Event) bool {
		return filepath.Clean(e.Name) == w.path && e.Op.Has(fsnotify.Write|fsnotify.Create)
	})
	settled := stream.Tap(stream.Debounce(changes, w.cfg.Debounce), func(_ context.Context, e fsnotify.Event) error {
		w.log.Debug("snapshot changed", logger.Fields("path", e.Name, "op", e.Op.String()))
		return nil
	})
	loaded := stream.Map(settled, func(ctx context.Context, _ fsnotify.Event) (reload[T], error) {
		v, err := w.Reload(ctx)
		return reload[T]{value: v, err: err}, nil
	})

	err := stream.ForEach(ctx, loaded, func(ctx context.Context, r reload[T]) error {
		w.mu.Lock()
		w.lastErr = r.err
		if r.err == nil {
			w.loads++
		}
		w.mu.Unlock()

		if r.err != nil {
			w.log.Warn("snapshot reload failed, keeping previous snapshot", logger.ErrorFields("reload", r.err))
			return nil
		}
		w.onLoad(ctx, r.value)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		w.log.Error("watch loop stopped", logger.ErrorFields("watch", err))
	}
}

func (w *Watcher[T]) logErrors(errs <-chan error) {
	for err := range errs {
		w.log.Warn("file watch error", logger.ErrorFields("watch", err))
	}
}

// Stop ends the watch loop and waits for it to finish.
func (w *Watcher[T]) Stop(ctx context.Context) error {
	w.mu.Lock()
	fw, cancel, done := w.fw, w.cancel, w.done
	w.fw = nil
	w.mu.Unlock()
	if fw == nil {
		return nil
	}

	cancel()
	err := fw.Close()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// Health reports degraded after a failed reload.
func (w *Watcher[T]) Health(context.Context) observability.Health {
	w.mu.Lock()
	defer w.mu.Unlock()
	h := observability.Health{Name: w.Name(), Status: observability.HealthStatusUp}
	if w.fw == nil {
		h.Status = observability.HealthStatusDown
		h.Message = "not watching"
		return h
	}
	if w.lastErr != nil {
		h.Status = observability.HealthStatusDegraded
		h.Message = w.lastErr.Error()
	}
	return h
}

// Loads returns the number of snapshots delivered since Start.
func (w *Watcher[T]) Loads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loads
}
