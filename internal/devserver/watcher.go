package devserver

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/relight-dev/relight/internal/compiler"
	"github.com/relight-dev/relight/internal/config"
	"github.com/relight-dev/relight/internal/errors"
	"github.com/relight-dev/relight/internal/logging"
)

const tracerName = "relight/devserver"

// BuildWatcher adapts the compiler's watch primitive into a stream of
// RebuildEvents consumed by independent subscribers. It times rebuild
// cycles and does not itself interpret build failures: a failing cycle is
// reported through the compiler's failure hook and leaves the perpetual
// watch loop running.
type BuildWatcher struct {
	subs   []Subscriber
	log    zerolog.Logger
	tracer trace.Tracer

	mu        sync.Mutex
	cycleFrom time.Time
	cycleSpan trace.Span

	initialCh chan struct{}
	stopFn    func() error
	stopOnce  sync.Once
	stopErr   error
}

// StartWatching starts the compiler in watch mode and returns the running
// watcher. Exactly one watcher is active per orchestration run.
func StartWatching(ctx context.Context, cfg *config.Config, mode config.Mode, subs ...Subscriber) (*BuildWatcher, error) {
	w := &BuildWatcher{
		subs:      subs,
		log:       logging.Component("watcher"),
		tracer:    otel.Tracer(tracerName),
		initialCh: make(chan struct{}),
	}

	stop, err := compiler.Watch(ctx, cfg, compiler.WatchOptions{
		Mode:            mode,
		OnInitialBuild:  func() { close(w.initialCh) },
		OnRebuildStart:  w.rebuildStart,
		OnRebuildFinish: w.rebuildFinish,
		OnFileCreated:   func(path string) { w.dispatch(RebuildEvent{Kind: FileCreated, Path: path}) },
		OnFileChanged:   func(path string) { w.dispatch(RebuildEvent{Kind: FileChanged, Path: path}) },
		OnFileDeleted:   func(path string) { w.dispatch(RebuildEvent{Kind: FileDeleted, Path: path}) },
		OnBuildFailure:  w.buildFailure,
	})
	if err != nil {
		return nil, err
	}
	w.stopFn = stop
	return w, nil
}

// InitialBuild returns a channel closed once the first build has completed,
// success or failure. Dependent startup (the dev server bind) blocks on it.
func (w *BuildWatcher) InitialBuild() <-chan struct{} {
	return w.initialCh
}

// Stop tears the watcher down. It is idempotent and waits for the
// underlying compiler, including any in-flight rebuild, to finish before
// returning, so callers can safely follow it with filesystem cleanup.
func (w *BuildWatcher) Stop() error {
	w.stopOnce.Do(func() {
		w.stopErr = w.stopFn()
	})
	return w.stopErr
}

func (w *BuildWatcher) rebuildStart() {
	w.mu.Lock()
	w.cycleFrom = time.Now()
	_, w.cycleSpan = w.tracer.Start(context.Background(), "rebuild")
	w.mu.Unlock()

	w.dispatch(RebuildEvent{Kind: RebuildStarted})
}

func (w *BuildWatcher) rebuildFinish(ok bool) {
	w.mu.Lock()
	elapsed := time.Since(w.cycleFrom)
	span := w.cycleSpan
	w.cycleSpan = nil
	w.mu.Unlock()

	if span != nil {
		span.SetAttributes(
			attribute.Bool("build.ok", ok),
			attribute.Int64("build.duration_ms", elapsed.Milliseconds()),
		)
		span.End()
	}

	w.dispatch(RebuildEvent{Kind: RebuildFinished, Duration: elapsed, OK: ok})
}

func (w *BuildWatcher) buildFailure(be *compiler.BuildError) {
	w.log.Error().Msg(errors.FormatError(be))
}

// dispatch fans one event out to every subscriber in order.
func (w *BuildWatcher) dispatch(ev RebuildEvent) {
	for _, sub := range w.subs {
		sub.OnRebuildEvent(ev)
	}
}

// NewLogSink returns a subscriber that writes the human-readable line for
// each event.
func NewLogSink(log zerolog.Logger) Subscriber {
	return SubscriberFunc(func(ev RebuildEvent) {
		log.Info().Msg(EventMessage(ev))
	})
}

// NewBroadcastSink returns a subscriber that turns rebuild events into
// channel publishes: one LOG per event, plus a RELOAD immediately after the
// LOG of a successful rebuild finish, so the channel's delay queue sees the
// pair in call order.
func NewBroadcastSink(b Broadcaster) Subscriber {
	return SubscriberFunc(func(ev RebuildEvent) {
		b.Publish(LogEvent(EventMessage(ev)))
		if ev.Kind == RebuildFinished && ev.OK {
			b.Publish(ReloadEvent())
		}
	})
}
