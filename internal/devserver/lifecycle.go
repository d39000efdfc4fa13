package devserver

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/relight-dev/relight/internal/config"
	"github.com/relight-dev/relight/internal/errors"
	"github.com/relight-dev/relight/internal/logging"
)

// State is the lifecycle controller's current phase.
type State int32

const (
	StateIdle State = iota
	StateWatching
	StateReady
	StateRebuilding
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWatching:
		return "watching"
	case StateReady:
		return "ready"
	case StateRebuilding:
		return "rebuilding"
	case StateShuttingDown:
		return "shutting-down"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// ControllerOptions configures an orchestration run.
type ControllerOptions struct {
	// Mode selects compiler behavior and whether the dev server starts.
	Mode config.Mode

	// Subscribers are additional rebuild event consumers.
	Subscribers []Subscriber
}

// Controller composes the broadcast channel, the build watcher, and the
// dev server manager into one orchestration run: start the watcher, start
// the server once the first build completes, and on cancellation run the
// shutdown sequence exactly once.
type Controller struct {
	cfg     *config.Config
	opts    ControllerOptions
	log     zerolog.Logger
	metrics *Metrics

	state atomic.Int32

	channel *Channel
	watcher *BuildWatcher
	manager *Manager

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewController creates a lifecycle controller for one run.
func NewController(cfg *config.Config, opts ControllerOptions) *Controller {
	if opts.Mode == "" {
		opts.Mode = config.ModeDevelopment
	}
	return &Controller{
		cfg:     cfg,
		opts:    opts,
		log:     logging.Component("lifecycle"),
		metrics: NewMetrics(),
	}
}

// State returns the controller's current phase.
func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) setState(s State) {
	c.state.Store(int32(s))
}

// Run drives one orchestration run until ctx is cancelled. Fatal startup
// errors return immediately with nothing left bound; cancellation runs the
// ordered shutdown sequence and returns nil.
func (c *Controller) Run(ctx context.Context) error {
	serving := c.opts.Mode == config.ModeDevelopment

	// The built-in server cannot delegate to a custom entry point. This
	// fails before any port is bound, channel included.
	if serving && c.cfg.HasCustomServer() {
		return errors.New("E301").WithDetail("server = " + c.cfg.Server)
	}

	// The output directory is emptied exactly once before a build begins.
	if err := emptyDir(c.cfg.OutputPath()); err != nil {
		return errors.New("E202").Wrap(err)
	}

	c.channel = NewChannel(c.cfg.BroadcastDelay())
	c.channel.OnClientCountChange = func(n int) {
		c.metrics.ConnectedClients.Set(float64(n))
	}
	if err := c.channel.Open(c.cfg.DevChannelPort); err != nil {
		return errors.New("E303").Wrap(err)
	}

	subs := []Subscriber{
		NewLogSink(c.log),
		NewBroadcastSink(c.channel),
		c.metrics.Sink(),
		c.stateSink(),
	}
	subs = append(subs, c.opts.Subscribers...)

	watcher, err := StartWatching(ctx, c.cfg, c.opts.Mode, subs...)
	if err != nil {
		c.channel.Close()
		return err
	}
	c.watcher = watcher
	c.setState(StateWatching)

	select {
	case <-watcher.InitialBuild():
	case <-ctx.Done():
		return c.shutdown()
	}
	c.setState(StateReady)

	// The dev server binds only after the first build has completed, and
	// only in a serving configuration.
	if serving {
		manager, err := NewManager(c.cfg, c.opts.Mode, ManagerOptions{
			Metrics:     c.metrics,
			ChannelPort: c.cfg.DevChannelPort,
		})
		if err == nil {
			_, err = manager.Listen()
		}
		if err != nil {
			c.shutdown()
			return err
		}
		c.manager = manager
		manager.Serve()
	}

	<-ctx.Done()
	return c.shutdown()
}

// shutdown runs the ordered teardown exactly once; a second trigger while
// it is in progress is a no-op.
func (c *Controller) shutdown() error {
	c.shutdownOnce.Do(func() {
		c.setState(StateShuttingDown)

		// The channel closes first so no client is notified about the
		// artifact removal below.
		if c.channel != nil {
			c.channel.Close()
		}

		// The watcher stops before filesystem cleanup: an in-flight
		// rebuild's write must not race the cleanup's delete.
		if c.watcher != nil {
			c.shutdownErr = c.watcher.Stop()
		}

		// The server handle may be absent when startup never got there.
		if c.manager != nil {
			c.manager.Close()
		}

		// The artifact is removed only after watcher and server stopped.
		if err := emptyDir(c.cfg.OutputPath()); err != nil && c.shutdownErr == nil {
			c.shutdownErr = err
		}
		if err := os.Remove(c.cfg.ServerBuildAbs()); err != nil && !os.IsNotExist(err) && c.shutdownErr == nil {
			c.shutdownErr = err
		}

		c.setState(StateStopped)
		c.log.Info().Msg("stopped")
	})
	return c.shutdownErr
}

// stateSink tracks the Ready ⇄ Rebuilding transition from the event
// stream; the controller does not otherwise follow rebuild cycles.
func (c *Controller) stateSink() Subscriber {
	return SubscriberFunc(func(ev RebuildEvent) {
		switch ev.Kind {
		case RebuildStarted:
			c.state.CompareAndSwap(int32(StateReady), int32(StateRebuilding))
		case RebuildFinished:
			c.state.CompareAndSwap(int32(StateRebuilding), int32(StateReady))
		}
	})
}

// emptyDir removes the directory's contents, leaving the directory.
func emptyDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
