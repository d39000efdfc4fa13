package devserver

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/relight-dev/relight/internal/config"
	"github.com/relight-dev/relight/internal/errors"
	"github.com/relight-dev/relight/internal/logging"
)

// Port range scanned when no explicit port is provided.
const (
	portRangeStart = 3000
	portRangeEnd   = 3100
)

// ManagerOptions configures the dev server manager.
type ManagerOptions struct {
	// Cache is the module cache to purge before each dispatch. A bounded
	// LRU cache is created when nil.
	Cache ModuleCache

	// Metrics, when set, is exposed at /_relight/metrics.
	Metrics *Metrics

	// ChannelPort is the broadcast channel port baked into the injected
	// live-reload client script.
	ChannelPort int
}

// Manager owns the locally bound dev server listener. Before dispatching
// any request it purges every cached module entry rooted under the server
// artifact path, so the next access re-loads the just-rebuilt bundle. The
// listener is reused across rebuilds; the process never restarts.
type Manager struct {
	cfg         *config.Config
	mode        config.Mode
	cache       ModuleCache
	loader      *AppLoader
	metrics     *Metrics
	channelPort int
	artifact    string
	log         zerolog.Logger
	tracer      trace.Tracer

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// NewManager creates a dev server manager. It fails fast, before any
// listener is opened, when the configuration names a custom server entry
// point: this manager only supports the built-in server.
func NewManager(cfg *config.Config, mode config.Mode, opts ManagerOptions) (*Manager, error) {
	if cfg.HasCustomServer() {
		return nil, errors.New("E301").WithDetail("server = " + cfg.Server)
	}

	cache := opts.Cache
	if cache == nil {
		cache = NewModuleCache()
	}

	return &Manager{
		cfg:         cfg,
		mode:        mode,
		cache:       cache,
		loader:      NewAppLoader(cache),
		metrics:     opts.Metrics,
		channelPort: opts.ChannelPort,
		artifact:    cfg.ServerBuildAbs(),
		log:         logging.Component("devserver"),
		tracer:      otel.Tracer(tracerName),
	}, nil
}

// Cache returns the module cache the manager purges.
func (m *Manager) Cache() ModuleCache {
	return m.cache
}

// Handler builds the request handler: purge middleware, metrics exposition,
// static assets, and the app dispatch catch-all.
func (m *Manager) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(m.purgeMiddleware)

	if m.metrics != nil {
		r.Get("/_relight/metrics", promhttp.HandlerFor(
			m.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP)
	}

	assetsDir := filepath.Join(m.cfg.OutputPath(), "assets")
	r.Handle("/assets/*", http.StripPrefix("/assets/",
		http.FileServer(http.Dir(assetsDir))))

	r.Handle("/*", http.HandlerFunc(m.serveApp))
	return r
}

// purgeMiddleware invalidates every module entry rooted under the artifact
// path. It runs unconditionally on every request, rebuild or not:
// staleness is worse than a redundant purge.
func (m *Manager) purgeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.cache.Invalidate(m.artifact)
		next.ServeHTTP(w, r)
	})
}

// serveApp loads the bundle and dispatches the request to its routes.
func (m *Manager) serveApp(w http.ResponseWriter, r *http.Request) {
	ctx, span := m.tracer.Start(r.Context(), "dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("http.path", r.URL.Path))
	r = r.WithContext(ctx)

	bundle, err := m.loader.Load(m.artifact)
	if err != nil {
		m.serveBuildPending(w)
		return
	}

	route, ok := bundle.Lookup(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	body := route.Body
	if m.mode == config.ModeDevelopment && strings.HasPrefix(route.ContentType, "text/html") {
		body = injectScript(body, ClientScript(m.channelPort))
	}

	w.Header().Set("Content-Type", route.ContentType)
	fmt.Fprint(w, body)
}

// serveBuildPending answers requests while no loadable bundle exists, e.g.
// after a failed initial build. The injected script reloads the page once
// a later rebuild succeeds.
func (m *Manager) serveBuildPending(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	script := ""
	if m.mode == config.ModeDevelopment {
		script = ClientScript(m.channelPort)
	}
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>relight</title></head>
<body style="font-family: system-ui; padding: 40px; background: #1a1a1a; color: #fff;">
<h1 style="color: #ff5555;">Application Not Built</h1>
<p>The server bundle is missing or the last build failed (check your terminal).</p>
<p style="color: #888;">The page will reload when the next build succeeds.</p>
%s
</body>
</html>`, script)
}

// Listen binds the dev server. An explicit PORT environment value wins;
// otherwise the first free port in the scan range is used. HOST overrides
// the bind host; a taken HOST:PORT combination is a fatal bind error.
func (m *Manager) Listen() (string, error) {
	host := os.Getenv("HOST")
	if host == "" {
		host = m.cfg.Dev.Host
	}

	if port := explicitPort(m.cfg); port > 0 {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			return "", errors.New("E300").
				WithDetail(fmt.Sprintf("port %d is not available", port)).
				Wrap(err)
		}
		return m.adopt(ln, host)
	}

	for port := portRangeStart; port <= portRangeEnd; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			continue
		}
		return m.adopt(ln, host)
	}

	return "", errors.New("E300").
		WithDetail(fmt.Sprintf("ports %d-%d are all taken", portRangeStart, portRangeEnd))
}

// explicitPort returns the pinned port from the environment or config.
func explicitPort(cfg *config.Config) int {
	if env := os.Getenv("PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil && port > 0 {
			return port
		}
	}
	return cfg.Dev.Port
}

// adopt installs the bound listener and logs the reachable URLs.
func (m *Manager) adopt(ln net.Listener, host string) (string, error) {
	m.mu.Lock()
	m.listener = ln
	m.server = &http.Server{Handler: m.Handler()}
	m.mu.Unlock()

	port := ln.Addr().(*net.TCPAddr).Port
	local := fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(port)))
	m.log.Info().Str("url", local).Msg("dev server listening")
	if lan := lanIP(); lan != "" {
		m.log.Info().
			Str("url", fmt.Sprintf("http://%s:%d", lan, port)).
			Msg("reachable on your network")
	}
	return local, nil
}

// Serve runs the HTTP server on the bound listener until Close.
func (m *Manager) Serve() {
	m.mu.Lock()
	server := m.server
	ln := m.listener
	m.mu.Unlock()
	if server == nil || ln == nil {
		return
	}
	go server.Serve(ln)
}

// Addr returns the bound address, or empty when not listening.
func (m *Manager) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Close shuts the listener down. Closing a manager that never opened its
// listener, e.g. because the initial build failed first, is a no-op.
func (m *Manager) Close() error {
	m.mu.Lock()
	server := m.server
	m.server = nil
	m.listener = nil
	m.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Close()
}

// lanIP returns a private IPv4 address of this host when one exists.
func lanIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	return ""
}
