package application

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/weblate-settings/internal/api"
	"github.com/eugenenazirov/weblate-settings/internal/config"
	"github.com/eugenenazirov/weblate-settings/internal/env"
	"github.com/eugenenazirov/weblate-settings/internal/loader"
	"github.com/eugenenazirov/weblate-settings/internal/metrics"
	"github.com/eugenenazirov/weblate-settings/internal/override"
	"github.com/eugenenazirov/weblate-settings/internal/probe"
	"github.com/eugenenazirov/weblate-settings/internal/storage"
	"github.com/eugenenazirov/weblate-settings/internal/watch"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	cfg     config.Config
	storage storage.Storage
	loader  loader.Loader
	metrics *metrics.Metrics
	checker *probe.Checker
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server

	// source overrides the process environment, for tests.
	source env.Source

	reloadMu sync.Mutex
}

// Option configures App construction.
type Option func(*App)

// WithSource resolves settings from src instead of the process environment
// and the configured env file.
func WithSource(src env.Source) Option {
	return func(a *App) {
		a.source = src
	}
}

// New initializes the application with all dependencies from the provided
// configuration. The first resolution happens here; a service that cannot
// resolve its settings does not start.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	a := &App{
		cfg:     cfg,
		storage: storage.NewMemoryStorage(),
		metrics: metrics.New(),
		logger:  logger,
		loader: loader.Loader{
			Options:      cfg.SettingsOptions(),
			OverridePath: cfg.OverrideFile,
			Logger:       logger,
		},
	}
	for _, opt := range opts {
		opt(a)
	}

	if _, err := a.Reload(); err != nil {
		return nil, fmt.Errorf("failed to resolve settings: %w", err)
	}

	a.checker = &probe.Checker{
		Timeout: cfg.CheckTimeout,
		Logger:  logger,
		Observe: a.metrics.ObserveProbe,
	}
	a.handler = api.NewHandler(a.storage,
		api.WithReloader(a),
		api.WithChecker(a.checker),
		api.WithOverrideHook(true),
	)
	a.router = api.NewRouter(a.handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithMetrics(a.metrics),
		api.WithAllowedOrigins(cfg.CORSAllowedOrigins...),
	)
	a.server = NewServer(cfg, BuildRootHandler(a.router))

	return a, nil
}

// Reload resolves settings again and stores them as the current snapshot.
// On failure the previous snapshot stays current.
func (a *App) Reload() (storage.Snapshot, error) {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	snap, err := a.resolve()
	if err != nil {
		a.metrics.ObserveReload(err, nil, time.Time{})
		return storage.Snapshot{}, err
	}
	a.metrics.ObserveReload(nil, snap.Findings, snap.ResolvedAt)
	a.logger.Info("settings stored", zap.String("revision", snap.Revision))
	return snap, nil
}

func (a *App) resolve() (storage.Snapshot, error) {
	src, err := a.envSource()
	if err != nil {
		return storage.Snapshot{}, err
	}

	l := a.loader
	l.Source = src
	res, err := l.Load()
	if err != nil {
		return storage.Snapshot{}, err
	}

	return a.storage.Store(storage.Snapshot{
		Settings:   res.Settings,
		Findings:   res.Findings,
		Override:   res.Override,
		ResolvedAt: res.ResolvedAt,
	})
}

func (a *App) envSource() (env.Source, error) {
	if a.source != nil {
		return a.source, nil
	}
	return EnvSource(a.cfg)
}

// EnvSource layers the configured env file under the process environment.
// The file is read on every call so reloads pick up edits.
func EnvSource(cfg config.Config) (env.Source, error) {
	if cfg.EnvFile == "" {
		return env.OS(), nil
	}
	file, err := env.LoadFile(cfg.EnvFile)
	if err != nil {
		return nil, err
	}
	return env.Chain(env.OS(), file), nil
}

// Resolve runs a single resolution for one-shot commands.
func Resolve(cfg config.Config, logger *zap.Logger) (loader.Result, error) {
	src, err := EnvSource(cfg)
	if err != nil {
		return loader.Result{}, err
	}
	l := loader.Loader{
		Source:       src,
		Options:      cfg.SettingsOptions(),
		OverridePath: cfg.OverrideFile,
		Logger:       logger,
	}
	return l.Load()
}

// Watcher returns a file watcher for the data directory, or nil when
// watching is disabled.
func (a *App) Watcher() *watch.Watcher {
	if !a.cfg.Watch {
		return nil
	}
	return &watch.Watcher{
		Dir:   a.cfg.DataDir,
		Names: a.watchedNames(),
		Reload: func() error {
			_, err := a.Reload()
			return err
		},
		Logger: a.logger,
	}
}

func (a *App) watchedNames() []string {
	secret := a.loader.Options.SecretFile
	if secret == "" {
		secret = "secret"
	}
	names := append([]string{filepath.Base(secret)}, override.Candidates...)
	for _, path := range []string{a.cfg.OverrideFile, a.cfg.EnvFile} {
		if path == "" || filepath.Dir(filepath.Clean(path)) != filepath.Clean(a.cfg.DataDir) {
			continue
		}
		if base := filepath.Base(path); !slices.Contains(names, base) {
			names = append(names, base)
		}
	}
	return names
}

// BuildRootHandler constructs the root HTTP handler: API and metrics traffic
// goes to apiHandler, the bare root lists the endpoints.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/metrics", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintln(w, "weblate-settings")
		for _, route := range routes {
			_, _ = fmt.Fprintln(w, route)
		}
	}))
	return mux
}

var routes = []string{
	"GET  /api/health",
	"GET  /api/settings",
	"GET  /api/settings/render?format=json|yaml|toml|python|env",
	"POST /api/settings/reload",
	"GET  /api/variables",
	"GET  /api/lint",
	"GET  /api/backends",
	"GET  /api/checks",
	"GET  /metrics",
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Storage exposes the snapshot store.
func (a *App) Storage() storage.Storage {
	return a.storage
}
