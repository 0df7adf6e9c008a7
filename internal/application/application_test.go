package application

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/weblate-settings/internal/config"
	"github.com/eugenenazirov/weblate-settings/internal/env"
	"github.com/eugenenazirov/weblate-settings/internal/settings"
)

func testEnv() env.Map {
	return env.Map{
		"WEBLATE_ADMIN_NAME":         "Weblate Admin",
		"WEBLATE_ADMIN_EMAIL":        "admin@example.com",
		"POSTGRES_DATABASE":          "weblate",
		"POSTGRES_USER":              "weblate",
		"POSTGRES_PASSWORD":          "s3cret",
		"POSTGRES_HOST":              "database",
		"POSTGRES_PORT":              "5432",
		"WEBLATE_SERVER_EMAIL":       "server@example.com",
		"WEBLATE_DEFAULT_FROM_EMAIL": "noreply@example.com",
	}
}

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(t, ":8085")

	app, err := New(cfg, zaptest.NewLogger(t), WithSource(testEnv()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	snap, err := app.Storage().Current()
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if snap.Revision == "" || snap.Settings == nil {
		t.Fatalf("expected an initial snapshot, got %+v", snap)
	}
	if got := snap.Settings.Paths.DataDir; got != cfg.DataDir {
		t.Fatalf("expected data dir %s, got %s", cfg.DataDir, got)
	}
	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	if got := testutil.ToFloat64(app.metrics.Reloads.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected one successful reload, got %v", got)
	}
}

func TestNewFailsOnUnresolvableSettings(t *testing.T) {
	cfg := baseTestConfig(t, ":0")

	if _, err := New(cfg, zaptest.NewLogger(t), WithSource(env.Map{})); err == nil {
		t.Fatalf("expected error for missing required variables")
	}
}

func TestReloadAppliesOverrideAndKeepsPreviousOnFailure(t *testing.T) {
	cfg := baseTestConfig(t, ":0")
	app, err := New(cfg, zaptest.NewLogger(t), WithSource(testEnv()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	first, _ := app.Storage().Current()

	overridePath := filepath.Join(cfg.DataDir, "settings-override.yaml")
	if err := os.WriteFile(overridePath, []byte("site:\n  title: Overridden\n"), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}

	snap, err := app.Reload()
	if err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if snap.Revision == first.Revision {
		t.Fatalf("expected a new revision")
	}
	if snap.Override != overridePath || snap.Settings.Site.Title != "Overridden" {
		t.Fatalf("expected override to apply, got %q / %q", snap.Override, snap.Settings.Site.Title)
	}

	if err := os.WriteFile(overridePath, []byte("no_such_setting: 1\n"), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}
	if _, err := app.Reload(); err == nil {
		t.Fatalf("expected reload to fail on unknown override key")
	}

	current, _ := app.Storage().Current()
	if current.Revision != snap.Revision {
		t.Fatalf("failed reload must keep the previous snapshot")
	}
	if got := testutil.ToFloat64(app.metrics.Reloads.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected one failed reload, got %v", got)
	}
}

func TestEnvFileIsLayeredUnderProcessEnvironment(t *testing.T) {
	cfg := baseTestConfig(t, ":0")
	cfg.EnvFile = filepath.Join(cfg.DataDir, "weblate.env")

	var lines []string
	for k, v := range testEnv() {
		lines = append(lines, k+"=\""+v+"\"")
	}
	lines = append(lines, "WEBLATE_SITE_TITLE=From file")
	if err := os.WriteFile(cfg.EnvFile, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("WEBLATE_TIME_ZONE", "Europe/Prague")

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	snap, _ := app.Storage().Current()
	if snap.Settings.Site.Title != "From file" {
		t.Fatalf("expected title from env file, got %q", snap.Settings.Site.Title)
	}
	if snap.Settings.Locale.TimeZone != "Europe/Prague" {
		t.Fatalf("expected time zone from process env, got %q", snap.Settings.Locale.TimeZone)
	}

	if !slices.Contains(app.watchedNames(), "weblate.env") {
		t.Fatalf("env file inside the data dir must be watched: %v", app.watchedNames())
	}
}

func TestWatcher(t *testing.T) {
	cfg := baseTestConfig(t, ":0")
	cfg.Watch = false
	app, err := New(cfg, zaptest.NewLogger(t), WithSource(testEnv()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if app.Watcher() != nil {
		t.Fatalf("expected no watcher when disabled")
	}

	app.cfg.Watch = true
	w := app.Watcher()
	if w == nil || w.Dir != cfg.DataDir {
		t.Fatalf("unexpected watcher %+v", w)
	}
	for _, name := range []string{"secret", "settings-override.yaml", "settings-override.toml"} {
		if !slices.Contains(w.Names, name) {
			t.Fatalf("expected %s to be watched, got %v", name, w.Names)
		}
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig(t, "9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestServedRoutes(t *testing.T) {
	cfg := baseTestConfig(t, ":0")
	app, err := New(cfg, zaptest.NewLogger(t), WithSource(testEnv()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	handler := app.Server().Handler

	for _, target := range []string{"/", "/api/settings", "/api/variables", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", target, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "weblate_settings_reloads_total") {
		t.Fatalf("expected reload counter in metrics output")
	}
}

func baseTestConfig(t *testing.T, port string) config.Config {
	t.Helper()
	return config.Config{
		Port:                 port,
		DataDir:              t.TempDir(),
		BaseDir:              settings.DefaultBaseDir,
		CheckTimeout:         time.Second,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
		LogLevel:             "info",
		LogFormat:            "json",
	}
}
