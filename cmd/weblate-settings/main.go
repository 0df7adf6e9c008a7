package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/weblate-settings/internal/application"
	"github.com/eugenenazirov/weblate-settings/internal/config"
	"github.com/eugenenazirov/weblate-settings/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "weblate-settings: %v\n", err)
		os.Exit(1)
	}
}

// cli holds every parsed flag. Empty strings and negative numbers mean the
// flag was not given and lower precedence sources apply.
type cli struct {
	configFile   string
	dataDir      string
	baseDir      string
	overrideFile string
	envFile      string
	logLevel     string
	logFormat    string

	port           string
	rateLimitRPS   float64
	rateLimitBurst int
	watch          bool
	watchSet       bool
	checkTimeout   time.Duration

	renderFormat    string
	variablesFormat string
	includeSecrets  bool
	overrideHook    bool
	output          string
	checkJSON       bool
	strict          bool
	force           bool
	printOnly       bool
}

func run(args []string, stdout io.Writer) error {
	var c cli

	app := kingpin.New("weblate-settings", "Resolves, renders and serves Weblate settings from the container environment")
	app.Flag("config", "Path to YAML configuration file").StringVar(&c.configFile)
	app.Flag("data-dir", "Weblate data directory").StringVar(&c.dataDir)
	app.Flag("base-dir", "Installation directory of the weblate package").StringVar(&c.baseDir)
	app.Flag("override", "Settings override file (yaml, json or toml)").StringVar(&c.overrideFile)
	app.Flag("env-file", "Dotenv file layered under the process environment").StringVar(&c.envFile)
	app.Flag("log-level", "Log level").StringVar(&c.logLevel)
	app.Flag("log-format", "Log format: json or console").StringVar(&c.logFormat)
	app.Flag("check-timeout", "Deadline for backend checks").DurationVar(&c.checkTimeout)

	serveCmd := app.Command("serve", "Serve resolved settings over HTTP").Default()
	serveCmd.Flag("port", "HTTP port exposed by the service").StringVar(&c.port)
	serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64Var(&c.rateLimitRPS)
	serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").IntVar(&c.rateLimitBurst)
	serveCmd.Flag("watch", "Reload when the secret or override files change").IsSetByUser(&c.watchSet).BoolVar(&c.watch)

	renderCmd := app.Command("render", "Print the resolved settings")
	renderCmd.Flag("format", "Output format: json, yaml, toml, python or env").Short('f').Default("python").StringVar(&c.renderFormat)
	renderCmd.Flag("include-secrets", "Do not redact credentials").BoolVar(&c.includeSecrets)
	renderCmd.Flag("override-hook", "Append the settings-override.py exec block to Python output").Default("true").BoolVar(&c.overrideHook)
	renderCmd.Flag("output", "Write to a file instead of stdout").Short('o').StringVar(&c.output)

	checkCmd := app.Command("check", "Check that the configured backends are reachable")
	checkCmd.Flag("json", "Print results as JSON").BoolVar(&c.checkJSON)

	variablesCmd := app.Command("variables", "List the recognised environment variables")
	variablesCmd.Flag("format", "Output format: text, json or yaml").Short('f').Default("text").EnumVar(&c.variablesFormat, "text", "json", "yaml")

	lintCmd := app.Command("lint", "Report settings that are likely mistakes")
	lintCmd.Flag("strict", "Fail when any warning is reported").BoolVar(&c.strict)

	secretCmd := app.Command("secret", "Manage the Django secret key")
	generateCmd := secretCmd.Command("generate", "Generate a secret key into the data directory")
	generateCmd.Flag("force", "Replace an existing key").BoolVar(&c.force)
	generateCmd.Flag("print", "Print a key without writing it").BoolVar(&c.printOnly)

	command, err := app.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.overrides())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case serveCmd.FullCommand():
		return serve(cfg, logger)
	case renderCmd.FullCommand():
		return renderSettings(cfg, logger, c, stdout)
	case checkCmd.FullCommand():
		return checkBackends(cfg, logger, c.checkJSON, stdout)
	case variablesCmd.FullCommand():
		return listVariables(c.variablesFormat, stdout)
	case lintCmd.FullCommand():
		return lintSettings(cfg, logger, c.strict, stdout)
	case generateCmd.FullCommand():
		return generateSecret(cfg, c.force, c.printOnly, stdout)
	}
	return fmt.Errorf("unknown command %q", command)
}

func (c cli) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile: c.configFile,
	}
	for _, f := range []struct {
		value string
		dst   **string
	}{
		{c.port, &overrides.Port},
		{c.dataDir, &overrides.DataDir},
		{c.baseDir, &overrides.BaseDir},
		{c.overrideFile, &overrides.OverrideFile},
		{c.envFile, &overrides.EnvFile},
		{c.logLevel, &overrides.LogLevel},
		{c.logFormat, &overrides.LogFormat},
	} {
		if f.value != "" {
			v := f.value
			*f.dst = &v
		}
	}

	if c.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = &c.rateLimitRPS
	}
	if c.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = &c.rateLimitBurst
	}
	if c.watchSet {
		overrides.Watch = &c.watch
	}
	if c.checkTimeout > 0 {
		overrides.CheckTimeout = &c.checkTimeout
	}
	return overrides
}

func serve(cfg config.Config, logger *zap.Logger) error {
	app, err := application.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if w := app.Watcher(); w != nil {
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Warn("settings watcher stopped", zap.Error(err))
			}
		}()
	}

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	return nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
