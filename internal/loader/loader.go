// Package loader runs the full resolution pipeline: environment, override
// file, lint.
package loader

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/weblate-settings/internal/env"
	"github.com/eugenenazirov/weblate-settings/internal/override"
	"github.com/eugenenazirov/weblate-settings/internal/settings"
)

// Loader resolves settings from a source and applies the operator override.
type Loader struct {
	Source  env.Source
	Options settings.Options
	// OverridePath is an explicit override file. When empty the data
	// directory is searched with override.Find.
	OverridePath string
	Logger       *zap.Logger
}

// Result is one resolved generation of settings.
type Result struct {
	Settings   *settings.Settings
	Findings   []settings.Finding
	Override   string
	ResolvedAt time.Time
}

// Load resolves the environment, applies the override and lints the result.
func (l *Loader) Load() (Result, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	src := l.Source
	if src == nil {
		src = env.OS()
	}

	s, err := settings.Resolve(src, l.Options)
	if err != nil {
		return Result{}, err
	}

	path := l.OverridePath
	if path == "" {
		path = override.Find(s.Paths.DataDir)
	}
	applied, err := override.Apply(s, path)
	if err != nil {
		return Result{}, fmt.Errorf("apply override %s: %w", path, err)
	}
	if !applied {
		path = ""
	}

	res := Result{
		Settings:   s,
		Findings:   s.Lint(),
		Override:   path,
		ResolvedAt: time.Now().UTC(),
	}

	fields := []zap.Field{
		zap.String("secret_source", string(s.SecretSource)),
		zap.String("default_cache", s.DefaultCache().Backend),
		zap.Strings("auth_backends", s.Auth.Backends),
		zap.Int("findings", len(res.Findings)),
	}
	if applied {
		fields = append(fields, zap.String("override", path))
	}
	logger.Info("settings resolved", fields...)

	for _, f := range res.Findings {
		logFinding(logger, f)
	}
	return res, nil
}

func logFinding(logger *zap.Logger, f settings.Finding) {
	fields := []zap.Field{zap.String("setting", f.Setting)}
	if f.Severity == settings.SeverityWarning {
		logger.Warn(f.Message, fields...)
		return
	}
	logger.Info(f.Message, fields...)
}
