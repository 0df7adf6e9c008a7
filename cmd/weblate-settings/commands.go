package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/weblate-settings/internal/application"
	"github.com/eugenenazirov/weblate-settings/internal/config"
	"github.com/eugenenazirov/weblate-settings/internal/probe"
	"github.com/eugenenazirov/weblate-settings/internal/render"
	"github.com/eugenenazirov/weblate-settings/internal/settings"
)

func renderSettings(cfg config.Config, logger *zap.Logger, c cli, stdout io.Writer) error {
	format, err := render.ParseFormat(c.renderFormat)
	if err != nil {
		return err
	}

	res, err := application.Resolve(cfg, logger)
	if err != nil {
		return err
	}

	opts := render.Options{
		IncludeSecrets: c.includeSecrets,
		OverrideHook:   c.overrideHook,
	}
	if c.output == "" {
		return render.Render(stdout, res.Settings, format, opts)
	}
	return writeFileAtomic(c.output, func(w io.Writer) error {
		return render.Render(w, res.Settings, format, opts)
	})
}

// writeFileAtomic writes through a temporary file in the target directory
// and renames it into place, so a failed write leaves the old file intact.
func writeFileAtomic(path string, write func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err := write(f); err != nil {
		return err
	}
	if err := f.Chmod(0o600); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

func checkBackends(cfg config.Config, logger *zap.Logger, asJSON bool, stdout io.Writer) error {
	res, err := application.Resolve(cfg, logger)
	if err != nil {
		return err
	}

	checker := &probe.Checker{Timeout: cfg.CheckTimeout, Logger: logger}
	results := checker.Run(context.Background(), probe.FromSettings(res.Settings))

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "BACKEND\tTARGET\tSTATUS\tLATENCY")
		for _, r := range results {
			status := "ok"
			if !r.Healthy {
				status = "FAIL: " + r.Error
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.1fms\n", r.Name, r.Target, status, r.LatencyMS)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	return probe.Summary(results)
}

func listVariables(format string, stdout io.Writer) error {
	vars := settings.Variables()

	switch format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(vars)
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(vars)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tNAME\tDEFAULT\tFLAGS\tDESCRIPTION")
	for _, v := range vars {
		flags := ""
		if v.Required {
			flags += "required "
		}
		if v.Secret {
			flags += "secret"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.Group, v.Name, v.Default, flags, v.Description)
	}
	return tw.Flush()
}

func lintSettings(cfg config.Config, logger *zap.Logger, strict bool, stdout io.Writer) error {
	// Findings are printed here, the loader would log them a second time.
	res, err := application.Resolve(cfg, logger.WithOptions(zap.IncreaseLevel(zap.ErrorLevel)))
	if err != nil {
		return err
	}

	warnings := 0
	for _, f := range res.Findings {
		if f.Severity == settings.SeverityWarning {
			warnings++
		}
		fmt.Fprintf(stdout, "%-7s %s: %s\n", f.Severity, f.Setting, f.Message)
	}
	if len(res.Findings) == 0 {
		fmt.Fprintln(stdout, "no findings")
	}

	if strict && warnings > 0 {
		return fmt.Errorf("%d warning(s) reported", warnings)
	}
	return nil
}

func generateSecret(cfg config.Config, force, printOnly bool, stdout io.Writer) error {
	if printOnly {
		key, err := settings.GenerateSecretKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, key)
		return nil
	}

	path := filepath.Join(cfg.DataDir, "secret")
	if _, err := settings.WriteSecretKey(path, force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "secret key written to %s\n", path)
	return nil
}
