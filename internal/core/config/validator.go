package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

func validateExclude(cfg *Config) error {
	for i, pattern := range cfg.Exclude.Dirs {
		if err := validateGlob(fmt.Sprintf("exclude.dirs[%d]", i), pattern); err != nil {
			return err
		}
	}
	for i, pattern := range cfg.Exclude.Files {
		if err := validateGlob(fmt.Sprintf("exclude.files[%d]", i), pattern); err != nil {
			return err
		}
	}
	return nil
}

func validateGlob(ref, pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("%s must not be empty", ref)
	}
	if _, err := glob.Compile(pattern); err != nil {
		return fmt.Errorf("%s: invalid pattern %q: %w", ref, pattern, err)
	}
	return nil
}

func validatePython(cfg *Config) error {
	for i, ext := range cfg.Python.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" || ext == "." {
			return fmt.Errorf("python.extensions[%d] must not be empty", i)
		}
		if strings.ContainsAny(ext, "/\\*") {
			return fmt.Errorf("python.extensions[%d] must be a plain extension, got %q", i, ext)
		}
	}
	return nil
}

func validateScoring(cfg *Config) error {
	checks := []struct {
		name  string
		value *int
	}{
		{"scoring.relative_bonus", cfg.Scoring.RelativeBonus},
		{"scoring.package_bonus", cfg.Scoring.PackageBonus},
		{"scoring.depth_penalty", cfg.Scoring.DepthPenalty},
	}
	for _, c := range checks {
		if c.value != nil && *c.value < 0 {
			return fmt.Errorf("%s must be >= 0", c.name)
		}
	}
	return nil
}

func validateReport(cfg *Config) error {
	switch cfg.Report.Format {
	case "text", "json":
	default:
		return fmt.Errorf("report.format must be one of: text, json")
	}
	switch cfg.Report.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("report.color must be one of: auto, always, never")
	}
	if cfg.Report.TopN < 0 {
		return fmt.Errorf("report.top_n must be >= 0")
	}
	return nil
}

func validateWorkers(cfg *Config) error {
	if cfg.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be >= 1")
	}
	if cfg.Apply.Workers < 1 {
		return fmt.Errorf("apply.workers must be >= 1")
	}
	if cfg.Apply.MaxWritesPerSecond < 0 {
		return fmt.Errorf("apply.max_writes_per_second must be >= 0")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0")
	}
	return nil
}

func validateTracing(cfg *Config) error {
	if cfg.Tracing.Enabled && strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		return fmt.Errorf("tracing.endpoint must not be empty when tracing is enabled")
	}
	return nil
}
