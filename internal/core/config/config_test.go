package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
[exclude]
dirs = [".git", "migrations"]
files = ["*_pb2.py"]

[python]
extensions = [".py", ".pyi"]

[scoring]
relative_bonus = 20
package_bonus = 0

[report]
format = "JSON"
top_n = 5
show_unresolved = true
color = "never"
diff = true

[analysis]
workers = 3
cache_size = -1

[apply]
workers = 2
max_writes_per_second = 50
verify_unchanged = false

[watch]
debounce = "1s"

[metrics]
textfile = "metrics.prom"

[tracing]
enabled = true
endpoint = "collector:4317"
insecure = true
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Exclude.Dirs) != 2 || cfg.Exclude.Dirs[1] != "migrations" {
		t.Errorf("unexpected exclude dirs: %v", cfg.Exclude.Dirs)
	}
	if len(cfg.Exclude.Files) != 1 || cfg.Exclude.Files[0] != "*_pb2.py" {
		t.Errorf("unexpected exclude files: %v", cfg.Exclude.Files)
	}
	if len(cfg.Python.Extensions) != 2 {
		t.Errorf("unexpected extensions: %v", cfg.Python.Extensions)
	}
	if *cfg.Scoring.RelativeBonus != 20 || *cfg.Scoring.PackageBonus != 0 || *cfg.Scoring.DepthPenalty != 1 {
		t.Errorf("unexpected scoring: %d %d %d",
			*cfg.Scoring.RelativeBonus, *cfg.Scoring.PackageBonus, *cfg.Scoring.DepthPenalty)
	}
	if cfg.Report.Format != "json" || cfg.Report.TopN != 5 || !cfg.Report.ShowUnresolved || !cfg.Report.Diff {
		t.Errorf("unexpected report section: %+v", cfg.Report)
	}
	if cfg.Report.Color != "never" {
		t.Errorf("expected color never, got %s", cfg.Report.Color)
	}
	if cfg.Analysis.CacheSize != -1 {
		t.Errorf("expected cache disabled, got %d", cfg.Analysis.CacheSize)
	}
	if cfg.Analysis.Workers != 3 || cfg.Apply.Workers != 2 || cfg.Apply.MaxWritesPerSecond != 50 {
		t.Errorf("unexpected worker settings: %+v %+v", cfg.Analysis, cfg.Apply)
	}
	if *cfg.Apply.VerifyUnchanged {
		t.Error("expected verify_unchanged false")
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
	if cfg.Metrics.Textfile != "metrics.prom" {
		t.Errorf("unexpected metrics textfile %q", cfg.Metrics.Textfile)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Endpoint != "collector:4317" || cfg.Tracing.ServiceName != "importfix" {
		t.Errorf("unexpected tracing: %+v", cfg.Tracing)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Exclude.Dirs) != len(DefaultExcludeDirs()) {
		t.Errorf("expected default exclude dirs, got %v", cfg.Exclude.Dirs)
	}
	if len(cfg.Python.Extensions) != 1 || cfg.Python.Extensions[0] != ".py" {
		t.Errorf("unexpected default extensions %v", cfg.Python.Extensions)
	}
	if *cfg.Scoring.RelativeBonus != 10 || *cfg.Scoring.PackageBonus != 5 || *cfg.Scoring.DepthPenalty != 1 {
		t.Error("unexpected default scoring weights")
	}
	if cfg.Report.Format != "text" || cfg.Report.TopN != 10 || cfg.Report.Color != "auto" {
		t.Errorf("unexpected report defaults: %+v", cfg.Report)
	}
	if cfg.Analysis.Workers != runtime.NumCPU() || cfg.Analysis.CacheSize != 2048 {
		t.Errorf("unexpected analysis defaults: %+v", cfg.Analysis)
	}
	if !*cfg.Apply.VerifyUnchanged {
		t.Error("verify_unchanged should default to true")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("unexpected debounce %v", cfg.Watch.Debounce)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing must be off by default")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"negative bonus", "[scoring]\npackage_bonus = -1\n", "scoring.package_bonus must be >= 0"},
		{"bad format", "[report]\nformat = \"xml\"\n", "report.format"},
		{"bad color", "[report]\ncolor = \"sometimes\"\n", "report.color"},
		{"negative top", "[report]\ntop_n = -2\n", "report.top_n"},
		{"bad glob", "[exclude]\ndirs = [\"[abc\"]\n", "exclude.dirs[0]"},
		{"empty extension", "[python]\nextensions = [\"\"]\n", "python.extensions[0]"},
		{"negative workers", "[analysis]\nworkers = -1\n", "analysis.workers"},
		{"negative rate", "[apply]\nmax_writes_per_second = -5.0\n", "apply.max_writes_per_second"},
		{"invalid toml", "[report\nformat = 1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
