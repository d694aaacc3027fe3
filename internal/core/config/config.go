package config

import (
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFileName is looked up in the project root when no --config is given.
const DefaultFileName = "importfix.toml"

type Config struct {
	Exclude  Exclude  `toml:"exclude"`
	Python   Python   `toml:"python"`
	Scoring  Scoring  `toml:"scoring"`
	Report   Report   `toml:"report"`
	Analysis Analysis `toml:"analysis"`
	Apply    Apply    `toml:"apply"`
	Watch    Watch    `toml:"watch"`
	Metrics  Metrics  `toml:"metrics"`
	Tracing  Tracing  `toml:"tracing"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`  // glob patterns matched against directory base names
	Files []string `toml:"files"` // glob patterns matched against file base names
}

type Python struct {
	Extensions []string `toml:"extensions"`
}

type Scoring struct {
	RelativeBonus *int `toml:"relative_bonus"`
	PackageBonus  *int `toml:"package_bonus"`
	DepthPenalty  *int `toml:"depth_penalty"`
}

type Report struct {
	Format         string `toml:"format"`
	TopN           int    `toml:"top_n"`
	ShowUnresolved bool   `toml:"show_unresolved"`
	Color          string `toml:"color"`
	Diff           bool   `toml:"diff"`
}

type Analysis struct {
	Workers int `toml:"workers"`
	// CacheSize bounds the parsed files kept between analyses of the same
	// project. Negative disables the cache.
	CacheSize int `toml:"cache_size"`
}

type Apply struct {
	Workers            int     `toml:"workers"`
	MaxWritesPerSecond float64 `toml:"max_writes_per_second"`
	VerifyUnchanged    *bool   `toml:"verify_unchanged"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Metrics struct {
	Textfile string `toml:"textfile"`
}

type Tracing struct {
	Enabled     bool   `toml:"enabled"`
	Endpoint    string `toml:"endpoint"`
	Insecure    bool   `toml:"insecure"`
	ServiceName string `toml:"service_name"`
}

func DefaultExcludeDirs() []string {
	return []string{
		"__pycache__", ".git", ".venv", "venv", "env", "node_modules",
		".pytest_cache", "build", "dist", ".tox", "htmlcov", ".mypy_cache",
	}
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Validate(cfg *Config) error {
	if err := validateExclude(cfg); err != nil {
		return err
	}
	if err := validatePython(cfg); err != nil {
		return err
	}
	if err := validateScoring(cfg); err != nil {
		return err
	}
	if err := validateReport(cfg); err != nil {
		return err
	}
	if err := validateWorkers(cfg); err != nil {
		return err
	}
	if err := validateWatch(cfg); err != nil {
		return err
	}
	if err := validateTracing(cfg); err != nil {
		return err
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = DefaultExcludeDirs()
	}
	if len(cfg.Python.Extensions) == 0 {
		cfg.Python.Extensions = []string{".py"}
	}

	if cfg.Scoring.RelativeBonus == nil {
		cfg.Scoring.RelativeBonus = intPtr(10)
	}
	if cfg.Scoring.PackageBonus == nil {
		cfg.Scoring.PackageBonus = intPtr(5)
	}
	if cfg.Scoring.DepthPenalty == nil {
		cfg.Scoring.DepthPenalty = intPtr(1)
	}

	cfg.Report.Format = strings.ToLower(strings.TrimSpace(cfg.Report.Format))
	if cfg.Report.Format == "" {
		cfg.Report.Format = "text"
	}
	if cfg.Report.TopN == 0 {
		cfg.Report.TopN = 10
	}
	cfg.Report.Color = strings.ToLower(strings.TrimSpace(cfg.Report.Color))
	if cfg.Report.Color == "" {
		cfg.Report.Color = "auto"
	}

	if cfg.Analysis.Workers == 0 {
		cfg.Analysis.Workers = runtime.NumCPU()
	}
	if cfg.Analysis.CacheSize == 0 {
		cfg.Analysis.CacheSize = 2048
	}
	if cfg.Apply.Workers == 0 {
		cfg.Apply.Workers = 4
	}
	if cfg.Apply.VerifyUnchanged == nil {
		enabled := true
		cfg.Apply.VerifyUnchanged = &enabled
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	if strings.TrimSpace(cfg.Tracing.ServiceName) == "" {
		cfg.Tracing.ServiceName = "importfix"
	}
	if strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		cfg.Tracing.Endpoint = "localhost:4317"
	}
}

func intPtr(v int) *int { return &v }
