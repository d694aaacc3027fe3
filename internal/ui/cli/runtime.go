package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	coreapp "importfix/internal/core/app"
	"importfix/internal/core/config"
	"importfix/internal/core/errors"
	"importfix/internal/engine/fixer"
	"importfix/internal/shared/observability"
	"importfix/internal/ui/report"

	"github.com/spf13/cobra"
)

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})
}

func run(ctx context.Context, args []string, s streams) int {
	var opts cliOptions
	code := exitOK
	cmd := newRootCommand(&opts, func(cmd *cobra.Command) error {
		code = execute(ctx, opts, s)
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetIn(s.in)
	cmd.SetOut(s.out)
	cmd.SetErr(s.err)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(s.err, "error: %v\n", err)
		fmt.Fprintln(s.err, cmd.UsageString())
		return exitUsage
	}
	return code
}

func execute(ctx context.Context, opts cliOptions, s streams) int {
	configureLogging(s.err, opts.verbose)

	root, err := coreapp.ResolveRoot(opts.root())
	if err != nil {
		fmt.Fprintf(s.err, "invalid project path %q: %s\n", opts.root(), errors.Reason(err))
		return exitInvalidPath
	}

	cfg, cfgPath, err := loadConfig(opts.configPath, root)
	if err != nil {
		slog.Error("failed to load config", "path", cfgPath, "error", err)
		return exitFailure
	}
	if cfgPath != "" {
		slog.Debug("loaded config", "path", cfgPath)
	}
	applyOptions(opts, cfg)
	if err := config.Validate(cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		return exitFailure
	}

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingOptions{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()
	if path := cfg.Metrics.Textfile; path != "" {
		defer func() {
			if err := observability.WriteMetricsFile(path); err != nil {
				slog.Error("failed to write metrics file", "path", path, "error", err)
			}
		}()
	}

	a, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitFailure
	}

	jsonOut := cfg.Report.Format == "json"
	styles := report.NewStyles(s.out, cfg.Report.Color)
	if !jsonOut {
		a.OnPhase = func(p coreapp.Phase) { report.Banner(s.out, styles, p.Title()) }
	}
	reportOpts := report.Options{
		TopN:           cfg.Report.TopN,
		ShowUnresolved: cfg.Report.ShowUnresolved,
		Diff:           cfg.Report.Diff,
	}

	analysis, err := a.Analyze(ctx, root)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return exitFailure
	}
	rep := report.Build(analysis, reportOpts)

	if !jsonOut {
		if err := report.RenderText(s.out, rep, styles); err != nil {
			slog.Error("failed to render report", "error", err)
			return exitFailure
		}
	}

	var batch *fixer.BatchReport
	if opts.applying() && !analysis.Plan.Empty() {
		promptOut := s.out
		if jsonOut {
			promptOut = s.err
		}
		if opts.fix || confirm(s.in, promptOut, analysis.MissingCount(), analysis.Plan.FileCount()) {
			result := a.Apply(ctx, analysis)
			batch = &result
			rep.WithApply(result)
			if !jsonOut {
				if err := report.RenderApply(s.out, rep.Apply, styles); err != nil {
					slog.Error("failed to render apply results", "error", err)
					return exitFailure
				}
			}
		} else if !jsonOut {
			fmt.Fprintln(s.out, "Fixes not applied.")
		}
	}

	if jsonOut {
		if err := report.RenderJSON(s.out, rep); err != nil {
			slog.Error("failed to render report", "error", err)
			return exitFailure
		}
	}

	if opts.watch {
		err := a.Watch(ctx, root, func(updated *coreapp.Analysis, changed []string) {
			slog.Debug("re-analysed after changes", "changed", changed)
			next := report.Build(updated, reportOpts)
			if jsonOut {
				_ = report.RenderJSON(s.out, next)
				return
			}
			_ = report.RenderText(s.out, next, styles)
		})
		if err != nil {
			slog.Error("watch failed", "error", err)
			return exitFailure
		}
		return exitOK
	}

	return exitCode(opts, analysis, batch)
}

// exitCode maps the run outcome to a status. Write failures take
// precedence over --check.
func exitCode(opts cliOptions, analysis *coreapp.Analysis, batch *fixer.BatchReport) int {
	remaining := analysis.MissingCount()
	if batch != nil {
		if batch.Failed() > 0 {
			return exitFailure
		}
		applied := make(map[string]bool)
		for _, res := range batch.Results {
			if res.Status == fixer.StatusApplied {
				applied[res.Path] = true
			}
		}
		remaining = 0
		for _, fp := range analysis.Plan.FilePlans() {
			if !applied[fp.Path] {
				remaining += len(fp.Entries)
			}
		}
	}
	if opts.check && remaining > 0 {
		return exitCheckFailed
	}
	return exitOK
}

// confirm asks on out and reads one line from in. Only y or yes accepts;
// anything else, including EOF, refuses.
func confirm(in io.Reader, out io.Writer, fixes, files int) bool {
	fmt.Fprintf(out, "Apply %d import fixes to %d files? (y/N): ", fixes, files)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// loadConfig reads path when given, otherwise <root>/importfix.toml when it
// exists, otherwise the built-in defaults. The second result is the file
// actually loaded.
func loadConfig(path, root string) (*config.Config, string, error) {
	if strings.TrimSpace(path) != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}

	candidate := filepath.Join(root, config.DefaultFileName)
	cfg, err := config.Load(candidate)
	if err == nil {
		return cfg, candidate, nil
	}
	if os.IsNotExist(err) {
		return config.DefaultConfig(), "", nil
	}
	return nil, candidate, err
}

// applyOptions lets explicit flags override the config file.
func applyOptions(opts cliOptions, cfg *config.Config) {
	if opts.changed["format"] {
		cfg.Report.Format = strings.ToLower(strings.TrimSpace(opts.format))
	}
	if opts.changed["top"] {
		cfg.Report.TopN = opts.top
	}
	if opts.changed["workers"] && opts.workers > 0 {
		cfg.Analysis.Workers = opts.workers
	}
	if opts.diff {
		cfg.Report.Diff = true
	}
	if opts.showUnresolved {
		cfg.Report.ShowUnresolved = true
	}
	if opts.metricsFile != "" {
		cfg.Metrics.Textfile = opts.metricsFile
	}
	if opts.noColor {
		cfg.Report.Color = "never"
	}
}

func configureLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
