package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"importfix/internal/core/config"
	"importfix/internal/core/errors"
	"importfix/internal/engine/fixer"
	"importfix/internal/engine/graph"
	"importfix/internal/engine/parser"
	"importfix/internal/engine/resolver"
	"importfix/internal/shared/observability"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Phase identifies a pipeline stage for progress banners.
type Phase int

const (
	PhaseScan Phase = iota
	PhaseIndex
	PhaseDetect
	PhasePlan
)

func (p Phase) String() string {
	switch p {
	case PhaseScan:
		return "scan"
	case PhaseIndex:
		return "index"
	case PhaseDetect:
		return "detect"
	case PhasePlan:
		return "plan"
	default:
		return "unknown"
	}
}

// Title is the human-readable banner text.
func (p Phase) Title() string {
	switch p {
	case PhaseScan:
		return "Scanning project"
	case PhaseIndex:
		return "Phase 1: Building symbol index"
	case PhaseDetect:
		return "Phase 2: Analyzing missing imports"
	case PhasePlan:
		return "Phase 3: Generating import fixes"
	default:
		return p.String()
	}
}

// Issue is a recoverable per-path failure. Issues never abort a run.
type Issue struct {
	Code   errors.ErrorCode
	Path   string
	Reason string
	Line   int
}

type Analysis struct {
	RunID     uuid.UUID
	Root      string
	StartedAt time.Time
	Duration  time.Duration
	Project   *Project
	Files     []*parser.File // parsed files, sorted by path
	Issues    []Issue        // discovery issues first, then parse issues in path order
	Index     *graph.SymbolIndex
	Findings  []resolver.FileFindings // one per parsed file, sorted by path
	Plan      *fixer.Plan
}

// MissingCount returns the total number of missing-import entries.
func (a *Analysis) MissingCount() int {
	return a.Plan.EntryCount()
}

func (a *Analysis) File(path string) *parser.File {
	i := sort.Search(len(a.Files), func(i int) bool { return a.Files[i].Path >= path })
	if i < len(a.Files) && a.Files[i].Path == path {
		return a.Files[i]
	}
	return nil
}

type App struct {
	Config  *config.Config
	Parser  *parser.Parser
	weights resolver.Weights
	cache   *parser.FileCache

	// OnPhase, when set, is called as each pipeline stage begins.
	OnPhase func(Phase)
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid configuration")
	}

	loader, err := parser.NewGrammarLoaderWithRegistry(map[string]parser.LanguageSpec{
		"python": {
			Name:       "python",
			Extensions: append([]string(nil), cfg.Python.Extensions...),
			Enabled:    true,
		},
	})
	if err != nil {
		return nil, err
	}

	p := parser.NewParser(loader)
	if err := p.RegisterDefaultExtractors(); err != nil {
		return nil, err
	}
	slog.Debug("parser ready", "extensions", p.SupportedExtensions())

	return &App{
		Config:  cfg,
		Parser:  p,
		weights: weightsFromConfig(cfg.Scoring),
		cache:   parser.NewFileCache(cfg.Analysis.CacheSize),
	}, nil
}

func weightsFromConfig(s config.Scoring) resolver.Weights {
	w := resolver.DefaultWeights()
	if s.RelativeBonus != nil {
		w.RelativeBonus = *s.RelativeBonus
	}
	if s.PackageBonus != nil {
		w.PackageBonus = *s.PackageBonus
	}
	if s.DepthPenalty != nil {
		w.DepthPenalty = *s.DepthPenalty
	}
	return w
}

func (a *App) phase(p Phase) {
	slog.Debug("starting phase", "phase", p.String())
	if a.OnPhase != nil {
		a.OnPhase(p)
	}
}

// Analyze runs discovery, extraction, indexing and detection over root and
// builds the fix plan. It never touches files on disk. Per-file failures
// are collected as issues; the returned error is reserved for an unusable
// root or a cancelled context.
func (a *App) Analyze(ctx context.Context, root string) (*Analysis, error) {
	root, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{
		RunID:     uuid.New(),
		Root:      root,
		StartedAt: time.Now(),
	}
	ctx, span := observability.Tracer.Start(ctx, "importfix.analyze", trace.WithAttributes(
		attribute.String("run_id", analysis.RunID.String()),
		attribute.String("root", root),
	))
	defer span.End()

	a.phase(PhaseScan)
	done := a.timePhase(ctx, PhaseScan)
	project, issues, err := ScanProject(root, ScanOptions{
		ExcludeDirs:  a.Config.Exclude.Dirs,
		ExcludeFiles: a.Config.Exclude.Files,
		Extensions:   a.Config.Python.Extensions,
	})
	done()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	analysis.Project = project
	analysis.Issues = append(analysis.Issues, issues...)
	observability.FilesDiscoveredTotal.Add(float64(len(project.Files)))
	slog.Info("discovered source files", "root", root, "count", len(project.Files))

	a.phase(PhaseIndex)
	done = a.timePhase(ctx, PhaseIndex)
	files, parseIssues, err := a.extractAll(ctx, project)
	if err != nil {
		done()
		span.RecordError(err)
		return nil, err
	}
	analysis.Files = files
	analysis.Issues = append(analysis.Issues, parseIssues...)

	index := graph.BuildSymbolIndex(files)
	done()
	analysis.Index = index
	observability.IndexSymbols.Set(float64(index.Len()))
	observability.IndexModules.Set(float64(index.ModuleCount()))
	slog.Debug("symbol index built", "symbols", index.Len(), "modules", index.ModuleCount())

	a.phase(PhaseDetect)
	done = a.timePhase(ctx, PhaseDetect)
	findings, err := a.detectAll(ctx, index, files)
	done()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	analysis.Findings = findings

	a.phase(PhasePlan)
	analysis.Plan = fixer.NewPlan(files, findings)

	unresolved := 0
	for _, f := range findings {
		unresolved += len(f.Unresolved)
	}
	for _, issue := range analysis.Issues {
		observability.IssuesTotal.WithLabelValues(string(issue.Code)).Inc()
	}
	observability.MissingImportsTotal.Add(float64(analysis.Plan.EntryCount()))
	observability.UnresolvedSymbolsTotal.Add(float64(unresolved))

	analysis.Duration = time.Since(analysis.StartedAt)
	span.SetAttributes(
		attribute.Int("files", len(files)),
		attribute.Int("issues", len(analysis.Issues)),
		attribute.Int("missing_imports", analysis.Plan.EntryCount()),
	)
	slog.Info("analysis complete",
		"files", len(files),
		"issues", len(analysis.Issues),
		"missing", analysis.Plan.EntryCount(),
		"duration", analysis.Duration,
	)
	return analysis, nil
}

func (a *App) timePhase(ctx context.Context, p Phase) func() {
	_, span := observability.Tracer.Start(ctx, "importfix."+p.String())
	start := time.Now()
	return func() {
		observability.AnalysisDuration.WithLabelValues(p.String()).Observe(time.Since(start).Seconds())
		span.End()
	}
}

func (a *App) workers() int {
	if a.Config.Analysis.Workers < 1 {
		return 1
	}
	return a.Config.Analysis.Workers
}

// extractAll parses every project file. Results land in index-addressed
// slots so the output does not depend on scheduling.
func (a *App) extractAll(ctx context.Context, project *Project) ([]*parser.File, []Issue, error) {
	parsed := make([]*parser.File, len(project.Files))
	failed := make([]*Issue, len(project.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, rel := range project.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file, issue := a.ProcessFile(project.Root, rel)
			parsed[i] = file
			failed[i] = issue
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	files := make([]*parser.File, 0, len(parsed))
	var issues []Issue
	for i := range parsed {
		if parsed[i] != nil {
			files = append(files, parsed[i])
		}
		if failed[i] != nil {
			issues = append(issues, *failed[i])
		}
	}
	return files, issues, nil
}

// ProcessFile reads and parses one file. Exactly one of the results is
// non-nil. Unchanged files parsed by an earlier analysis are reused.
func (a *App) ProcessFile(root, rel string) (*parser.File, *Issue) {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	content, err := os.ReadFile(abs)
	if err != nil {
		a.cache.Forget(abs)
		slog.Warn("failed to read file", "path", rel, "error", err)
		return nil, &Issue{Code: errors.CodeParseFailure, Path: rel, Reason: "read failed: " + err.Error()}
	}
	if cached, ok := a.cache.Lookup(abs, xxhash.Sum64(content)); ok && cached.Path == rel {
		observability.ParseCacheHitsTotal.Inc()
		return cached, nil
	}

	start := time.Now()
	file, err := a.Parser.ParseFile(rel, content)
	observability.ParsingDuration.WithLabelValues("python").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Warn("failed to parse file", "path", rel, "error", err)
		issue := &Issue{Code: errors.CodeOf(err), Path: rel, Reason: errors.Reason(err)}
		if line, ok := errors.ContextValue(err, errors.CtxLine); ok {
			if n, ok := line.(int); ok {
				issue.Line = n
			}
		}
		return nil, issue
	}
	file.AbsPath = abs
	a.cache.Store(abs, file)
	return file, nil
}

func (a *App) detectAll(ctx context.Context, index *graph.SymbolIndex, files []*parser.File) ([]resolver.FileFindings, error) {
	detector := resolver.NewDetector(index, a.weights)
	findings := make([]resolver.FileFindings, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			findings[i] = detector.DetectFile(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return findings, nil
}

// Apply writes the analysis plan to disk. Per-file failures are reported
// in the batch, never returned.
func (a *App) Apply(ctx context.Context, analysis *Analysis) fixer.BatchReport {
	if analysis == nil || analysis.Plan.Empty() {
		return fixer.BatchReport{}
	}

	ctx, span := observability.Tracer.Start(ctx, "importfix.apply", trace.WithAttributes(
		attribute.String("run_id", analysis.RunID.String()),
		attribute.Int("files", analysis.Plan.FileCount()),
	))
	defer span.End()

	verify := true
	if a.Config.Apply.VerifyUnchanged != nil {
		verify = *a.Config.Apply.VerifyUnchanged
	}
	applier := fixer.NewApplier(fixer.Options{
		Workers:            a.Config.Apply.Workers,
		MaxWritesPerSecond: a.Config.Apply.MaxWritesPerSecond,
		VerifyUnchanged:    verify,
	})

	start := time.Now()
	report := applier.Apply(ctx, analysis.Plan)
	observability.AnalysisDuration.WithLabelValues("apply").Observe(time.Since(start).Seconds())

	span.SetAttributes(
		attribute.Int("applied", report.Applied()),
		attribute.Int("failed", report.Failed()),
	)
	slog.Info("applied import fixes", "applied", report.Applied(), "failed", report.Failed(), "skipped", report.Skipped())
	return report
}
