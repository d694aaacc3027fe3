package report

import (
	"log/slog"
	"sort"
	"time"

	"importfix/internal/core/app"
	"importfix/internal/engine/fixer"
)

type Options struct {
	TopN           int
	ShowUnresolved bool
	Diff           bool
}

// Report is the presentation model shared by the text and JSON renderers.
type Report struct {
	RunID       string            `json:"run_id"`
	Root        string            `json:"root"`
	GeneratedAt time.Time         `json:"generated_at"`
	Summary     Summary           `json:"summary"`
	Files       []FileReport      `json:"files"`
	Top         []TopSymbol       `json:"top_missing"`
	Unresolved  []UnresolvedEntry `json:"unresolved,omitempty"`
	Issues      []IssueEntry      `json:"issues"`
	Diffs       []FileDiff        `json:"diffs,omitempty"`
	Apply       *ApplySummary     `json:"apply,omitempty"`
}

type Summary struct {
	FilesScanned     int   `json:"files_scanned"`
	FilesParsed      int   `json:"files_parsed"`
	FilesWithMissing int   `json:"files_with_missing"`
	MissingImports   int   `json:"missing_imports"`
	UnresolvedNames  int   `json:"unresolved_names"`
	Issues           int   `json:"issues"`
	DurationMS       int64 `json:"duration_ms"`
}

type FileReport struct {
	Path    string         `json:"path"`
	Module  string         `json:"module"`
	Imports []ImportLine   `json:"imports"`
	Missing []MissingEntry `json:"missing"`
}

type ImportLine struct {
	Module    string   `json:"module"`
	Symbols   []string `json:"symbols"`
	Statement string   `json:"statement"`
}

type MissingEntry struct {
	Symbol     string   `json:"symbol"`
	Module     string   `json:"module"`
	Line       int      `json:"line"`
	Score      int      `json:"score"`
	Candidates []string `json:"candidates"`
}

type TopSymbol struct {
	Symbol  string   `json:"symbol"`
	Files   int      `json:"files"`
	Modules []string `json:"available_in"`
}

type UnresolvedEntry struct {
	Path    string   `json:"path"`
	Symbols []string `json:"symbols"`
}

type IssueEntry struct {
	Code   string `json:"code"`
	Path   string `json:"path"`
	Line   int    `json:"line,omitempty"`
	Reason string `json:"reason"`
}

type FileDiff struct {
	Path string `json:"path"`
	Diff string `json:"diff"`
}

type ApplySummary struct {
	Applied int           `json:"applied"`
	Failed  int           `json:"failed"`
	Skipped int           `json:"skipped"`
	Results []ApplyResult `json:"results"`
}

type ApplyResult struct {
	Path     string   `json:"path"`
	Status   string   `json:"status"`
	Inserted []string `json:"inserted,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Build turns an analysis into a report. It reads files only to compute
// diff previews and never writes.
func Build(analysis *app.Analysis, opts Options) *Report {
	r := &Report{
		RunID:       analysis.RunID.String(),
		Root:        analysis.Root,
		GeneratedAt: time.Now(),
		Files:       []FileReport{},
		Top:         []TopSymbol{},
		Issues:      []IssueEntry{},
	}

	if analysis.Project != nil {
		r.Summary.FilesScanned = len(analysis.Project.Files)
	}
	r.Summary.FilesParsed = len(analysis.Files)
	r.Summary.DurationMS = analysis.Duration.Milliseconds()

	for _, fp := range analysis.Plan.FilePlans() {
		fr := FileReport{Path: fp.Path}
		if f := analysis.File(fp.Path); f != nil {
			fr.Module = f.Module
		}
		for _, g := range fp.Groups {
			fr.Imports = append(fr.Imports, ImportLine{
				Module:    g.Module,
				Symbols:   append([]string(nil), g.Symbols...),
				Statement: g.Statement(),
			})
		}
		for _, e := range fp.Entries {
			fr.Missing = append(fr.Missing, MissingEntry{
				Symbol:     e.Symbol,
				Module:     e.Module,
				Line:       e.Line,
				Score:      e.Score,
				Candidates: append([]string(nil), e.Candidates...),
			})
		}
		r.Files = append(r.Files, fr)
		r.Summary.MissingImports += len(fp.Entries)
	}
	r.Summary.FilesWithMissing = len(r.Files)

	r.Top = topMissing(analysis, opts.TopN)

	for _, ff := range analysis.Findings {
		r.Summary.UnresolvedNames += len(ff.Unresolved)
		if opts.ShowUnresolved && len(ff.Unresolved) > 0 {
			r.Unresolved = append(r.Unresolved, UnresolvedEntry{
				Path:    ff.File,
				Symbols: append([]string(nil), ff.Unresolved...),
			})
		}
	}

	for _, issue := range analysis.Issues {
		r.Issues = append(r.Issues, IssueEntry{
			Code:   string(issue.Code),
			Path:   issue.Path,
			Line:   issue.Line,
			Reason: issue.Reason,
		})
	}
	r.Summary.Issues = len(r.Issues)

	if opts.Diff {
		for _, fp := range analysis.Plan.FilePlans() {
			diff, err := PreviewDiff(fp)
			if err != nil {
				slog.Warn("failed to build diff preview", "path", fp.Path, "error", err)
				continue
			}
			r.Diffs = append(r.Diffs, FileDiff{Path: fp.Path, Diff: diff})
		}
	}
	return r
}

// topMissing ranks symbols by the number of files missing them, then by
// name. Each row lists every module defining the symbol.
func topMissing(analysis *app.Analysis, n int) []TopSymbol {
	if n <= 0 {
		return []TopSymbol{}
	}
	counts := make(map[string]int)
	for _, fp := range analysis.Plan.FilePlans() {
		for _, e := range fp.Entries {
			counts[e.Symbol]++
		}
	}

	rows := make([]TopSymbol, 0, len(counts))
	for symbol, count := range counts {
		var modules []string
		for _, m := range analysis.Index.Candidates(symbol) {
			if m != "" {
				modules = append(modules, m)
			}
		}
		rows = append(rows, TopSymbol{Symbol: symbol, Files: count, Modules: modules})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Files != rows[j].Files {
			return rows[i].Files > rows[j].Files
		}
		return rows[i].Symbol < rows[j].Symbol
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// WithApply records the outcome of an apply batch on the report.
func (r *Report) WithApply(batch fixer.BatchReport) *Report {
	summary := &ApplySummary{
		Applied: batch.Applied(),
		Failed:  batch.Failed(),
		Skipped: batch.Skipped(),
		Results: make([]ApplyResult, 0, len(batch.Results)),
	}
	for _, res := range batch.Results {
		out := ApplyResult{Path: res.Path, Status: string(res.Status), Inserted: res.Inserted}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		summary.Results = append(summary.Results, out)
	}
	r.Apply = summary
	return r
}
