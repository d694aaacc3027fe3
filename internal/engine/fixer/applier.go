package fixer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"importfix/internal/core/errors"
	"importfix/internal/shared/observability"
	"importfix/internal/shared/util"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusApplied Status = "applied"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result is the outcome of rewriting one file.
type Result struct {
	Path     string
	Status   Status
	Inserted []string
	Err      error
}

// BatchReport collects per-file results. One failure never aborts the
// rest of the batch.
type BatchReport struct {
	Results []Result // plan order
}

func (b BatchReport) count(s Status) int {
	n := 0
	for _, r := range b.Results {
		if r.Status == s {
			n++
		}
	}
	return n
}

func (b BatchReport) Applied() int { return b.count(StatusApplied) }
func (b BatchReport) Failed() int  { return b.count(StatusFailed) }
func (b BatchReport) Skipped() int { return b.count(StatusSkipped) }

func (b BatchReport) Failures() []Result {
	var out []Result
	for _, r := range b.Results {
		if r.Status == StatusFailed {
			out = append(out, r)
		}
	}
	return out
}

type Options struct {
	Workers            int
	MaxWritesPerSecond float64
	VerifyUnchanged    bool
}

type Applier struct {
	opts    Options
	limiter *util.Limiter
	locks   *util.KeyedMutex
}

func NewApplier(opts Options) *Applier {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Applier{
		opts:    opts,
		limiter: util.NewLimiter(opts.MaxWritesPerSecond, opts.Workers),
		locks:   util.NewKeyedMutex(),
	}
}

// Apply rewrites every file in plan. Distinct files are written
// concurrently; writes to the same path are serialized.
func (a *Applier) Apply(ctx context.Context, plan *Plan) BatchReport {
	if plan == nil || len(plan.Files) == 0 {
		return BatchReport{}
	}

	results := make([]Result, len(plan.Files))
	g := new(errgroup.Group)
	g.SetLimit(a.opts.Workers)
	for i, fp := range plan.Files {
		g.Go(func() error {
			results[i] = a.ApplyFile(ctx, fp)
			return nil
		})
	}
	_ = g.Wait()

	return BatchReport{Results: results}
}

// ApplyFile inserts fp's import lines into its file. Either the file is
// fully rewritten or it is left untouched.
func (a *Applier) ApplyFile(ctx context.Context, fp FilePlan) Result {
	res := Result{Path: fp.Path}
	if err := ctx.Err(); err != nil {
		res.Status = StatusSkipped
		res.Err = err
		observability.FixWritesTotal.WithLabelValues(string(res.Status)).Inc()
		return res
	}

	unlock := a.locks.Lock(fp.AbsPath)
	defer unlock()

	start := time.Now()
	err := a.rewrite(ctx, fp)
	observability.FixWriteDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		res.Status = StatusApplied
		res.Inserted = fp.Statements()
	case ctx.Err() != nil:
		res.Status = StatusSkipped
		res.Err = err
	default:
		res.Status = StatusFailed
		res.Err = err
		slog.Warn("failed to apply import fixes", "path", fp.Path, "error", err)
	}
	observability.FixWritesTotal.WithLabelValues(string(res.Status)).Inc()
	return res
}

func (a *Applier) rewrite(ctx context.Context, fp FilePlan) error {
	if fp.AbsPath == "" {
		return writeFailure(fp.Path, "resolve path", fmt.Errorf("no path on disk"))
	}

	content, err := os.ReadFile(fp.AbsPath)
	if err != nil {
		return writeFailure(fp.Path, "read", err)
	}
	if a.opts.VerifyUnchanged && fp.Hash != 0 && xxhash.Sum64(content) != fp.Hash {
		return writeFailure(fp.Path, "verify", fmt.Errorf("file changed since analysis"))
	}

	if err := a.limiter.Wait(ctx, 1); err != nil {
		return writeFailure(fp.Path, "throttle", err)
	}

	updated := InsertImports(content, fp.Statements())
	if err := util.WriteFileAtomic(fp.AbsPath, updated); err != nil {
		return writeFailure(fp.Path, "write", err)
	}
	return nil
}

// Preview returns the current content of fp's file and the content Apply
// would write.
func Preview(fp FilePlan) (before, after []byte, err error) {
	before, err = os.ReadFile(fp.AbsPath)
	if err != nil {
		return nil, nil, err
	}
	return before, InsertImports(before, fp.Statements()), nil
}

func writeFailure(path, op string, err error) error {
	return errors.Wrap(err, errors.CodeWriteFailure, op+" failed").(*errors.DomainError).
		WithContext(errors.CtxPath, path).
		WithContext(errors.CtxOperation, op)
}
