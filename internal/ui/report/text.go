package report

import (
	"fmt"
	"io"
	"strings"
)

const rule = "============================================================"

// Banner prints a phase heading.
func Banner(w io.Writer, st Styles, title string) {
	fmt.Fprintln(w, st.Banner.Render("==> "+title))
}

// RenderText writes the human-readable report.
func RenderText(w io.Writer, r *Report, st Styles) error {
	bw := &errWriter{w: w}

	if len(r.Files) == 0 {
		bw.println()
		bw.println(st.Success.Render("No missing imports found!"))
	} else {
		bw.println()
		bw.println(st.Title.Render(fmt.Sprintf("Found missing imports in %d files:", len(r.Files))))
		bw.println(rule)
		for _, f := range r.Files {
			bw.println()
			bw.println(st.File.Render(f.Path + ":"))
			for _, imp := range f.Imports {
				bw.println("   " + st.Import.Render(imp.Statement))
			}
		}

		bw.println()
		bw.println(st.Title.Render(fmt.Sprintf("Summary: %d missing imports across %d files",
			r.Summary.MissingImports, r.Summary.FilesWithMissing)))

		if len(r.Top) > 0 {
			bw.println()
			bw.println(st.Title.Render("Most commonly missing symbols:"))
			for _, row := range r.Top {
				bw.println(fmt.Sprintf("   %s (%d files) -> Available in: %s",
					st.Symbol.Render(row.Symbol), row.Files, strings.Join(row.Modules, ", ")))
			}
		}
	}

	if len(r.Unresolved) > 0 {
		bw.println()
		bw.println(st.Warn.Render(fmt.Sprintf("Unresolved symbols (%d):", r.Summary.UnresolvedNames)))
		for _, u := range r.Unresolved {
			bw.println(fmt.Sprintf("   %s: %s", u.Path, strings.Join(u.Symbols, ", ")))
		}
	}

	if len(r.Issues) > 0 {
		bw.println()
		bw.println(st.Error.Render(fmt.Sprintf("Issues (%d):", len(r.Issues))))
		for _, issue := range r.Issues {
			loc := issue.Path
			if issue.Line > 0 {
				loc = fmt.Sprintf("%s:%d", issue.Path, issue.Line)
			}
			bw.println(fmt.Sprintf("   [%s] %s: %s", issue.Code, loc, issue.Reason))
		}
	}

	if len(r.Diffs) > 0 {
		bw.println()
		bw.println(st.Title.Render("Preview:"))
		for _, d := range r.Diffs {
			bw.print(d.Diff)
		}
	}

	bw.println()
	bw.println(st.Muted.Render(fmt.Sprintf("Scanned %d files (%d parsed) in %dms, run %s",
		r.Summary.FilesScanned, r.Summary.FilesParsed, r.Summary.DurationMS, r.RunID)))

	if r.Apply != nil {
		renderApply(bw, r.Apply, st)
	}
	return bw.err
}

// RenderApply writes the per-file outcome of an apply batch.
func RenderApply(w io.Writer, a *ApplySummary, st Styles) error {
	bw := &errWriter{w: w}
	renderApply(bw, a, st)
	return bw.err
}

func renderApply(bw *errWriter, a *ApplySummary, st Styles) {
	bw.println()
	bw.println(st.Title.Render("Applying fixes..."))
	for _, res := range a.Results {
		switch res.Status {
		case "applied":
			bw.println("   " + st.Success.Render("Fixed") + " " + res.Path)
		case "failed":
			bw.println("   " + st.Error.Render("Failed") + " " + res.Path + ": " + res.Error)
		default:
			bw.println("   " + st.Muted.Render("Skipped") + " " + res.Path)
		}
	}
	summary := fmt.Sprintf("Applied fixes to %d files (%d failed, %d skipped)", a.Applied, a.Failed, a.Skipped)
	if a.Failed > 0 {
		bw.println(st.Warn.Render(summary))
	} else {
		bw.println(st.Success.Render(summary))
	}
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) print(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *errWriter) println(parts ...string) {
	e.print(strings.Join(parts, "") + "\n")
}
