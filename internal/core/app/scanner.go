package app

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"importfix/internal/core/errors"
	"importfix/internal/shared/util"

	"github.com/gobwas/glob"
)

// Project is the set of source files discovered under one root.
type Project struct {
	Root        string
	Files       []string // slash-separated, relative to Root, sorted
	ExcludeDirs []string
}

type ScanOptions struct {
	ExcludeDirs  []string
	ExcludeFiles []string
	Extensions   []string
}

// ResolveRoot returns the absolute, cleaned form of path and checks that
// it names a directory.
func ResolveRoot(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeValidationError, "invalid project path").(*errors.DomainError).
			WithContext(errors.CtxPath, path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeNotFound, "project path does not exist").(*errors.DomainError).
			WithContext(errors.CtxPath, abs)
	}
	if !info.IsDir() {
		return "", errors.New(errors.CodeValidationError, "project path is not a directory").(*errors.DomainError).
			WithContext(errors.CtxPath, abs)
	}
	return filepath.Clean(abs), nil
}

// ScanProject walks root and returns every source file outside the
// excluded directories. Unreadable directories become issues and the walk
// carries on.
func ScanProject(root string, opts ScanOptions) (*Project, []Issue, error) {
	dirGlobs, err := compileGlobs(opts.ExcludeDirs, "exclude dir")
	if err != nil {
		return nil, nil, err
	}
	fileGlobs, err := compileGlobs(opts.ExcludeFiles, "exclude file")
	if err != nil {
		return nil, nil, err
	}
	extensions := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = true
	}

	project := &Project{Root: root, ExcludeDirs: append([]string(nil), opts.ExcludeDirs...)}
	var issues []Issue

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			rel := relativePath(root, path)
			slog.Warn("failed to read directory", "path", rel, "error", walkErr)
			issues = append(issues, Issue{
				Code:   errors.CodeDirectoryAccessFailure,
				Path:   rel,
				Reason: walkErr.Error(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		base := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if matchAny(dirGlobs, base) {
				return filepath.SkipDir
			}
			return nil
		}
		// Symlinked files may point outside the root and are skipped, as
		// WalkDir skips symlinked directories.
		if !d.Type().IsRegular() {
			if d.Type()&fs.ModeSymlink != 0 {
				slog.Debug("skipping symlinked file", "path", relativePath(root, path))
			}
			return nil
		}
		if !extensions[strings.ToLower(filepath.Ext(base))] {
			return nil
		}
		if matchAny(fileGlobs, base) {
			return nil
		}

		project.Files = append(project.Files, relativePath(root, path))
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeDirectoryAccessFailure, "cannot read project root").(*errors.DomainError).
			WithContext(errors.CtxPath, root)
	}

	sort.Strings(project.Files)
	return project, issues, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		// Patterns match base names; "build/" and "./build" mean build.
		p = strings.TrimSuffix(util.NormalizePatternPath(p), "/")
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func relativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
