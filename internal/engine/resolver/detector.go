package resolver

import (
	"sort"
	"strings"

	"importfix/internal/engine/graph"
	"importfix/internal/engine/parser"
)

// MissingImport is a used symbol that the file neither defines nor
// imports, paired with the module chosen to provide it.
type MissingImport struct {
	File       string
	Symbol     string
	Module     string
	Score      int
	Candidates []string
	Line       int
}

type FileFindings struct {
	File       string
	Module     string
	Missing    []MissingImport // sorted by symbol
	Unresolved []string        // used, undefined, not a builtin, no candidate
}

// Detector finds missing imports against a read-only symbol index.
// DetectFile has no side effects and may run concurrently.
type Detector struct {
	index   *graph.SymbolIndex
	weights Weights
}

func NewDetector(index *graph.SymbolIndex, weights Weights) *Detector {
	return &Detector{index: index, weights: weights}
}

func (d *Detector) DetectFile(file *parser.File) FileFindings {
	findings := FileFindings{File: file.Path, Module: file.Module}
	current := d.currentNames(file)

	for _, symbol := range file.UsedNames() {
		if _, ok := current[symbol]; ok {
			continue
		}

		candidates := d.candidatesFor(symbol, file.Module)
		if len(candidates) == 0 {
			if !IsPythonBuiltin(symbol) {
				findings.Unresolved = append(findings.Unresolved, symbol)
			}
			continue
		}

		choice, ok := ChooseModule(symbol, candidates, file.Package, d.weights)
		if !ok {
			continue
		}
		entry := MissingImport{
			File:       file.Path,
			Symbol:     symbol,
			Module:     choice.Module,
			Score:      choice.Score,
			Candidates: candidates,
		}
		if loc, found := file.FirstUse(symbol); found {
			entry.Line = loc.Line
		}
		findings.Missing = append(findings.Missing, entry)
	}

	sort.Slice(findings.Missing, func(i, j int) bool {
		return findings.Missing[i].Symbol < findings.Missing[j].Symbol
	})
	return findings
}

// currentNames is everything the file resolves on its own: module-scope
// definitions, import bindings, local bindings and wildcard imports of
// project modules.
func (d *Detector) currentNames(file *parser.File) map[string]struct{} {
	current := file.ImportedNames()
	for _, def := range file.Definitions {
		current[def.Name] = struct{}{}
	}
	for _, name := range file.LocalSymbols {
		current[name] = struct{}{}
	}
	for _, imp := range file.Imports {
		if !imp.Wildcard {
			continue
		}
		target := WildcardTarget(file, imp)
		for _, name := range d.index.ModuleSymbols(target) {
			if strings.HasPrefix(name, "_") {
				continue
			}
			current[name] = struct{}{}
		}
	}
	return current
}

func (d *Detector) candidatesFor(symbol, ownModule string) []string {
	all := d.index.Candidates(symbol)
	out := all[:0]
	for _, module := range all {
		if module == "" || module == ownModule {
			continue
		}
		out = append(out, module)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// WildcardTarget resolves the module named by a star import relative to
// the importing file.
func WildcardTarget(file *parser.File, imp parser.Import) string {
	if !imp.IsRelative {
		return imp.Module
	}
	parts := []string{}
	if file.Package != "" {
		parts = strings.Split(file.Package, ".")
	}
	up := imp.RelativeLevel - 1
	if up > len(parts) {
		return ""
	}
	parts = parts[:len(parts)-up]
	if imp.Module != "" {
		parts = append(parts, imp.Module)
	}
	return strings.Join(parts, ".")
}
