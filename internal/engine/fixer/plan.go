package fixer

import (
	"sort"
	"strings"

	"importfix/internal/engine/parser"
	"importfix/internal/engine/resolver"
)

// ImportGroup is one synthesized import statement.
type ImportGroup struct {
	Module  string
	Symbols []string
}

func (g ImportGroup) Statement() string {
	return "from " + g.Module + " import " + strings.Join(g.Symbols, ", ")
}

type FilePlan struct {
	Path    string
	AbsPath string
	Hash    uint64 // content hash at analysis time
	Entries []resolver.MissingImport
	Groups  []ImportGroup
}

// Statements returns the import lines in insertion order.
func (fp FilePlan) Statements() []string {
	out := make([]string, 0, len(fp.Groups))
	for _, g := range fp.Groups {
		out = append(out, g.Statement())
	}
	return out
}

type Plan struct {
	Files []FilePlan // sorted by path
}

// NewPlan builds a plan for every file with at least one missing import.
func NewPlan(files []*parser.File, findings []resolver.FileFindings) *Plan {
	byPath := make(map[string]*parser.File, len(files))
	for _, f := range files {
		if f != nil {
			byPath[f.Path] = f
		}
	}

	plan := &Plan{}
	for _, ff := range findings {
		if len(ff.Missing) == 0 {
			continue
		}
		fp := FilePlan{
			Path:    ff.File,
			Entries: append([]resolver.MissingImport(nil), ff.Missing...),
			Groups:  GroupEntries(ff.Missing),
		}
		if f := byPath[ff.File]; f != nil {
			fp.AbsPath = f.AbsPath
			fp.Hash = f.Hash
		}
		plan.Files = append(plan.Files, fp)
	}
	sort.Slice(plan.Files, func(i, j int) bool { return plan.Files[i].Path < plan.Files[j].Path })
	return plan
}

// GroupEntries groups entries by chosen module. Groups are sorted by
// module and symbols within a group are sorted and unique.
func GroupEntries(entries []resolver.MissingImport) []ImportGroup {
	byModule := make(map[string]map[string]struct{})
	for _, e := range entries {
		if byModule[e.Module] == nil {
			byModule[e.Module] = make(map[string]struct{})
		}
		byModule[e.Module][e.Symbol] = struct{}{}
	}

	groups := make([]ImportGroup, 0, len(byModule))
	for module, set := range byModule {
		symbols := make([]string, 0, len(set))
		for s := range set {
			symbols = append(symbols, s)
		}
		sort.Strings(symbols)
		groups = append(groups, ImportGroup{Module: module, Symbols: symbols})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Module < groups[j].Module })
	return groups
}

func (p *Plan) EntryCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, fp := range p.Files {
		n += len(fp.Entries)
	}
	return n
}

func (p *Plan) FileCount() int {
	if p == nil {
		return 0
	}
	return len(p.Files)
}

// FilePlans returns the per-file plans; a nil plan has none.
func (p *Plan) FilePlans() []FilePlan {
	if p == nil {
		return nil
	}
	return p.Files
}

func (p *Plan) Empty() bool {
	return p.FileCount() == 0
}
