package graph

import (
	"sort"

	"importfix/internal/engine/parser"
)

type SymbolRecord struct {
	Name   string
	Module string
	File   string
	Kind   parser.DefinitionKind
	Line   int
}

// SymbolIndex maps module-scope symbol names to the modules defining them.
// It is immutable once built and safe for concurrent readers.
type SymbolIndex struct {
	records  map[string][]SymbolRecord
	byName   map[string][]string
	byModule map[string][]string
}

// IndexBuilder accumulates definitions file by file. It is not safe for
// concurrent use; Build produces the shareable snapshot.
type IndexBuilder struct {
	records map[string][]SymbolRecord
}

func NewIndexBuilder() *IndexBuilder {
	return &IndexBuilder{records: make(map[string][]SymbolRecord)}
}

// Add records every module-scope definition of file under file.Module.
func (b *IndexBuilder) Add(file *parser.File) {
	if file == nil {
		return
	}
	for _, def := range file.Definitions {
		b.records[def.Name] = append(b.records[def.Name], SymbolRecord{
			Name:   def.Name,
			Module: file.Module,
			File:   file.Path,
			Kind:   def.Kind,
			Line:   def.Location.Line,
		})
	}
}

func (b *IndexBuilder) Build() *SymbolIndex {
	idx := &SymbolIndex{
		records:  make(map[string][]SymbolRecord, len(b.records)),
		byName:   make(map[string][]string, len(b.records)),
		byModule: make(map[string][]string),
	}

	moduleSets := make(map[string]map[string]struct{})
	for name, recs := range b.records {
		sorted := append([]SymbolRecord(nil), recs...)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Module != sorted[j].Module {
				return sorted[i].Module < sorted[j].Module
			}
			return sorted[i].Line < sorted[j].Line
		})
		idx.records[name] = sorted

		modules := make([]string, 0, len(sorted))
		for _, rec := range sorted {
			if len(modules) == 0 || modules[len(modules)-1] != rec.Module {
				modules = append(modules, rec.Module)
			}
			if moduleSets[rec.Module] == nil {
				moduleSets[rec.Module] = make(map[string]struct{})
			}
			moduleSets[rec.Module][name] = struct{}{}
		}
		idx.byName[name] = modules
	}

	for module, names := range moduleSets {
		list := make([]string, 0, len(names))
		for name := range names {
			list = append(list, name)
		}
		sort.Strings(list)
		idx.byModule[module] = list
	}
	return idx
}

// BuildSymbolIndex aggregates the definitions of files into a snapshot.
func BuildSymbolIndex(files []*parser.File) *SymbolIndex {
	b := NewIndexBuilder()
	for _, f := range files {
		b.Add(f)
	}
	return b.Build()
}

// Candidates returns the sorted modules defining name.
func (ix *SymbolIndex) Candidates(name string) []string {
	if ix == nil {
		return nil
	}
	return cloneStrings(ix.byName[name])
}

func (ix *SymbolIndex) Has(name string) bool {
	if ix == nil {
		return false
	}
	_, ok := ix.byName[name]
	return ok
}

func (ix *SymbolIndex) Records(name string) []SymbolRecord {
	if ix == nil {
		return nil
	}
	return append([]SymbolRecord(nil), ix.records[name]...)
}

// ModuleSymbols returns the sorted names defined by module.
func (ix *SymbolIndex) ModuleSymbols(module string) []string {
	if ix == nil {
		return nil
	}
	return cloneStrings(ix.byModule[module])
}

func (ix *SymbolIndex) Names() []string {
	if ix == nil {
		return nil
	}
	names := make([]string, 0, len(ix.byName))
	for name := range ix.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (ix *SymbolIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.byName)
}

func (ix *SymbolIndex) ModuleCount() int {
	if ix == nil {
		return 0
	}
	return len(ix.byModule)
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
