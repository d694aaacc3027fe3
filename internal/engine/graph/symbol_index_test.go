package graph

import (
	"reflect"
	"testing"

	"importfix/internal/engine/parser"
)

func fileWithDefs(path string, names ...string) *parser.File {
	module, pkg, isIndex := parser.ModuleName(path)
	f := &parser.File{Path: path, Module: module, Package: pkg, IsPackageIndex: isIndex}
	for i, name := range names {
		f.Definitions = append(f.Definitions, parser.Definition{
			Name:     name,
			Kind:     parser.KindFunction,
			Location: parser.Location{File: path, Line: i + 1},
		})
	}
	return f
}

func TestSymbolIndex_Completeness(t *testing.T) {
	files := []*parser.File{
		fileWithDefs("app/utils.py", "helper", "Config"),
		fileWithDefs("app/settings.py", "Config", "DEBUG"),
		fileWithDefs("main.py", "main"),
	}
	idx := BuildSymbolIndex(files)

	for _, f := range files {
		for _, def := range f.Definitions {
			found := false
			for _, module := range idx.Candidates(def.Name) {
				if module == f.Module {
					found = true
				}
			}
			if !found {
				t.Errorf("symbol %s from %s missing from index", def.Name, f.Module)
			}
		}
	}

	if got := idx.Candidates("Config"); !reflect.DeepEqual(got, []string{"app.settings", "app.utils"}) {
		t.Errorf("unexpected Config candidates %v", got)
	}
	if idx.Len() != 4 {
		t.Errorf("expected 4 names, got %d", idx.Len())
	}
	if idx.ModuleCount() != 3 {
		t.Errorf("expected 3 modules, got %d", idx.ModuleCount())
	}
	if got := idx.ModuleSymbols("app.utils"); !reflect.DeepEqual(got, []string{"Config", "helper"}) {
		t.Errorf("unexpected module symbols %v", got)
	}
}

func TestSymbolIndex_DuplicateDefinitionsInOneModule(t *testing.T) {
	idx := BuildSymbolIndex([]*parser.File{fileWithDefs("a.py", "value", "value")})
	if got := idx.Candidates("value"); len(got) != 1 || got[0] != "a" {
		t.Errorf("expected a single module entry, got %v", got)
	}
	if recs := idx.Records("value"); len(recs) != 2 {
		t.Errorf("expected both records kept, got %d", len(recs))
	}
}

func TestSymbolIndex_ReturnsCopies(t *testing.T) {
	idx := BuildSymbolIndex([]*parser.File{fileWithDefs("a.py", "x"), fileWithDefs("b.py", "x")})
	got := idx.Candidates("x")
	got[0] = "mutated"
	if idx.Candidates("x")[0] != "a" {
		t.Error("mutating a returned slice must not affect the index")
	}
}

func TestSymbolIndex_NilSafe(t *testing.T) {
	var idx *SymbolIndex
	if idx.Has("x") || idx.Len() != 0 || idx.Candidates("x") != nil {
		t.Error("nil index should behave as empty")
	}
}

func TestSymbolIndex_BuilderIgnoresNil(t *testing.T) {
	b := NewIndexBuilder()
	b.Add(nil)
	if b.Build().Len() != 0 {
		t.Error("expected empty index")
	}
}
