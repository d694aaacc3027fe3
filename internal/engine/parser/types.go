// # internal/engine/parser/types.go
package parser

import (
	"sort"
	"time"
)

type File struct {
	Path           string // Slash-separated, relative to the project root
	AbsPath        string
	Language       string
	Module         string // Dotted module name derived from Path
	Package        string // Dotted path of the containing directory
	IsPackageIndex bool   // __init__.py
	Imports        []Import
	Definitions    []Definition // Module-scope bindings only
	References     []Reference  // Root identifiers read by the file
	LocalSymbols   []string     // Names bound in any nested scope (params, locals, targets)
	Hash           uint64       // xxhash64 of the raw content
	ParsedAt       time.Time
}

type Import struct {
	Module        string // Imported module without leading dots
	RawImport     string // Original statement text
	Alias         string // "import a.b as c" -> c
	Items         []ImportItem
	IsRelative    bool
	RelativeLevel int
	Wildcard      bool // from m import *
	FromImport    bool
	Location      Location
}

type ImportItem struct {
	Name  string
	Alias string
}

// Binding returns the name the item binds in the importing file.
func (i ImportItem) Binding() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.Name
}

// BoundNames returns the identifiers this import introduces.
func (i Import) BoundNames() []string {
	if !i.FromImport {
		if i.Alias != "" {
			return []string{i.Alias}
		}
		return []string{rootComponent(i.Module)}
	}
	names := make([]string, 0, len(i.Items))
	for _, item := range i.Items {
		names = append(names, item.Binding())
	}
	return names
}

type Definition struct {
	Name     string
	Kind     DefinitionKind
	Async    bool
	Location Location
}

type Reference struct {
	Name     string
	Location Location
}

type DefinitionKind int

const (
	KindFunction DefinitionKind = iota
	KindClass
	KindVariable
	KindImport
)

func (k DefinitionKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindVariable:
		return "variable"
	case KindImport:
		return "import"
	default:
		return "unknown"
	}
}

type Location struct {
	File   string
	Line   int
	Column int
}

// DefinedNames returns the sorted set of module-scope names.
func (f *File) DefinedNames() []string {
	set := make(map[string]struct{}, len(f.Definitions))
	for _, def := range f.Definitions {
		set[def.Name] = struct{}{}
	}
	return sortedSet(set)
}

// ImportedNames returns every name bound by an import anywhere in the file.
func (f *File) ImportedNames() map[string]struct{} {
	set := make(map[string]struct{})
	for _, imp := range f.Imports {
		for _, name := range imp.BoundNames() {
			set[name] = struct{}{}
		}
	}
	return set
}

// UsedNames returns the sorted root identifiers read by the file, excluding
// names bound by an import.
func (f *File) UsedNames() []string {
	imported := f.ImportedNames()
	set := make(map[string]struct{}, len(f.References))
	for _, ref := range f.References {
		if _, ok := imported[ref.Name]; ok {
			continue
		}
		set[ref.Name] = struct{}{}
	}
	return sortedSet(set)
}

// FirstUse returns the location of the first read of name.
func (f *File) FirstUse(name string) (Location, bool) {
	for _, ref := range f.References {
		if ref.Name == name {
			return ref.Location, true
		}
	}
	return Location{}, false
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func rootComponent(dotted string) string {
	for i := 0; i < len(dotted); i++ {
		if dotted[i] == '.' {
			return dotted[:i]
		}
	}
	return dotted
}
