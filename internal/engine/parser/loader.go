// # internal/engine/parser/loader.go
package parser

import (
	"fmt"
	"strings"

	"importfix/internal/shared/util"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// LanguageSpec describes how files of one language are recognised.
type LanguageSpec struct {
	Name       string
	Extensions []string
	Filenames  []string
	Enabled    bool
}

// DefaultLanguageSpecs returns the built-in language table.
func DefaultLanguageSpecs() map[string]LanguageSpec {
	return map[string]LanguageSpec{
		"python": {
			Name:       "python",
			Extensions: []string{".py"},
			Enabled:    true,
		},
	}
}

type GrammarLoader struct {
	languages map[string]*sitter.Language
	registry  map[string]LanguageSpec
}

func NewGrammarLoader() (*GrammarLoader, error) {
	return NewGrammarLoaderWithRegistry(DefaultLanguageSpecs())
}

func NewGrammarLoaderWithRegistry(registry map[string]LanguageSpec) (*GrammarLoader, error) {
	if registry == nil {
		registry = DefaultLanguageSpecs()
	}

	gl := &GrammarLoader{
		languages: make(map[string]*sitter.Language),
		registry:  make(map[string]LanguageSpec, len(registry)),
	}

	seenExt := make(map[string]string)
	for _, langID := range util.SortedStringKeys(registry) {
		spec := registry[langID]
		spec.Extensions = normalizeExtensions(spec.Extensions)
		gl.registry[langID] = spec
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			if owner, ok := seenExt[ext]; ok {
				return nil, fmt.Errorf("extension %s claimed by both %s and %s", ext, owner, langID)
			}
			seenExt[ext] = langID
		}

		switch langID {
		case "python":
			gl.languages["python"] = sitter.NewLanguage(tree_sitter_python.Language())
		default:
			return nil, fmt.Errorf("language %q is enabled but runtime grammar loading is not implemented", langID)
		}
	}

	return gl, nil
}

func (gl *GrammarLoader) Language(name string) *sitter.Language {
	return gl.languages[name]
}

func (gl *GrammarLoader) LanguageRegistry() map[string]LanguageSpec {
	out := make(map[string]LanguageSpec, len(gl.registry))
	for k, v := range gl.registry {
		v.Extensions = append([]string(nil), v.Extensions...)
		v.Filenames = append([]string(nil), v.Filenames...)
		out[k] = v
	}
	return out
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
