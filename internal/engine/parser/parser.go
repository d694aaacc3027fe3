// # internal/engine/parser/parser.go
package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"importfix/internal/core/errors"
	"importfix/internal/shared/util"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Parser struct {
	loader     *GrammarLoader
	extractors map[string]Extractor // language -> extractor
	extensions map[string]string
	pools      map[string]*ParserPool
}

type Extractor interface {
	Extract(node *sitter.Node, source []byte, filePath string) (*File, error)
}

// NewParser builds a parser for every enabled language of loader. The
// returned Parser is safe for concurrent ParseFile calls.
func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:     loader,
		extractors: make(map[string]Extractor),
		extensions: make(map[string]string),
		pools:      make(map[string]*ParserPool),
	}
	for lang, spec := range loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		for _, ext := range spec.Extensions {
			p.extensions[strings.ToLower(ext)] = lang
		}
		if grammar := loader.Language(lang); grammar != nil {
			p.pools[lang] = NewParserPool(grammar)
		}
	}
	return p
}

func (p *Parser) RegisterExtractor(lang string, e Extractor) {
	p.extractors[lang] = e
}

func (p *Parser) RegisterDefaultExtractors() error {
	for lang, spec := range p.loader.LanguageRegistry() {
		if !spec.Enabled {
			continue
		}
		switch lang {
		case "python":
			p.RegisterExtractor(lang, &PythonExtractor{})
		default:
			return errors.New(errors.CodeNotSupported, fmt.Sprintf("no default extractor for enabled language: %s", lang))
		}
	}
	return nil
}

// ParseFile parses content and extracts its symbols. relPath is the
// slash-separated path relative to the project root. A syntax or encoding
// error yields a CodeParseFailure error.
func (p *Parser) ParseFile(relPath string, content []byte) (*File, error) {
	lang := p.detectLanguage(relPath)
	if lang == "" {
		return nil, errors.New(errors.CodeNotSupported, "unsupported language")
	}

	extractor := p.extractors[lang]
	if extractor == nil {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("no extractor for: %s", lang))
	}

	pool := p.pools[lang]
	if pool == nil {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("grammar not loaded: %s", lang))
	}

	if offset, ok := invalidUTF8Offset(content); ok {
		return nil, errors.New(errors.CodeParseFailure, fmt.Sprintf("invalid UTF-8 at byte %d", offset)).(*errors.DomainError).
			WithContext(errors.CtxPath, relPath)
	}
	source := bytes.TrimPrefix(content, utf8BOM)

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, relPath)
	}

	res, err := extractor.Extract(root, source, relPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "extraction failed")
	}

	res.Module, res.Package, res.IsPackageIndex = ModuleName(relPath)
	res.Language = lang
	res.Hash = xxhash.Sum64(content)
	res.ParsedAt = time.Now()
	return res, nil
}

func (p *Parser) detectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return p.extensions[ext]
}

func (p *Parser) IsSupportedPath(filePath string) bool {
	return p.detectLanguage(filePath) != ""
}

func (p *Parser) SupportedExtensions() []string {
	return util.SortedStringKeys(p.extensions)
}

func invalidUTF8Offset(content []byte) (int, bool) {
	if utf8.Valid(content) {
		return 0, false
	}
	for i := 0; i < len(content); {
		r, size := utf8.DecodeRune(content[i:])
		if r == utf8.RuneError && size <= 1 {
			return i, true
		}
		i += size
	}
	return 0, false
}

// syntaxError locates the first ERROR or MISSING node in document order.
func syntaxError(root *sitter.Node, relPath string) error {
	bad := firstErrorNode(root)
	if bad == nil {
		bad = root
	}
	pos := bad.StartPosition()
	line := int(pos.Row) + 1
	reason := "invalid syntax"
	if bad.IsMissing() {
		reason = fmt.Sprintf("missing %q", bad.Kind())
	}
	return errors.New(errors.CodeParseFailure,
		fmt.Sprintf("%s at line %d, column %d", reason, line, int(pos.Column)+1)).(*errors.DomainError).
		WithContext(errors.CtxPath, relPath).
		WithContext(errors.CtxLine, line)
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
