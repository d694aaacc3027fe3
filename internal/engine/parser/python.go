package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonExtractor collects imports, module-scope definitions, read
// identifiers and local bindings from a Python syntax tree.
type PythonExtractor struct{}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, filePath string) (*File, error) {
	file := &File{
		Path:     filePath,
		Language: "python",
	}

	ctx := &ExtractionContext{Source: source, File: file}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement":        e.extractImport,
		"import_from_statement":   e.extractFromImport,
		"future_import_statement": e.extractFromImport,
	})
	engine.Walk(ctx, root)

	e.collectModuleScope(ctx, root)
	newUseCollector(ctx).visit(root)

	return file, nil
}

func (e *PythonExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "dotted_name":
			e.appendImport(ctx, node, Import{
				Module:    ctx.Text(child),
				RawImport: ctx.Text(node),
				Location:  ctx.Location(child),
			})
		case "aliased_import":
			e.appendImport(ctx, node, Import{
				Module:    ctx.Text(child.ChildByFieldName("name")),
				RawImport: ctx.Text(node),
				Alias:     ctx.Text(child.ChildByFieldName("alias")),
				Location:  ctx.Location(child),
			})
		}
	}
	return true
}

func (e *PythonExtractor) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	imp := Import{
		RawImport:  ctx.Text(node),
		FromImport: true,
		Location:   ctx.Location(node),
	}

	if node.Kind() == "future_import_statement" {
		imp.Module = "__future__"
	} else if moduleNode := node.ChildByFieldName("module_name"); moduleNode != nil {
		if moduleNode.Kind() == "relative_import" {
			imp.IsRelative = true
			for _, part := range namedChildren(moduleNode) {
				switch part.Kind() {
				case "import_prefix":
					imp.RelativeLevel = strings.Count(ctx.Text(part), ".")
				case "dotted_name":
					imp.Module = ctx.Text(part)
				}
			}
		} else {
			imp.Module = ctx.Text(moduleNode)
		}
	}

	seenImportKeyword := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "import" {
			seenImportKeyword = true
			continue
		}
		if !seenImportKeyword {
			continue
		}
		e.collectItems(ctx, child, &imp)
	}

	e.appendImport(ctx, node, imp)
	return true
}

func (e *PythonExtractor) collectItems(ctx *ExtractionContext, node *sitter.Node, imp *Import) {
	switch node.Kind() {
	case "dotted_name", "identifier":
		imp.Items = append(imp.Items, ImportItem{Name: ctx.Text(node)})
	case "aliased_import":
		imp.Items = append(imp.Items, ImportItem{
			Name:  ctx.Text(node.ChildByFieldName("name")),
			Alias: ctx.Text(node.ChildByFieldName("alias")),
		})
	case "wildcard_import":
		imp.Wildcard = true
	case "comment":
	default:
		for i := uint(0); i < node.NamedChildCount(); i++ {
			e.collectItems(ctx, node.NamedChild(i), imp)
		}
	}
}

func (e *PythonExtractor) appendImport(ctx *ExtractionContext, stmt *sitter.Node, imp Import) {
	ctx.File.Imports = append(ctx.File.Imports, imp)
	if !atModuleScope(stmt) {
		return
	}
	for _, name := range imp.BoundNames() {
		ctx.File.Definitions = append(ctx.File.Definitions, Definition{
			Name:     name,
			Kind:     KindImport,
			Location: imp.Location,
		})
	}
}

// collectModuleScope records the names a module binds at its top level,
// descending into compound statements whose bodies run at module scope.
func (e *PythonExtractor) collectModuleScope(ctx *ExtractionContext, node *sitter.Node) {
	for _, stmt := range namedChildren(node) {
		switch stmt.Kind() {
		case "function_definition":
			e.addFunction(ctx, stmt)
		case "class_definition":
			if name := stmt.ChildByFieldName("name"); name != nil {
				ctx.addDefinition(name, KindClass)
			}
		case "decorated_definition":
			def := stmt.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			if def.Kind() == "function_definition" {
				e.addFunction(ctx, def)
			} else if name := def.ChildByFieldName("name"); name != nil {
				ctx.addDefinition(name, KindClass)
			}
		case "expression_statement":
			for _, expr := range namedChildren(stmt) {
				e.collectAssignment(ctx, expr)
			}
		case "type_alias_statement":
			if left := stmt.ChildByFieldName("left"); left != nil {
				e.collectTargets(ctx, left)
			}
		case "for_statement":
			e.collectTargets(ctx, stmt.ChildByFieldName("left"))
			e.collectModuleScope(ctx, stmt)
		case "with_statement":
			e.collectWithTargets(ctx, stmt)
			e.collectModuleScope(ctx, stmt)
		case "if_statement", "while_statement", "try_statement", "match_statement",
			"block", "elif_clause", "else_clause", "except_clause", "except_group_clause",
			"finally_clause", "case_clause":
			e.collectModuleScope(ctx, stmt)
		}
	}
}

func (e *PythonExtractor) addFunction(ctx *ExtractionContext, node *sitter.Node) {
	name := node.ChildByFieldName("name")
	if name == nil {
		return
	}
	ctx.addDefinition(name, KindFunction)
	if first := node.Child(0); first != nil && first.Kind() == "async" {
		ctx.File.Definitions[len(ctx.File.Definitions)-1].Async = true
	}
}

func (e *PythonExtractor) collectAssignment(ctx *ExtractionContext, expr *sitter.Node) {
	switch expr.Kind() {
	case "assignment":
		e.collectTargets(ctx, expr.ChildByFieldName("left"))
		if right := expr.ChildByFieldName("right"); right != nil && right.Kind() == "assignment" {
			e.collectAssignment(ctx, right)
		}
	case "augmented_assignment":
		e.collectTargets(ctx, expr.ChildByFieldName("left"))
	case "named_expression":
		if name := expr.ChildByFieldName("name"); name != nil {
			ctx.addDefinition(name, KindVariable)
		}
	}
}

func (e *PythonExtractor) collectTargets(ctx *ExtractionContext, target *sitter.Node) {
	if target == nil {
		return
	}
	switch target.Kind() {
	case "identifier":
		ctx.addDefinition(target, KindVariable)
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list",
		"parenthesized_expression", "list_splat_pattern", "list_splat", "type":
		for _, child := range namedChildren(target) {
			e.collectTargets(ctx, child)
		}
	}
}

func (e *PythonExtractor) collectWithTargets(ctx *ExtractionContext, stmt *sitter.Node) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Kind() {
		case "block":
			return
		case "as_pattern_target":
			for _, child := range namedChildren(n) {
				e.collectTargets(ctx, child)
			}
			return
		}
		for _, child := range namedChildren(n) {
			walk(child)
		}
	}
	for _, child := range namedChildren(stmt) {
		if child.Kind() == "with_clause" {
			walk(child)
		}
	}
}

// atModuleScope reports whether node executes in the module namespace.
func atModuleScope(node *sitter.Node) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "function_definition", "class_definition", "lambda":
			return false
		}
	}
	return true
}
