package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// useCollector separates identifier reads from bindings. Scoping is
// file-wide: a name bound anywhere in the file is a local symbol.
type useCollector struct {
	ctx *ExtractionContext
}

func newUseCollector(ctx *ExtractionContext) *useCollector {
	return &useCollector{ctx: ctx}
}

func (u *useCollector) visit(node *sitter.Node) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "identifier":
		u.ctx.addReference(node)
	case "comment", "import_statement", "import_from_statement", "future_import_statement":
	case "attribute":
		u.visit(node.ChildByFieldName("object"))
	case "dotted_name":
		if first := node.NamedChild(0); first != nil {
			u.ctx.addReference(first)
		}
	case "keyword_argument":
		u.visit(node.ChildByFieldName("value"))
	case "function_definition":
		u.bind(node.ChildByFieldName("name"))
		u.ctx.AppendLocalIdentifiers(node.ChildByFieldName("type_parameters"))
		u.visitParameters(node.ChildByFieldName("parameters"))
		u.visit(node.ChildByFieldName("return_type"))
		u.visit(node.ChildByFieldName("body"))
	case "class_definition":
		u.bind(node.ChildByFieldName("name"))
		u.ctx.AppendLocalIdentifiers(node.ChildByFieldName("type_parameters"))
		u.visit(node.ChildByFieldName("superclasses"))
		u.visit(node.ChildByFieldName("body"))
	case "lambda":
		u.visitParameters(node.ChildByFieldName("parameters"))
		u.visit(node.ChildByFieldName("body"))
	case "assignment":
		u.visitTarget(node.ChildByFieldName("left"))
		u.visit(node.ChildByFieldName("type"))
		u.visit(node.ChildByFieldName("right"))
	case "augmented_assignment":
		u.visitTarget(node.ChildByFieldName("left"))
		u.visit(node.ChildByFieldName("right"))
	case "named_expression":
		u.bind(node.ChildByFieldName("name"))
		u.visit(node.ChildByFieldName("value"))
	case "for_statement", "for_in_clause":
		left := node.ChildByFieldName("left")
		u.visitTarget(left)
		u.visitExcept(node, left)
	case "as_pattern":
		for _, child := range namedChildren(node) {
			if child.Kind() == "as_pattern_target" {
				u.visitTarget(child)
				continue
			}
			u.visit(child)
		}
	case "except_clause", "except_group_clause":
		u.visitExceptClause(node)
	case "global_statement", "nonlocal_statement":
		u.ctx.AppendLocalIdentifiers(node)
	case "delete_statement":
		for _, child := range namedChildren(node) {
			u.visitDeleteTarget(child)
		}
	case "type_alias_statement":
		u.ctx.AppendLocalIdentifiers(node.ChildByFieldName("left"))
		u.visit(node.ChildByFieldName("right"))
	case "case_clause":
		for _, child := range namedChildren(node) {
			if child.Kind() == "case_pattern" {
				u.visitPattern(child)
				continue
			}
			u.visit(child)
		}
	default:
		for i := uint(0); i < node.ChildCount(); i++ {
			u.visit(node.Child(i))
		}
	}
}

func (u *useCollector) bind(node *sitter.Node) {
	if node == nil {
		return
	}
	u.ctx.File.LocalSymbols = append(u.ctx.File.LocalSymbols, u.ctx.Text(node))
}

// visitExcept visits every named child of node other than skip.
func (u *useCollector) visitExcept(node, skip *sitter.Node) {
	for _, child := range namedChildren(node) {
		if skip != nil && sameNode(child, skip) {
			continue
		}
		u.visit(child)
	}
}

func (u *useCollector) visitTarget(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier":
		u.bind(node)
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list",
		"parenthesized_expression", "list_splat_pattern", "list_splat", "as_pattern_target":
		for _, child := range namedChildren(node) {
			u.visitTarget(child)
		}
	default:
		// attribute and subscript targets read their object
		u.visit(node)
	}
}

func (u *useCollector) visitDeleteTarget(node *sitter.Node) {
	switch node.Kind() {
	case "identifier":
	case "expression_list", "tuple", "list", "parenthesized_expression":
		for _, child := range namedChildren(node) {
			u.visitDeleteTarget(child)
		}
	default:
		u.visit(node)
	}
}

func (u *useCollector) visitExceptClause(node *sitter.Node) {
	bindNext := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "as" {
			bindNext = true
			continue
		}
		if !child.IsNamed() {
			continue
		}
		if bindNext {
			u.visitTarget(child)
			bindNext = false
			continue
		}
		u.visit(child)
	}
}

func (u *useCollector) visitParameters(params *sitter.Node) {
	if params == nil {
		return
	}
	for _, param := range namedChildren(params) {
		switch param.Kind() {
		case "identifier":
			u.bind(param)
		case "typed_parameter":
			for _, child := range namedChildren(param) {
				if child.Kind() == "type" {
					u.visit(child)
					continue
				}
				u.ctx.AppendLocalIdentifiers(child)
			}
		case "default_parameter", "typed_default_parameter":
			u.ctx.AppendLocalIdentifiers(param.ChildByFieldName("name"))
			u.visit(param.ChildByFieldName("type"))
			u.visit(param.ChildByFieldName("value"))
		case "list_splat_pattern", "dictionary_splat_pattern", "tuple_pattern":
			u.ctx.AppendLocalIdentifiers(param)
		}
	}
}

// visitPattern handles match-statement patterns: single names capture,
// dotted names and class patterns read their root.
func (u *useCollector) visitPattern(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "dotted_name":
		parts := namedChildren(node)
		if len(parts) == 1 {
			u.bind(parts[0])
			return
		}
		if len(parts) > 1 {
			u.ctx.addReference(parts[0])
		}
	case "identifier":
		u.bind(node)
	case "class_pattern":
		for i, child := range namedChildren(node) {
			if i == 0 && child.Kind() == "dotted_name" {
				u.visit(child)
				continue
			}
			u.visitPattern(child)
		}
	case "keyword_pattern":
		for i, child := range namedChildren(node) {
			if i == 0 && child.Kind() == "identifier" {
				continue
			}
			u.visitPattern(child)
		}
	case "as_pattern":
		for _, child := range namedChildren(node) {
			if child.Kind() == "as_pattern_target" {
				u.ctx.AppendLocalIdentifiers(child)
				continue
			}
			u.visitPattern(child)
		}
	case "splat_pattern":
		u.ctx.AppendLocalIdentifiers(node)
	default:
		for _, child := range namedChildren(node) {
			u.visitPattern(child)
		}
	}
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}
