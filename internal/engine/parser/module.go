package parser

import (
	"path"
	"strings"
)

const packageIndexName = "__init__"

// ModuleName derives the dotted module name for a slash-separated path
// relative to the project root. A package index (__init__.py) names its
// directory. The second result is the dotted path of the containing
// directory, empty for files at the root.
func ModuleName(relPath string) (module, pkg string, isIndex bool) {
	relPath = strings.TrimPrefix(path.Clean(strings.ReplaceAll(relPath, "\\", "/")), "./")
	dir, base := path.Split(relPath)
	stem := strings.TrimSuffix(base, path.Ext(base))

	dir = strings.Trim(dir, "/")
	if dir != "" {
		pkg = strings.ReplaceAll(dir, "/", ".")
	}

	if stem == packageIndexName {
		return pkg, pkg, true
	}
	if pkg == "" {
		return stem, "", false
	}
	return pkg + "." + stem, pkg, false
}
