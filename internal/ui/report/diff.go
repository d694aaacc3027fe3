package report

import (
	"fmt"

	"importfix/internal/engine/fixer"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// PreviewDiff renders a unified diff of what applying fp would change.
func PreviewDiff(fp fixer.FilePlan) (string, error) {
	before, after, err := fixer.Preview(fp)
	if err != nil {
		return "", err
	}
	return UnifiedDiff(fp.Path, string(before), string(after)), nil
}

func UnifiedDiff(path, before, after string) string {
	edits := myers.ComputeEdits(span.URIFromPath(path), before, after)
	return fmt.Sprint(gotextdiff.ToUnified("a/"+path, "b/"+path, before, edits))
}
