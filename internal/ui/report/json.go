package report

import (
	"encoding/json"
	"io"
)

// RenderJSON writes r as an indented JSON document.
func RenderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
