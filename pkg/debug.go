package pkg

import (
	"encoding/json"
	"io"
)

// PrettyPrint writes v to w as indented JSON.
func PrettyPrint(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
