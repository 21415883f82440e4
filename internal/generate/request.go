package generate

import (
	"errors"
	"maps"
	"strings"
)

// Extension is appended to every output name.
const Extension = ".pdf"

// Request asks for one artifact rendered from a template.
type Request struct {
	TemplateName string
	Metadata     map[string]string
	OutputName   string
}

// Result locates a produced artifact.
type Result struct {
	OutputPath string
}

// Validate checks the identifiers of the request.
func (r Request) Validate() error {
	if strings.TrimSpace(r.TemplateName) == "" {
		return errors.New("templateName must not be empty")
	}
	if strings.TrimSpace(r.OutputName) == "" {
		return errors.New("outputName must not be empty")
	}
	return nil
}

// Clone copies the request so later changes to the caller's metadata map
// cannot reach it.
func (r Request) Clone() Request {
	r.Metadata = maps.Clone(r.Metadata)
	return r
}

// NormalizeOutputName trims name and appends Extension unless present.
// NormalizeOutputName(NormalizeOutputName(x)) == NormalizeOutputName(x).
func NormalizeOutputName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, Extension) {
		return name
	}
	return name + Extension
}
