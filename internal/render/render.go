// Package render turns a resolved document into the final artifact.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"

	"docgen/internal/docx"
)

var (
	// ErrBackendMissing means the rendering backend is not installed or
	// cannot be started.
	ErrBackendMissing = errors.New("render: backend not available")
	// ErrRejected means the backend ran but could not render the document.
	ErrRejected = errors.New("render: document rejected")
)

// Renderer is the collaborator the generation pipeline delegates to.
type Renderer interface {
	// ConfigureDefaults prepares the rendering environment (fonts) for doc.
	// It never fails: problems are reported through the returned FontSetup
	// and rendering proceeds with the backend's defaults.
	ConfigureDefaults(ctx context.Context, doc *docx.Document) FontSetup
	// Render writes the artifact to w. Errors from w and *fs.PathError
	// values count as I/O failures; every other error is a rendering
	// failure.
	Render(ctx context.Context, doc *docx.Document, w io.Writer) error
}

// FontSetup is the outcome of ConfigureDefaults.
type FontSetup struct {
	configured bool
	fonts      int
	reason     string
}

// FontsConfigured reports a successful font setup with n discovered fonts.
func FontsConfigured(n int) FontSetup {
	return FontSetup{configured: true, fonts: n}
}

// UsingDefaults reports that the backend's default fonts will be used.
func UsingDefaults(reason string) FontSetup {
	return FontSetup{reason: reason}
}

func (s FontSetup) IsConfigured() bool { return s.configured }

// Fonts is the number of discovered fonts; zero when using defaults.
func (s FontSetup) Fonts() int { return s.fonts }

// Reason explains why defaults are used; empty when configured.
func (s FontSetup) Reason() string { return s.reason }

func (s FontSetup) String() string {
	if s.configured {
		return fmt.Sprintf("configured (%d fonts)", s.fonts)
	}
	return "using defaults: " + s.reason
}
