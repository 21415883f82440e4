// Package source materializes template documents by name.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"docgen/internal/docx"
)

var (
	// ErrNotFound is returned when no template exists under a name.
	ErrNotFound = errors.New("source: template not found")
	// ErrInvalidName is returned for names that are empty or escape the
	// template root.
	ErrInvalidName = errors.New("source: invalid template name")
)

// Source loads a fresh, exclusively owned document for every call.
type Source interface {
	Load(ctx context.Context, name string) (*docx.Document, error)
}

// Reader returns the raw bytes of a template.
type Reader interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// Dir serves templates from a directory tree.
type Dir struct {
	fsys fs.FS
	root string
}

// NewDir serves templates stored under root.
func NewDir(root string) *Dir {
	return &Dir{fsys: os.DirFS(root), root: root}
}

// NewFS serves templates from fsys, for example an embed.FS.
func NewFS(fsys fs.FS) *Dir {
	return &Dir{fsys: fsys, root: "."}
}

// CleanName normalizes a template name: surrounding blanks and leading
// slashes are dropped and the result must stay inside the template root.
func CleanName(name string) (string, error) {
	trimmed := strings.TrimLeft(strings.TrimSpace(name), "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	cleaned := path.Clean(trimmed)
	if !fs.ValidPath(cleaned) || cleaned == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return cleaned, nil
}

func (s *Dir) Read(ctx context.Context, name string) ([]byte, error) {
	cleaned, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(s.fsys, cleaned)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (in %s)", ErrNotFound, cleaned, s.root)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Dir) Load(ctx context.Context, name string) (*docx.Document, error) {
	return load(ctx, s, name)
}

func load(ctx context.Context, r Reader, name string) (*docx.Document, error) {
	data, err := r.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	return docx.Parse(name, data)
}

var (
	_ Source = (*Dir)(nil)
	_ Source = (*Cached)(nil)
)
