package generate

import (
	"errors"
	"fmt"
	"io/fs"

	"docgen/internal/docx"
	"docgen/internal/placeholder"
	"docgen/internal/render"
	"docgen/internal/source"
)

// Kind classifies generation failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindTemplateNotFound
	KindResolution
	KindRendering
	KindIO
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrTemplateNotFound = errors.New("template not found")
	ErrResolution       = errors.New("resolution failure")
	ErrRendering        = errors.New("rendering failure")
	ErrIO               = errors.New("io failure")
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindTemplateNotFound:
		return "TemplateNotFound"
	case KindResolution:
		return "ResolutionFailure"
	case KindRendering:
		return "RenderingFailure"
	case KindIO:
		return "IOFailure"
	default:
		return "Unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindTemplateNotFound:
		return ErrTemplateNotFound
	case KindResolution:
		return ErrResolution
	case KindRendering:
		return ErrRendering
	case KindIO:
		return ErrIO
	default:
		return nil
	}
}

// Error is the failure of one generation request. It matches both the
// sentinel of its Kind and its cause with errors.Is.
type Error struct {
	Kind     Kind
	Template string
	Output   string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generate %q -> %q: %s: %v", e.Template, e.Output, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf classifies any error produced while generating a document.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, source.ErrInvalidName):
		return KindInvalidArgument
	case errors.Is(err, ErrTemplateNotFound), errors.Is(err, source.ErrNotFound):
		return KindTemplateNotFound
	case errors.Is(err, ErrResolution), errors.Is(err, placeholder.ErrResolution), errors.Is(err, docx.ErrInvalidPackage):
		return KindResolution
	case errors.Is(err, ErrRendering), errors.Is(err, render.ErrBackendMissing), errors.Is(err, render.ErrRejected):
		return KindRendering
	case errors.Is(err, ErrIO):
		return KindIO
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return KindIO
	}
	return KindUnknown
}
