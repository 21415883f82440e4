package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"docgen"
	"docgen/internal/docx"
	"docgen/internal/placeholder"
	"docgen/internal/render"

	"github.com/rs/zerolog"
)

// DefaultOutputDir is used when a pipeline is built without an output root.
const DefaultOutputDir = "pdfs"

// Source loads a fresh, independently editable copy of a template.
type Source interface {
	Load(ctx context.Context, name string) (*docx.Document, error)
}

type Stage int

const (
	StagePending Stage = iota
	StageValidated
	StageLoaded
	StageResolved
	StageRendered
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageValidated:
		return "validated"
	case StageLoaded:
		return "loaded"
	case StageResolved:
		return "resolved"
	case StageRendered:
		return "rendered"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageHook observes every state transition of a request. err is non-nil
// only for StageFailed. Hooks may be called from several goroutines.
type StageHook func(req Request, stage Stage, err error)

// Pipeline produces one PDF per request: load, resolve, render, write.
type Pipeline struct {
	source    Source
	renderer  render.Renderer
	outputDir string
	logger    zerolog.Logger
	hook      StageHook
}

type Option func(*Pipeline)

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

func WithStageHook(hook StageHook) Option {
	return func(p *Pipeline) { p.hook = hook }
}

func New(src Source, renderer render.Renderer, outputDir string, opts ...Option) *Pipeline {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	p := &Pipeline{
		source:    src,
		renderer:  renderer,
		outputDir: outputDir,
		logger:    docgen.Logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) OutputDir() string { return p.outputDir }

// Generate renders req into <outputDir>/<outputName>.pdf. Every failure is
// an *Error. A partially written artifact is removed.
func (p *Pipeline) Generate(ctx context.Context, req Request) (Result, error) {
	p.transition(req, StagePending, nil)

	if err := req.Validate(); err != nil {
		return p.fail(req, req.OutputName, KindInvalidArgument, err)
	}
	output := NormalizeOutputName(req.OutputName)
	if !filepath.IsLocal(output) {
		return p.fail(req, output, KindInvalidArgument, fmt.Errorf("outputName %q must stay inside the output directory", output))
	}
	p.transition(req, StageValidated, nil)

	doc, err := p.source.Load(ctx, req.TemplateName)
	if err != nil {
		kind := KindOf(err)
		if kind == KindUnknown {
			kind = KindIO
		}
		return p.fail(req, output, kind, err)
	}
	p.transition(req, StageLoaded, nil)

	if setup := p.renderer.ConfigureDefaults(ctx, doc); !setup.IsConfigured() {
		p.logger.Warn().
			Str("template", req.TemplateName).
			Str("reason", setup.Reason()).
			Msg("Rendering with default fonts")
	}

	if err := placeholder.Resolve(doc, req.Metadata); err != nil {
		return p.fail(req, output, KindResolution, err)
	}
	p.transition(req, StageResolved, nil)

	path := filepath.Join(p.outputDir, output)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return p.fail(req, output, KindIO, err)
	}
	if kind, err := p.write(ctx, doc, path); err != nil {
		return p.fail(req, output, kind, err)
	}
	p.transition(req, StageRendered, nil)

	p.logger.Info().Str("template", req.TemplateName).Str("output", path).Msg("Document generated")
	return Result{OutputPath: path}, nil
}

// write streams the rendered document into path. File and stream errors are
// IO failures; any other renderer error is a rendering failure.
func (p *Pipeline) write(ctx context.Context, doc *docx.Document, path string) (Kind, error) {
	f, err := os.Create(path)
	if err != nil {
		return KindIO, err
	}
	w := &artifactWriter{w: f}
	if err := p.renderer.Render(ctx, doc, w); err != nil {
		f.Close()
		os.Remove(path)
		return renderKind(err, w.err), err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return KindIO, err
	}
	return KindUnknown, nil
}

func renderKind(err, writeErr error) Kind {
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, render.ErrBackendMissing), errors.Is(err, render.ErrRejected):
		return KindRendering
	case writeErr != nil, errors.As(err, &pathErr):
		return KindIO
	default:
		return KindRendering
	}
}

// artifactWriter remembers the first write error of the output file.
type artifactWriter struct {
	w   io.Writer
	err error
}

func (a *artifactWriter) Write(b []byte) (int, error) {
	n, err := a.w.Write(b)
	if err != nil && a.err == nil {
		a.err = err
	}
	return n, err
}

func (p *Pipeline) fail(req Request, output string, kind Kind, err error) (Result, error) {
	genErr := &Error{Kind: kind, Template: req.TemplateName, Output: output, Err: err}
	p.logger.Error().
		Err(err).
		Str("template", req.TemplateName).
		Str("output", output).
		Str("kind", kind.String()).
		Msg("Document generation failed")
	p.transition(req, StageFailed, genErr)
	return Result{}, genErr
}

func (p *Pipeline) transition(req Request, stage Stage, err error) {
	if p.hook != nil {
		p.hook(req, stage, err)
	}
}
