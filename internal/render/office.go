package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"docgen"
	"docgen/internal/docx"
	"docgen/pkg"

	"github.com/rs/zerolog"
)

const installHint = "install LibreOffice (soffice) or point SOFFICE_PATH at it"

var fontExtensions = map[string]bool{
	".ttf": true,
	".otf": true,
	".ttc": true,
	".pfb": true,
}

// Office converts documents to PDF with a headless LibreOffice process.
// Every conversion runs with its own user profile so several conversions
// can run side by side.
type Office struct {
	binary  string
	fontDir string
	tempDir string
	logger  zerolog.Logger

	fontsOnce sync.Once
	fonts     []string
	fontsErr  error
}

type OfficeOption func(*Office)

// WithFontDir adds a directory of font files to every conversion.
func WithFontDir(dir string) OfficeOption {
	return func(o *Office) { o.fontDir = dir }
}

// WithTempDir sets where conversion workspaces are created.
func WithTempDir(dir string) OfficeOption {
	return func(o *Office) { o.tempDir = dir }
}

func WithLogger(logger zerolog.Logger) OfficeOption {
	return func(o *Office) { o.logger = logger }
}

// NewOffice returns a renderer that runs binary (a name looked up on PATH
// or an absolute path).
func NewOffice(binary string, opts ...OfficeOption) *Office {
	o := &Office{binary: binary, logger: docgen.Logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ConfigureDefaults discovers the fonts of the configured font directory
// once per renderer and attaches the directory to doc.
func (o *Office) ConfigureDefaults(ctx context.Context, doc *docx.Document) FontSetup {
	if o.fontDir == "" {
		return UsingDefaults("no font directory configured")
	}

	fonts, err := o.discoverFonts()
	if err != nil {
		return UsingDefaults(fmt.Sprintf("font discovery failed: %v", err))
	}
	if len(fonts) == 0 {
		return UsingDefaults(fmt.Sprintf("no fonts found in %s", o.fontDir))
	}

	doc.AddFontDir(o.fontDir)
	return FontsConfigured(len(fonts))
}

func (o *Office) discoverFonts() ([]string, error) {
	o.fontsOnce.Do(func() {
		o.fontsErr = filepath.WalkDir(o.fontDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && fontExtensions[strings.ToLower(filepath.Ext(path))] {
				o.fonts = append(o.fonts, path)
			}
			return nil
		})
		if o.fontsErr == nil {
			o.logger.Debug().Str("dir", o.fontDir).Int("fonts", len(o.fonts)).Msg("Fonts discovered")
		}
	})
	return o.fonts, o.fontsErr
}

// Render saves doc into a private workspace, converts it and streams the
// resulting PDF to w.
func (o *Office) Render(ctx context.Context, doc *docx.Document, w io.Writer) error {
	bin, err := exec.LookPath(o.binary)
	if err != nil {
		return fmt.Errorf("%w: %s not found: %s", ErrBackendMissing, o.binary, installHint)
	}

	work, err := os.MkdirTemp(o.tempDir, "docgen-*")
	if err != nil {
		return fmt.Errorf("failed to create render workspace: %w", err)
	}
	defer os.RemoveAll(work)

	source := filepath.Join(work, "document.docx")
	if err := writeDocument(source, doc); err != nil {
		return err
	}

	profile, err := filepath.Abs(filepath.Join(work, "profile"))
	if err != nil {
		return fmt.Errorf("failed to resolve profile dir: %w", err)
	}
	args := []string{
		"-env:UserInstallation=file://" + filepath.ToSlash(profile),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", work,
		source,
	}
	var env []string
	if dirs := doc.FontDirs(); len(dirs) > 0 {
		env = append(env, "SAL_FONTPATH="+strings.Join(dirs, ";"))
	}

	o.logger.Debug().Str("template", doc.Name()).Str("workspace", work).Msg("Converting document")
	if _, err := pkg.RunCommandLine(ctx, work, env, bin, args...); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %v: %s", ErrBackendMissing, err, installHint)
		}
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}

	pdf, err := os.Open(filepath.Join(work, "document.pdf"))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: converter produced no output for %s", ErrRejected, doc.Name())
	}
	if err != nil {
		return err
	}
	defer pdf.Close()

	_, err = io.Copy(w, pdf)
	return err
}

func writeDocument(path string, doc *docx.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create render input: %w", err)
	}
	if err := doc.Save(f); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return f.Close()
}
