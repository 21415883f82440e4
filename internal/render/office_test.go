package render_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"docgen/internal/docx"
	"docgen/internal/docx/docxtest"
	"docgen/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDoc(t *testing.T) *docx.Document {
	t.Helper()
	doc, err := docx.Parse("letter.docx", docxtest.Build(t, []string{"Hello"}))
	require.NoError(t, err)
	return doc
}

// fakeOffice writes a shell script standing in for soffice. It copies the
// SAL_FONTPATH it was started with into the produced PDF.
func fakeOffice(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script backend")
	}
	path := filepath.Join(t.TempDir(), "soffice")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

const convertScript = `for last; do :; done
dir=$(dirname "$last")
printf '%%PDF-1.4 fonts=%s' "$SAL_FONTPATH" > "$dir/document.pdf"
`

func TestConfigureDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("no font dir", func(t *testing.T) {
		setup := render.NewOffice("soffice").ConfigureDefaults(ctx, newDoc(t))
		assert.False(t, setup.IsConfigured())
		assert.Equal(t, "no font directory configured", setup.Reason())
	})

	t.Run("missing font dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "missing")
		setup := render.NewOffice("soffice", render.WithFontDir(dir)).ConfigureDefaults(ctx, newDoc(t))
		assert.False(t, setup.IsConfigured())
		assert.Contains(t, setup.Reason(), "font discovery failed")
	})

	t.Run("dir without fonts", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))
		doc := newDoc(t)
		setup := render.NewOffice("soffice", render.WithFontDir(dir)).ConfigureDefaults(ctx, doc)
		assert.False(t, setup.IsConfigured())
		assert.Empty(t, doc.FontDirs())
	})

	t.Run("fonts discovered", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ttf"), []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.OTF"), []byte("x"), 0o644))

		doc := newDoc(t)
		setup := render.NewOffice("soffice", render.WithFontDir(dir)).ConfigureDefaults(ctx, doc)
		assert.True(t, setup.IsConfigured())
		assert.Equal(t, 2, setup.Fonts())
		assert.Equal(t, []string{dir}, doc.FontDirs())
		assert.Equal(t, "configured (2 fonts)", setup.String())
	})
}

func TestRender_MissingBackend(t *testing.T) {
	office := render.NewOffice(filepath.Join(t.TempDir(), "no-such-soffice"))
	err := office.Render(context.Background(), newDoc(t), &bytes.Buffer{})
	require.ErrorIs(t, err, render.ErrBackendMissing)
	assert.Contains(t, err.Error(), "SOFFICE_PATH")
}

func TestRender_StreamsConvertedOutput(t *testing.T) {
	bin := fakeOffice(t, convertScript)
	fonts := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(fonts, "a.ttf"), []byte("x"), 0o644))

	office := render.NewOffice(bin, render.WithFontDir(fonts), render.WithTempDir(t.TempDir()))
	doc := newDoc(t)
	require.True(t, office.ConfigureDefaults(context.Background(), doc).IsConfigured())

	var out bytes.Buffer
	require.NoError(t, office.Render(context.Background(), doc, &out))
	assert.Equal(t, "%PDF-1.4 fonts="+fonts, out.String())
}

func TestRender_BackendFailure(t *testing.T) {
	bin := fakeOffice(t, "echo 'source file could not be loaded' >&2\nexit 1\n")

	err := render.NewOffice(bin).Render(context.Background(), newDoc(t), &bytes.Buffer{})
	require.ErrorIs(t, err, render.ErrRejected)
	assert.Contains(t, err.Error(), "could not be loaded")
}

func TestRender_NoOutputProduced(t *testing.T) {
	bin := fakeOffice(t, "exit 0\n")

	err := render.NewOffice(bin).Render(context.Background(), newDoc(t), &bytes.Buffer{})
	require.ErrorIs(t, err, render.ErrRejected)
}
