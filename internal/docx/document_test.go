package docx_test

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"docgen/internal/docx"
	"docgen/internal/docx/docxtest"
	"docgen/internal/placeholder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, data []byte) *docx.Document {
	t.Helper()
	doc, err := docx.Parse("test.docx", data)
	require.NoError(t, err)
	return doc
}

func reopen(t *testing.T, doc *docx.Document) *docx.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, doc.Save(&buf))
	return parse(t, buf.Bytes())
}

func partBytes(t *testing.T, data []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		return content
	}
	t.Fatalf("part %s not found", name)
	return nil
}

func TestParse_ParagraphsAndRuns(t *testing.T) {
	doc := parse(t, docxtest.Build(t,
		[]string{"Hello ", "[@NA", "ME]"},
		[]string{"second line"},
	))

	paragraphs, err := doc.Paragraphs()
	require.NoError(t, err)
	require.Len(t, paragraphs, 2)

	assert.Equal(t, "Hello [@NAME]", paragraphs[0].Text())
	assert.Len(t, paragraphs[0].Runs(), 3)
	assert.Equal(t, "second line", paragraphs[1].Text())

	runs, err := doc.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 4)
	for _, r := range runs[:3] {
		id, ok := r.Paragraph()
		assert.True(t, ok)
		assert.Equal(t, paragraphs[0].ID(), id)
	}

	para, ok := doc.ParagraphOf(runs[3])
	require.True(t, ok)
	assert.Same(t, paragraphs[1], para)
}

func TestParse_RejectsNonPackages(t *testing.T) {
	_, err := docx.Parse("broken.docx", []byte("not a zip"))
	require.ErrorIs(t, err, docx.ErrInvalidPackage)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err = zw.Create("readme.txt")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = docx.Parse("empty.docx", buf.Bytes())
	require.ErrorIs(t, err, docx.ErrInvalidPackage)
}

func TestRuns_MalformedXMLFailsOnTraversal(t *testing.T) {
	doc := parse(t, docxtest.Package(t, docxtest.Body("<w:p><w:r><w:t>unclosed</w:r></w:p>"), nil))

	_, err := doc.TextRuns()
	require.Error(t, err)

	err = placeholder.Resolve(doc, map[string]string{"A": "b"})
	require.ErrorIs(t, err, placeholder.ErrResolution)
}

func TestSave_RoundTripsEditedText(t *testing.T) {
	original := docxtest.Build(t,
		[]string{"Dear ", "[@NAME]", ","},
		[]string{"untouched & kept"},
	)
	doc := parse(t, original)

	require.NoError(t, placeholder.Resolve(doc, map[string]string{"NAME": "Ada <Lovelace>"}))

	again := reopen(t, doc)
	text, err := again.Text()
	require.NoError(t, err)
	assert.Equal(t, "Dear Ada <Lovelace>,\nuntouched & kept", text)

	runs, err := again.Runs()
	require.NoError(t, err)
	assert.Equal(t, "Dear Ada <Lovelace>,", runs[0].Text())
	assert.Equal(t, "", runs[1].Text())
	assert.Equal(t, "", runs[2].Text())
}

func TestSave_UnchangedPackageKeepsPartBytes(t *testing.T) {
	original := docxtest.Build(t, []string{"no tokens here"})
	doc := parse(t, original)
	require.NoError(t, placeholder.Resolve(doc, map[string]string{"NAME": "Ada"}))

	var buf bytes.Buffer
	require.NoError(t, doc.Save(&buf))

	assert.Equal(t,
		partBytes(t, original, "word/document.xml"),
		partBytes(t, buf.Bytes(), "word/document.xml"))
	assert.Equal(t,
		partBytes(t, original, "[Content_Types].xml"),
		partBytes(t, buf.Bytes(), "[Content_Types].xml"))
}

func TestSave_SelfClosingAndSpacePreservation(t *testing.T) {
	body := `<w:p><w:r><w:t/></w:r><w:r><w:t>x</w:t></w:r></w:p>`
	doc := parse(t, docxtest.Package(t, docxtest.Body(body), nil))

	runs, err := doc.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "", runs[0].Text())

	runs[0].SetText(" padded ")
	runs[1].SetText("y")

	var buf bytes.Buffer
	require.NoError(t, doc.Save(&buf))
	xml := string(partBytes(t, buf.Bytes(), "word/document.xml"))
	assert.Contains(t, xml, `<w:t xml:space="preserve"> padded </w:t>`)
	assert.Contains(t, xml, `<w:t>y</w:t>`)

	again := parse(t, buf.Bytes())
	text, err := again.Text()
	require.NoError(t, err)
	assert.Equal(t, " padded y", text)
}

func TestParse_HeadersFootersAndOrphans(t *testing.T) {
	header := `<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		docxtest.Paragraphs([]string{"Header [@TITLE]"}) + `</w:hdr>`
	footer := `<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:t>orphan [@PAGE]</w:t></w:ftr>`

	doc := parse(t, docxtest.Package(t, docxtest.Body(docxtest.Paragraphs([]string{"Body"})), map[string]string{
		"word/footer1.xml": footer,
		"word/header1.xml": header,
	}))

	runs, err := doc.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "Body", runs[0].Text())
	assert.Equal(t, "Header [@TITLE]", runs[1].Text())
	assert.Equal(t, "orphan [@PAGE]", runs[2].Text())

	_, ok := runs[2].Paragraph()
	assert.False(t, ok)
	_, ok = doc.ParagraphOf(runs[2])
	assert.False(t, ok)

	require.NoError(t, placeholder.Resolve(doc, map[string]string{"TITLE": "Report", "PAGE": "1"}))
	again := reopen(t, doc)
	runs, err = again.Runs()
	require.NoError(t, err)
	assert.Equal(t, "Header Report", runs[1].Text())
	assert.Equal(t, "orphan 1", runs[2].Text())
}

func TestParse_NestedParagraphsGroupByInnermost(t *testing.T) {
	body := `<w:p><w:r><w:t>outer </w:t></w:r>` +
		`<w:r><w:txbxContent><w:p><w:r><w:t>inner</w:t></w:r></w:p></w:txbxContent></w:r>` +
		`<w:r><w:t>tail</w:t></w:r></w:p>`
	doc := parse(t, docxtest.Package(t, docxtest.Body(body), nil))

	paragraphs, err := doc.Paragraphs()
	require.NoError(t, err)
	require.Len(t, paragraphs, 2)
	assert.Equal(t, "outer tail", paragraphs[0].Text())
	assert.Equal(t, "inner", paragraphs[1].Text())
}

func TestAddFontDir_Deduplicates(t *testing.T) {
	doc := parse(t, docxtest.Build(t, []string{"x"}))
	doc.AddFontDir("/fonts")
	doc.AddFontDir("/fonts")
	doc.AddFontDir("/more")
	assert.Equal(t, []string{"/fonts", "/more"}, doc.FontDirs())
}
