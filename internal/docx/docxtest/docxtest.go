// Package docxtest builds small DOCX packages for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentClose = `<w:sectPr/></w:body></w:document>`

// Paragraphs renders one w:p per entry, one w:r/w:t per run. Runs are
// escaped and carry a bold property on every other run so that the
// package looks like something a word processor split apart.
func Paragraphs(paragraphs ...[]string) string {
	var b strings.Builder
	for _, runs := range paragraphs {
		b.WriteString("<w:p>")
		for i, text := range runs {
			b.WriteString("<w:r>")
			if i%2 == 1 {
				b.WriteString("<w:rPr><w:b/></w:rPr>")
			}
			b.WriteString(`<w:t xml:space="preserve">`)
			_ = xml.EscapeText(&b, []byte(text))
			b.WriteString("</w:t></w:r>")
		}
		b.WriteString("</w:p>")
	}
	return b.String()
}

// Body wraps raw body XML into a complete word/document.xml.
func Body(body string) string {
	return documentOpen + body + documentClose
}

// Package zips the given parts together with the boilerplate entries.
// parts maps part names such as "word/header1.xml" to their XML.
func Package(t testing.TB, documentXML string, parts map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("docxtest: create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("docxtest: write %s: %v", name, err)
		}
	}

	write("[Content_Types].xml", contentTypes)
	write("_rels/.rels", rels)
	write("word/document.xml", documentXML)
	for name, content := range parts {
		write(name, content)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("docxtest: close: %v", err)
	}
	return buf.Bytes()
}

// Build returns a package whose main part holds the given paragraphs.
func Build(t testing.TB, paragraphs ...[]string) []byte {
	t.Helper()
	return Package(t, Body(Paragraphs(paragraphs...)), nil)
}

// WriteFile stores a package built from paragraphs under dir/name.
func WriteFile(t testing.TB, dir, name string, paragraphs ...[]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("docxtest: mkdir: %v", err)
	}
	if err := os.WriteFile(path, Build(t, paragraphs...), 0o644); err != nil {
		t.Fatalf("docxtest: write %s: %v", path, err)
	}
	return path
}
