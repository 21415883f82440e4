// Package docx is the editable document model behind template resolution.
//
// A Document keeps the raw package in memory and indexes the text runs
// (w:t elements) of the main document part and of every header and footer
// part. Each run records the paragraph (w:p) that encloses it when the part
// is scanned, so grouping runs by paragraph never needs to walk the XML
// again. Saving rewrites only the text of edited runs; every other byte of
// the package is copied as is.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"docgen/internal/placeholder"
)

const (
	mainPart = "word/document.xml"
	wordNS   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// ErrInvalidPackage is returned for input that is not a readable DOCX package.
var ErrInvalidPackage = errors.New("docx: invalid package")

type entry struct {
	name   string
	method uint16
	data   []byte
}

// Document is an in-memory DOCX package. It is not safe for concurrent use.
type Document struct {
	name    string
	entries []*entry
	parts   []*part

	fontDirs []string

	scanned    bool
	scanErr    error
	paragraphs []*Paragraph
	runs       []*Run
}

// Paragraph groups the runs of one w:p element.
type Paragraph struct {
	id   int
	runs []*Run
}

// ID is the paragraph's position in document order.
func (p *Paragraph) ID() int { return p.id }

// Runs returns the paragraph's runs in order.
func (p *Paragraph) Runs() []*Run { return p.runs }

// Text is the concatenated text of the paragraph's runs.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.runs {
		b.WriteString(r.text)
	}
	return b.String()
}

// Run is a single w:t element.
type Run struct {
	part      *part
	paragraph int // -1 for text outside any paragraph

	// Byte offsets into part.data: [tagStart, tagEnd) is the start tag and
	// [textStart, textEnd) the character data up to the end tag.
	tagStart, tagEnd   int
	textStart, textEnd int
	selfClosing        bool
	preserveSpace      bool

	text  string
	dirty bool
}

// Text returns the run's current text.
func (r *Run) Text() string { return r.text }

// SetText replaces the run's text.
func (r *Run) SetText(text string) {
	if text == r.text {
		return
	}
	r.text = text
	r.dirty = true
	r.part.dirty = true
}

// Paragraph returns the enclosing paragraph id.
func (r *Run) Paragraph() (int, bool) {
	return r.paragraph, r.paragraph >= 0
}

// Parse reads a DOCX package. name is informational and used in errors.
func Parse(name string, data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPackage, name, err)
	}

	doc := &Document{name: name}
	for _, f := range zr.File {
		content, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s: %v", ErrInvalidPackage, name, f.Name, err)
		}
		e := &entry{name: f.Name, method: f.Method, data: content}
		doc.entries = append(doc.entries, e)
		if isTextPart(f.Name) {
			doc.parts = append(doc.parts, &part{entry: e})
		}
	}

	sort.SliceStable(doc.parts, func(i, j int) bool {
		return partRank(doc.parts[i].entry.name) < partRank(doc.parts[j].entry.name)
	})
	if len(doc.parts) == 0 || doc.parts[0].entry.name != mainPart {
		return nil, fmt.Errorf("%w: %s: missing %s", ErrInvalidPackage, name, mainPart)
	}
	return doc, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func isTextPart(name string) bool {
	if name == mainPart {
		return true
	}
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") || strings.Count(name, "/") != 1 {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

// partRank orders the main part first, then headers, then footers.
func partRank(name string) string {
	switch {
	case name == mainPart:
		return "0"
	case strings.HasPrefix(name, "word/header"):
		return "1" + name
	default:
		return "2" + name
	}
}

// Name returns the name the document was loaded under.
func (d *Document) Name() string { return d.name }

// Paragraphs returns every paragraph in document order.
func (d *Document) Paragraphs() ([]*Paragraph, error) {
	if err := d.scan(); err != nil {
		return nil, err
	}
	return d.paragraphs, nil
}

// Runs returns every text run in document order, including orphan runs.
func (d *Document) Runs() ([]*Run, error) {
	if err := d.scan(); err != nil {
		return nil, err
	}
	return d.runs, nil
}

// TextRuns exposes the runs to the placeholder resolver.
func (d *Document) TextRuns() ([]placeholder.Run, error) {
	runs, err := d.Runs()
	if err != nil {
		return nil, err
	}
	out := make([]placeholder.Run, len(runs))
	for i, r := range runs {
		out[i] = r
	}
	return out, nil
}

// ParagraphOf returns the paragraph enclosing r, if any.
func (d *Document) ParagraphOf(r *Run) (*Paragraph, bool) {
	if err := d.scan(); err != nil || r.paragraph < 0 || r.paragraph >= len(d.paragraphs) {
		return nil, false
	}
	return d.paragraphs[r.paragraph], true
}

// Text returns the document text, one line per paragraph.
func (d *Document) Text() (string, error) {
	paragraphs, err := d.Paragraphs()
	if err != nil {
		return "", err
	}
	lines := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		lines[i] = p.Text()
	}
	return strings.Join(lines, "\n"), nil
}

// AddFontDir records a font directory the renderer should make available
// for this document.
func (d *Document) AddFontDir(dir string) {
	for _, existing := range d.fontDirs {
		if existing == dir {
			return
		}
	}
	d.fontDirs = append(d.fontDirs, dir)
}

// FontDirs returns the font directories recorded with AddFontDir.
func (d *Document) FontDirs() []string { return d.fontDirs }

func (d *Document) scan() error {
	if d.scanned {
		return d.scanErr
	}
	d.scanned = true
	for _, p := range d.parts {
		if err := p.scan(d); err != nil {
			d.scanErr = fmt.Errorf("%s: %s: %w", d.name, p.entry.name, err)
			d.paragraphs, d.runs = nil, nil
			return d.scanErr
		}
	}
	return nil
}
