package docx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const xmlNS = "http://www.w3.org/XML/1998/namespace"

type part struct {
	entry *entry
	runs  []*Run
	dirty bool
}

func isWordElement(name xml.Name, local string) bool {
	return name.Space == wordNS && name.Local == local
}

// scan indexes the part's paragraphs and text runs. The innermost open
// paragraph encloses a run, so text boxes nested in a paragraph get their
// own paragraph.
func (p *part) scan(doc *Document) error {
	data := p.entry.data
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		open    []int
		current *Run
		text    strings.Builder
	)

	for {
		offset := int(dec.InputOffset())
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case isWordElement(t.Name, "p"):
				para := &Paragraph{id: len(doc.paragraphs)}
				doc.paragraphs = append(doc.paragraphs, para)
				open = append(open, para.id)
			case isWordElement(t.Name, "t"):
				if current != nil {
					return fmt.Errorf("nested text element at offset %d", offset)
				}
				tagEnd := int(dec.InputOffset())
				current = &Run{
					part:        p,
					paragraph:   -1,
					tagStart:    offset,
					tagEnd:      tagEnd,
					selfClosing: bytes.HasSuffix(data[offset:tagEnd], []byte("/>")),
				}
				for _, attr := range t.Attr {
					if attr.Name.Local == "space" && (attr.Name.Space == xmlNS || attr.Name.Space == "xml") {
						current.preserveSpace = true
					}
				}
				if len(open) > 0 {
					current.paragraph = open[len(open)-1]
				}
				text.Reset()
			}
		case xml.CharData:
			if current != nil {
				text.Write(t)
			}
		case xml.EndElement:
			switch {
			case isWordElement(t.Name, "p"):
				if len(open) > 0 {
					open = open[:len(open)-1]
				}
			case isWordElement(t.Name, "t"):
				if current == nil {
					continue
				}
				current.textStart = current.tagEnd
				current.textEnd = offset
				current.text = text.String()
				p.runs = append(p.runs, current)
				doc.runs = append(doc.runs, current)
				if current.paragraph >= 0 {
					para := doc.paragraphs[current.paragraph]
					para.runs = append(para.runs, current)
				}
				current = nil
			}
		}
	}
	return nil
}

// render rebuilds the part bytes with the text of every edited run.
func (p *part) render() ([]byte, error) {
	data := p.entry.data
	if !p.dirty {
		return data, nil
	}

	var out bytes.Buffer
	out.Grow(len(data))
	last := 0
	for _, r := range p.runs {
		if !r.dirty {
			continue
		}
		out.Write(data[last:r.tagStart])

		qname := tagName(data[r.tagStart:r.tagEnd])
		needPreserve := !r.preserveSpace && strings.TrimSpace(r.text) != r.text

		if r.selfClosing {
			start := bytes.TrimRight(data[r.tagStart:r.tagEnd-2], " \t\r\n")
			out.Write(start)
			if needPreserve {
				out.WriteString(` xml:space="preserve"`)
			}
			out.WriteByte('>')
			if err := xml.EscapeText(&out, []byte(r.text)); err != nil {
				return nil, err
			}
			out.WriteString("</" + qname + ">")
			last = r.tagEnd
			continue
		}

		start := data[r.tagStart:r.tagEnd]
		if needPreserve {
			out.Write(start[:len(start)-1])
			out.WriteString(` xml:space="preserve">`)
		} else {
			out.Write(start)
		}
		if err := xml.EscapeText(&out, []byte(r.text)); err != nil {
			return nil, err
		}
		last = r.textEnd
	}
	out.Write(data[last:])
	return out.Bytes(), nil
}

// tagName extracts the qualified element name from a raw start tag.
func tagName(tag []byte) string {
	name := bytes.TrimPrefix(tag, []byte("<"))
	if i := bytes.IndexAny(name, " \t\r\n/>"); i >= 0 {
		name = name[:i]
	}
	return string(name)
}
