package docx

import (
	"archive/zip"
	"fmt"
	"io"
)

// Save writes the package, including edited runs, to w.
func (d *Document) Save(w io.Writer) error {
	rendered := make(map[*entry][]byte, len(d.parts))
	for _, p := range d.parts {
		data, err := p.render()
		if err != nil {
			return fmt.Errorf("docx: render %s: %w", p.entry.name, err)
		}
		rendered[p.entry] = data
	}

	zw := zip.NewWriter(w)
	for _, e := range d.entries {
		data, ok := rendered[e]
		if !ok {
			data = e.data
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		if err != nil {
			return fmt.Errorf("docx: create %s: %w", e.name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("docx: write %s: %w", e.name, err)
		}
	}
	return zw.Close()
}
