// Package loader dispatches local text extraction by file extension, per
// spec.md §4.2 Phase E: PDF-family (pdf, epub, mobi), Word (docx), and
// plain text (txt). Table-driven dispatch mirrors the section-aware
// chunker idiom used elsewhere in this tree (spec.md §9's "favor a
// table-driven design... avoid OO hierarchies").
package loader

import (
	"fmt"
	"strings"
)

// Loader extracts plain text from one file's raw bytes. A non-nil error
// means local extraction failed and the caller should fall back to LLM
// extraction (spec.md §4.2).
type Loader interface {
	Load(content []byte) (string, error)
}

type entry struct {
	extensions []string
	loader     Loader
}

var registry = []entry{
	{extensions: []string{".txt"}, loader: txtLoader{}},
	{extensions: []string{".pdf"}, loader: pdfLoader{}},
	{extensions: []string{".docx"}, loader: docxLoader{}},
	{extensions: []string{".epub", ".mobi"}, loader: unsupportedLoader{}},
}

// For dispatches to the Loader registered for ext (e.g. ".pdf"), or
// reports an error if the extension is not locally loadable — which, per
// §4.2, simply means that file always takes the LLM-fallback path.
func For(ext string) (Loader, error) {
	ext = strings.ToLower(ext)
	for _, e := range registry {
		for _, x := range e.extensions {
			if x == ext {
				return e.loader, nil
			}
		}
	}
	return nil, fmt.Errorf("loader: no local loader registered for extension %q", ext)
}

type unsupportedLoader struct{}

func (unsupportedLoader) Load([]byte) (string, error) {
	return "", fmt.Errorf("loader: no local text extraction implemented for this format")
}
