package loader

import (
	"fmt"
	"os"

	"github.com/nguyenthenguyen/docx"
)

// docxLoader extracts plain text from a Word document, grounded on
// github.com/nguyenthenguyen/docx (seen in the retrieval pack's document
// ingestion repos). Like pdfLoader, it stages to a temp file since the
// library reads from a path.
type docxLoader struct{}

func (docxLoader) Load(content []byte) (string, error) {
	tmp, err := os.CreateTemp("", "screenpipe-docx-*.docx")
	if err != nil {
		return "", fmt.Errorf("loader: stage docx temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(content); err != nil {
		return "", fmt.Errorf("loader: write docx temp file: %w", err)
	}

	r, err := docx.ReadDocxFile(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("loader: open docx: %w", err)
	}
	defer r.Close()

	return r.Editable().GetContent(), nil
}
