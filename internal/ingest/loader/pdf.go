package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
)

// pdfLoader extracts plain text from a PDF, grounded on
// github.com/ledongthuc/pdf (seen across the retrieval pack's résumé- and
// document-ingestion repos). The library only opens from a path, so the
// content is staged to a temp file for the duration of the call.
type pdfLoader struct{}

func (pdfLoader) Load(content []byte) (string, error) {
	tmp, err := os.CreateTemp("", "screenpipe-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("loader: stage pdf temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(content); err != nil {
		return "", fmt.Errorf("loader: write pdf temp file: %w", err)
	}

	f, r, err := pdf.Open(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("loader: open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("loader: extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("loader: read pdf text: %w", err)
	}

	return buf.String(), nil
}
