package loader

import (
	"bufio"
	"bytes"
	"strings"

	pkgbufio "github.com/lynxscreen/screenpipe/pkg/bufio"
)

// txtLoader normalizes whatever line-ending convention the plain-text
// résumé was saved with (CRLF, bare CR, or LF) to "\n" before handing the
// content on, so downstream blank-line collapsing (see
// internal/screen/prompt.go) sees consistent line breaks regardless of
// the uploader's OS.
type txtLoader struct{}

func (txtLoader) Load(content []byte) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Split(pkgbufio.ScanLinesAllFormats)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return string(content), nil
	}
	return strings.Join(lines, "\n"), nil
}
