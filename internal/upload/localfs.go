package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lynxscreen/screenpipe/internal/domain"
)

// LocalFS is a BlobStore that writes asset bytes under root/{project_id}/.
type LocalFS struct {
	root string
}

func NewLocalFS(root string) *LocalFS {
	return &LocalFS{root: root}
}

func (l *LocalFS) Save(_ context.Context, projectID, name string, content []byte) (string, error) {
	dir := filepath.Join(l.root, projectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", domain.InternalError(err, "upload: create asset directory for project %s", projectID)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", domain.InternalError(err, "upload: write asset %s", name)
	}

	return fmt.Sprintf("file://%s", path), nil
}

// Read loads back the bytes behind a URL Save previously returned,
// satisfying internal/ingest's BlobReader capability structurally.
func (l *LocalFS) Read(_ context.Context, url string) ([]byte, error) {
	path := strings.TrimPrefix(url, "file://")
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.InternalError(err, "upload: read asset at %s", url)
	}
	return content, nil
}
