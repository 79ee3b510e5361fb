package upload

import "context"

// BlobStore persists asset bytes and returns a retrievable URL. Only a
// local-filesystem implementation is provided here (see localfs.go); an
// object-storage-backed one is a drop-in seam, not something this pipeline
// needs wired today.
type BlobStore interface {
	Save(ctx context.Context, projectID, name string, content []byte) (url string, err error)
}
