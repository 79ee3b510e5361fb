// Package upload implements the Upload Expander (spec.md §4.1): accepts a
// bundle of files for a project, enforces file-count and total-size
// limits both pre- and post-archive-expansion, expands zip archives
// subject to an allow-list and a zip-bomb guard, and persists surviving
// files as Assets. Content-type detection goes through
// github.com/gabriel-vasile/mimetype directly; sizes are summed as plain
// int64 byte counts, and the allowed-extension allow-list is a
// pkg/sets.Set rather than a hand-rolled map[string]bool. Archive
// expansion itself uses the standard library's archive/zip, justified in
// DESIGN.md since no archive library appears anywhere in the retrieved
// pack.
package upload

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/store"
	pkgio "github.com/lynxscreen/screenpipe/pkg/io"
	"github.com/lynxscreen/screenpipe/pkg/sets"
)

// allowedExtensions is the set of extensions surviving assets (and
// archive entries) may carry, per spec.md §6.
var allowedExtensions = sets.Of(".pdf", ".docx", ".txt", ".epub", ".mobi")

// InputFile is one file in an incoming upload bundle. Data must support
// Seek so the expander can measure its size by seeking to the end and
// restoring position, per spec.md §4.1 step 2.
type InputFile struct {
	Name string
	Data io.ReadSeeker
}

// Expander is the Upload Expander.
type Expander struct {
	store    store.Store
	blobs    BlobStore
	maxFiles int
	maxTotal int64
}

func NewExpander(st store.Store, blobs BlobStore, maxFiles int, maxTotalBytes int64) *Expander {
	return &Expander{store: st, blobs: blobs, maxFiles: maxFiles, maxTotal: maxTotalBytes}
}

type expandedFile struct {
	name        string
	content     []byte
	fromArchive bool
}

// Expand runs the full pipeline described in spec.md §4.1 and returns the
// persisted Assets. A directly-uploaded file with an unsupported extension
// is a fatal ValidationError (§7: "unsupported extension" is listed among
// the outer call's rejections); the same condition on an archive entry is
// silently dropped instead (§4.1's allowed-extensions filter).
func (e *Expander) Expand(ctx context.Context, projectID string, files []InputFile) ([]*domain.Asset, error) {
	if len(files) > e.maxFiles {
		return nil, domain.ValidationError("upload: too many files (%d > %d)", len(files), e.maxFiles)
	}

	total, err := totalSize(files)
	if err != nil {
		return nil, err
	}
	if total > e.maxTotal {
		return nil, domain.ValidationError("upload: upload too large (%d bytes > %d)", total, e.maxTotal)
	}

	var expanded []expandedFile
	for _, f := range files {
		content, err := pkgio.ReadAll(f.Data)
		if err != nil {
			return nil, domain.ValidationError("upload: read %s: %v", f.Name, err)
		}

		if isArchive(f.Name, content) {
			entries, err := expandArchive(content, e.maxFiles)
			if err != nil {
				return nil, err
			}
			expanded = append(expanded, entries...)
			continue
		}

		if !allowedExtensions.Contains(strings.ToLower(path.Ext(f.Name))) {
			return nil, domain.ValidationError("upload: unsupported extension for %s", f.Name)
		}
		expanded = append(expanded, expandedFile{name: f.Name, content: content})
	}

	if len(expanded) > e.maxFiles {
		return nil, domain.ValidationError("upload: too many files after expansion (%d > %d)", len(expanded), e.maxFiles)
	}

	var expandedTotal int64
	for _, ef := range expanded {
		expandedTotal += int64(len(ef.content))
	}
	if expandedTotal > e.maxTotal {
		return nil, domain.ValidationError("upload: upload too large after expansion (%d bytes > %d)", expandedTotal, e.maxTotal)
	}

	surviving := filterAllowedExtensions(expanded)

	assets := make([]*domain.Asset, 0, len(surviving))
	for _, ef := range surviving {
		asset, err := e.persist(ctx, projectID, ef)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	return assets, nil
}

func (e *Expander) persist(ctx context.Context, projectID string, ef expandedFile) (*domain.Asset, error) {
	ext := path.Ext(ef.name)
	name := projectID + "_" + uuid.NewString() + ext

	url, err := e.blobs.Save(ctx, projectID, name, ef.content)
	if err != nil {
		return nil, domain.InternalError(err, "upload: storage failed for %s", ef.name)
	}

	mtype := mimetype.Detect(ef.content)
	asset := &domain.Asset{
		ProjectID:  projectID,
		Name:       name,
		MimeType:   mtype.String(),
		StorageURL: url,
		SizeBytes:  int64(len(ef.content)),
	}
	if err := e.store.Assets().Upsert(ctx, asset); err != nil {
		return nil, domain.InternalError(err, "upload: persist asset record for %s", ef.name)
	}
	return asset, nil
}

func totalSize(files []InputFile) (int64, error) {
	var total int64
	for _, f := range files {
		size, err := f.Data.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, domain.ValidationError("upload: measure size of %s: %v", f.Name, err)
		}
		if _, err := f.Data.Seek(0, io.SeekStart); err != nil {
			return 0, domain.ValidationError("upload: rewind %s: %v", f.Name, err)
		}
		total += size
	}
	return total, nil
}

func isArchive(name string, content []byte) bool {
	if strings.HasSuffix(strings.ToLower(name), ".zip") {
		return true
	}
	mtype := mimetype.Detect(content)
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

func expandArchive(content []byte, maxFiles int) ([]expandedFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, domain.ValidationError("upload: bad archive: %v", err)
	}

	if len(reader.File) > maxFiles {
		return nil, domain.ValidationError("upload: archive entry count %d exceeds %d (zip-bomb guard)", len(reader.File), maxFiles)
	}

	var out []expandedFile
	for _, zf := range reader.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		base := flattenPath(zf.Name)
		if strings.HasPrefix(base, "__MACOSX") || strings.HasPrefix(base, ".") {
			continue
		}

		rc, err := zf.Open()
		if err != nil {
			return nil, domain.ValidationError("upload: bad archive entry %s: %v", zf.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, domain.ValidationError("upload: bad archive entry %s: %v", zf.Name, err)
		}

		out = append(out, expandedFile{name: base, content: data, fromArchive: true})
	}
	return out, nil
}

// flattenPath collapses both / and \ separators and returns the basename,
// per spec.md §4.1's "flattened to its basename" rule.
func flattenPath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return path.Base(name)
}

// filterAllowedExtensions silently drops archive entries with a
// disallowed extension; non-archive files were already rejected fatally
// in Expand if unsupported, so they always pass here.
func filterAllowedExtensions(files []expandedFile) []expandedFile {
	var out []expandedFile
	for _, f := range files {
		if f.fromArchive && !allowedExtensions.Contains(strings.ToLower(path.Ext(f.name))) {
			continue
		}
		out = append(out, f)
	}
	return out
}
