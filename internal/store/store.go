// Package store defines the document-store collaborator the pipeline
// persists through. spec.md treats the document store as an out-of-scope
// collaborator (§1); this package fixes only the logical interface the
// core needs and ships one in-memory implementation (memstore) sufficient
// to drive the whole pipeline end to end.
package store

import (
	"context"

	"github.com/lynxscreen/screenpipe/internal/domain"
)

// Store is the full persistence surface the pipeline depends on. A real
// binding (Mongo, Postgres, ...) implements this against its own schema;
// spec.md §1 explicitly leaves that schema unfixed beyond the logical
// entities in §3.
type Store interface {
	Projects() ProjectStore
	Assets() AssetStore
	Resumes() ResumeStore
	Chunks() ChunkStore
	JobDescriptions() JobDescriptionStore
	UsageLogs() UsageLogStore

	// DeleteProjectCascade removes a project and every entity it owns:
	// assets, résumés, chunks, job description, usage logs (spec.md §3).
	DeleteProjectCascade(ctx context.Context, projectID string) error
}

// ProjectStore manages Project rows, including get-or-create semantics.
type ProjectStore interface {
	GetOrCreate(ctx context.Context, projectID string) (*domain.Project, error)
	Get(ctx context.Context, projectID string) (*domain.Project, error)
}

// AssetStore manages Asset rows. Upsert enforces the (project_id, name)
// uniqueness invariant (spec.md §3).
type AssetStore interface {
	Upsert(ctx context.Context, a *domain.Asset) error
	Get(ctx context.Context, projectID, name string) (*domain.Asset, error)
	List(ctx context.Context, projectID string, names ...string) ([]*domain.Asset, error)
}

// ResumeStore manages Resume rows. Upsert enforces (project_id, file_id).
type ResumeStore interface {
	Upsert(ctx context.Context, r *domain.Resume) error
	Get(ctx context.Context, projectID, fileID string) (*domain.Resume, error)
	List(ctx context.Context, projectID string, fileIDs ...string) ([]*domain.Resume, error)
	DeleteAll(ctx context.Context, projectID string) error
}

// ChunkStore manages Chunk rows in bulk, per spec.md §4.2's batches-of-200
// persistence.
type ChunkStore interface {
	UpsertMany(ctx context.Context, chunks []*domain.Chunk) error
	ListByProject(ctx context.Context, projectID string) ([]*domain.Chunk, error)
	DeleteAll(ctx context.Context, projectID string) error
}

// JobDescriptionStore manages the single JobDescription per project
// (create-or-update semantics, spec.md §3).
type JobDescriptionStore interface {
	Upsert(ctx context.Context, jd *domain.JobDescription) error
	Get(ctx context.Context, projectID string) (*domain.JobDescription, error)
}

// UsageLogStore is the append-only Usage Log collection.
type UsageLogStore interface {
	Append(ctx context.Context, u *domain.UsageLog) error
	ListByProject(ctx context.Context, projectID string) ([]*domain.UsageLog, error)
}
