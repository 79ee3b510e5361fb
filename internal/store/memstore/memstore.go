// Package memstore is an in-memory store.Store implementation. It exists
// to exercise the whole pipeline end to end in tests and the CLI without
// fixing a production document-store binding, which spec.md §1 leaves out
// of scope.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/store"
	pkgmaps "github.com/lynxscreen/screenpipe/pkg/maps"
	"github.com/lynxscreen/screenpipe/pkg/sets"
)

// Store is a single process-wide, mutex-guarded in-memory Store. Every
// pipeline invocation still creates its own accumulator lists (spec.md §5);
// only the persisted rows are shared process state, exactly like a real
// document-store singleton would be.
//
// The per-project entity indexes (assets, resumes) are pkg/maps.Map
// instances rather than bare Go maps: every store method already holds
// Store's mutex, so pkg/maps.HashMap's plain (non-thread-safe) variant is
// the right one here, and Keys/Values/ForEach read back cleanly for List.
type Store struct {
	mu sync.RWMutex

	projects     map[string]*domain.Project
	assets       map[string]pkgmaps.Map[string, *domain.Asset]  // projectID -> name -> Asset
	resumes      map[string]pkgmaps.Map[string, *domain.Resume] // projectID -> fileID -> Resume
	chunks       map[string][]*domain.Chunk                     // projectID -> chunks
	jds          map[string]*domain.JobDescription
	usage        map[string][]*domain.UsageLog
	touchedByJob sets.Set[string] // every projectID an asset or résumé was ever upserted for; DeleteProjectCascade leaves it intact
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		projects:     make(map[string]*domain.Project),
		assets:       make(map[string]pkgmaps.Map[string, *domain.Asset]),
		resumes:      make(map[string]pkgmaps.Map[string, *domain.Resume]),
		chunks:       make(map[string][]*domain.Chunk),
		jds:          make(map[string]*domain.JobDescription),
		usage:        make(map[string][]*domain.UsageLog),
		touchedByJob: sets.NewHashSet[string](),
	}
}

// ProjectIDs returns every project ID the store has ever recorded an
// asset or résumé for, including projects later deleted via DeleteProjectCascade
// (cascade only drops the entity rows, not the bookkeeping set — matching
// a real document store's audit trail rather than a hard delete of all
// trace of the project ID).
func (s *Store) ProjectIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.touchedByJob.ToSlice()
}

func (s *Store) Projects() store.ProjectStore               { return (*projectStore)(s) }
func (s *Store) Assets() store.AssetStore                   { return (*assetStore)(s) }
func (s *Store) Resumes() store.ResumeStore                 { return (*resumeStore)(s) }
func (s *Store) Chunks() store.ChunkStore                   { return (*chunkStore)(s) }
func (s *Store) JobDescriptions() store.JobDescriptionStore { return (*jdStore)(s) }
func (s *Store) UsageLogs() store.UsageLogStore             { return (*usageStore)(s) }

// DeleteProjectCascade removes a project and everything it owns (spec.md §3).
func (s *Store) DeleteProjectCascade(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, projectID)
	delete(s.assets, projectID)
	delete(s.resumes, projectID)
	delete(s.chunks, projectID)
	delete(s.jds, projectID)
	delete(s.usage, projectID)
	return nil
}

type projectStore Store

func (s *projectStore) GetOrCreate(_ context.Context, projectID string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[projectID]; ok {
		return p, nil
	}
	p := &domain.Project{ID: projectID, CreatedAt: time.Now()}
	s.projects[projectID] = p
	return p, nil
}

func (s *projectStore) Get(_ context.Context, projectID string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, domain.NotFoundError("project %q not found", projectID)
	}
	return p, nil
}

type assetStore Store

func (s *assetStore) Upsert(_ context.Context, a *domain.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName, ok := s.assets[a.ProjectID]
	if !ok {
		byName = pkgmaps.NewHashMap[string, *domain.Asset]()
		s.assets[a.ProjectID] = byName
	}
	if existing, ok := byName.Get(a.Name); ok {
		a.CreatedAt = existing.CreatedAt
	} else {
		a.CreatedAt = time.Now()
	}
	a.UpdatedAt = time.Now()
	byName.Put(a.Name, a)
	s.touchedByJob.Add(a.ProjectID)
	return nil
}

func (s *assetStore) Get(_ context.Context, projectID, name string) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byName, ok := s.assets[projectID]
	if !ok {
		return nil, domain.NotFoundError("asset %q not found in project %q", name, projectID)
	}
	a, ok := byName.Get(name)
	if !ok {
		return nil, domain.NotFoundError("asset %q not found in project %q", name, projectID)
	}
	return a, nil
}

func (s *assetStore) List(_ context.Context, projectID string, names ...string) ([]*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byName, ok := s.assets[projectID]
	if !ok {
		return nil, nil
	}
	if len(names) == 0 {
		return byName.Values(), nil
	}
	out := make([]*domain.Asset, 0, len(names))
	for _, n := range names {
		if a, ok := byName.Get(n); ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type resumeStore Store

func (s *resumeStore) Upsert(_ context.Context, r *domain.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byFile, ok := s.resumes[r.ProjectID]
	if !ok {
		byFile = pkgmaps.NewHashMap[string, *domain.Resume]()
		s.resumes[r.ProjectID] = byFile
	}
	if existing, ok := byFile.Get(r.FileID); ok {
		r.CreatedAt = existing.CreatedAt
	} else {
		r.CreatedAt = time.Now()
	}
	r.UpdatedAt = time.Now()
	byFile.Put(r.FileID, r)
	s.touchedByJob.Add(r.ProjectID)
	return nil
}

func (s *resumeStore) Get(_ context.Context, projectID, fileID string) (*domain.Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byFile, ok := s.resumes[projectID]
	if !ok {
		return nil, domain.NotFoundError("resume %q not found in project %q", fileID, projectID)
	}
	r, ok := byFile.Get(fileID)
	if !ok {
		return nil, domain.NotFoundError("resume %q not found in project %q", fileID, projectID)
	}
	return r, nil
}

func (s *resumeStore) List(_ context.Context, projectID string, fileIDs ...string) ([]*domain.Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byFile, ok := s.resumes[projectID]
	if !ok {
		return nil, nil
	}
	if len(fileIDs) == 0 {
		return byFile.Values(), nil
	}
	out := make([]*domain.Resume, 0, len(fileIDs))
	for _, id := range fileIDs {
		if r, ok := byFile.Get(id); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *resumeStore) DeleteAll(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resumes, projectID)
	return nil
}

type chunkStore Store

func (s *chunkStore) UpsertMany(_ context.Context, chunks []*domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.ProjectID] = append(s.chunks[c.ProjectID], c)
	}
	return nil
}

func (s *chunkStore) ListByProject(_ context.Context, projectID string) ([]*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Chunk, len(s.chunks[projectID]))
	copy(out, s.chunks[projectID])
	return out, nil
}

func (s *chunkStore) DeleteAll(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, projectID)
	return nil
}

type jdStore Store

func (s *jdStore) Upsert(_ context.Context, jd *domain.JobDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.jds[jd.ProjectID]; ok {
		jd.CreatedAt = existing.CreatedAt
	} else {
		jd.CreatedAt = time.Now()
	}
	jd.UpdatedAt = time.Now()
	s.jds[jd.ProjectID] = jd
	return nil
}

func (s *jdStore) Get(_ context.Context, projectID string) (*domain.JobDescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jd, ok := s.jds[projectID]
	if !ok {
		return nil, domain.NotFoundError("job description not found for project %q", projectID)
	}
	return jd, nil
}

type usageStore Store

func (s *usageStore) Append(_ context.Context, u *domain.UsageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[u.ProjectID] = append(s.usage[u.ProjectID], u)
	return nil
}

func (s *usageStore) ListByProject(_ context.Context, projectID string) ([]*domain.UsageLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.UsageLog, len(s.usage[projectID]))
	copy(out, s.usage[projectID])
	return out, nil
}
