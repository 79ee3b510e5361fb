// Package vectorindex defines the hybrid dense+sparse vector-search seam
// used by the ingestion and screening pipelines, and the chunk→file-level
// score aggregation that §4.3 specifies on top of it. The concrete backend
// lives in internal/vectorindex/qdrant, adapted from the
// ai/providers/vectorstores/qdrant store (since deleted, see DESIGN.md)
// generalized from a single dense vector slot to named dense+sparse
// vectors fused with Reciprocal Rank Fusion.
package vectorindex

import (
	"context"
	"sort"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/filterexpr"
)

// ChunkHit is one chunk-level match returned by a Query call, before
// file-level aggregation.
type ChunkHit struct {
	FileID  string
	Score   float64
	Content string
}

// Index is the hybrid vector-search capability every screening operation
// depends on: one logical collection per project, upserted with dense and
// sparse vectors per chunk, queried with both fused by RRF.
type Index interface {
	// EnsureCollection creates the project's collection if it does not
	// exist. If reset is true, an existing collection is dropped first.
	EnsureCollection(ctx context.Context, projectID string, reset bool) error

	// Upsert writes one hybrid point per chunk. Dense and sparse vectors
	// must already be computed by the caller (see internal/sparsevec and
	// the generation service's EmbedDocuments capability).
	Upsert(ctx context.Context, projectID string, points []Point) error

	// Query performs a dense+sparse hybrid search fused with RRF, scoped
	// to an optional filter expression (e.g. a file_ids IN filter), and
	// returns up to topK chunk-level hits.
	Query(ctx context.Context, projectID string, q Query, filter filterexpr.Expr, topK int) ([]ChunkHit, error)
}

// Point is one chunk ready to be written to the vector backend.
type Point struct {
	ID      string
	Chunk   *domain.Chunk
	Dense   []float32
	Sparse  SparseVector
	Content string
}

// SparseVector mirrors sparsevec.Vector without importing it directly, so
// that vectorindex does not force every caller to depend on the BM25
// encoder's concrete type.
type SparseVector struct {
	Indices []uint32
	Values  []float32
}

// Query is a request to search by dense and sparse query vectors, both
// computed by the caller from the same query text.
type Query struct {
	Dense  []float32
	Sparse SparseVector
}

// Aggregate implements §4.3's aggregation step: group chunk hits by
// file_id, score each file by the mean of its top 3 chunk scores, and
// return RankedCandidates sorted by score descending. Ties preserve the
// order chunks were first encountered, so preview is "the text of the
// first chunk encountered for that file in the ranked list".
func Aggregate(hits []ChunkHit) []domain.RankedCandidate {
	type accum struct {
		fileID  string
		scores  []float64
		preview string
	}

	order := make([]string, 0)
	byFile := make(map[string]*accum)
	for _, h := range hits {
		a, ok := byFile[h.FileID]
		if !ok {
			a = &accum{fileID: h.FileID, preview: h.Content}
			byFile[h.FileID] = a
			order = append(order, h.FileID)
		}
		a.scores = append(a.scores, h.Score)
	}

	candidates := make([]domain.RankedCandidate, 0, len(order))
	for _, fileID := range order {
		a := byFile[fileID]
		sort.Sort(sort.Reverse(sort.Float64Slice(a.scores)))
		top := a.scores
		if len(top) > 3 {
			top = top[:3]
		}
		candidates = append(candidates, domain.RankedCandidate{
			FileID:  a.fileID,
			Score:   mean(top),
			Preview: a.preview,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

func mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
