package ingest

import (
	"context"
	"fmt"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/sparsevec"
	"github.com/lynxscreen/screenpipe/internal/splitter"
	"github.com/lynxscreen/screenpipe/internal/vectorindex"
)

// maxEmbeddingInputTokens is text-embedding-3-small's (and its siblings')
// per-input token limit.
const maxEmbeddingInputTokens = 8191

// chunkPhase runs Phase C: section-aware (or fallback recursive) chunking
// over every résumé, bulk persistence in batches of 200, and dense+sparse
// embedding into the project's vector collection.
func (e *Engine) chunkPhase(ctx context.Context, projectID string, resumes []*domain.Resume, reset bool) (int, []domain.AssetError) {
	var allChunks []*domain.Chunk
	for _, r := range resumes {
		allChunks = append(allChunks, splitter.BuildChunks(projectID, r.FileID, r.ParsedData, r.FullContent)...)
	}
	if len(allChunks) == 0 {
		return 0, nil
	}
	// Guard against a section (or fallback piece) that tokenizes past the
	// embedding model's input limit before it ever reaches EmbedDocuments.
	allChunks = splitter.SplitOversizedByTokens(allChunks, maxEmbeddingInputTokens)

	var errs []domain.AssetError
	for start := 0; start < len(allChunks); start += chunkPersistBatchSize {
		end := start + chunkPersistBatchSize
		if end > len(allChunks) {
			end = len(allChunks)
		}
		if err := e.store.Chunks().UpsertMany(ctx, allChunks[start:end]); err != nil {
			errs = append(errs, domain.AssetError{FileID: "chunk_store", Error: err.Error()})
		}
	}

	if err := e.index.EnsureCollection(ctx, projectID, reset); err != nil {
		return len(allChunks), append(errs, domain.AssetError{FileID: "vector_index", Error: err.Error()})
	}

	// A fresh corpus per run scopes BM25 statistics to exactly the chunks
	// being indexed, mirroring the one-collection-per-project scoping of
	// the vector index itself.
	corpus := sparsevec.NewCorpus()
	for _, c := range allChunks {
		corpus.Add(c.Content)
	}

	texts := make([]string, len(allChunks))
	for i, c := range allChunks {
		texts[i] = c.Content
	}
	dense, _, err := e.gen.EmbedDocuments(ctx, e.cfg.EmbeddingModelID, texts)
	if err != nil {
		return len(allChunks), append(errs, domain.AssetError{FileID: "embed", Error: err.Error()})
	}

	points := make([]vectorindex.Point, len(allChunks))
	for i, c := range allChunks {
		sv := corpus.Encode(c.Content)
		fileID, _ := c.Metadata.Get("file_id").(string)
		points[i] = vectorindex.Point{
			ID:      fmt.Sprintf("%s_%d", fileID, c.ChunkOrder),
			Chunk:   c,
			Dense:   dense[i],
			Sparse:  vectorindex.SparseVector{Indices: sv.Indices, Values: sv.Values},
			Content: c.Content,
		}
	}

	for start := 0; start < len(points); start += chunkPersistBatchSize {
		end := start + chunkPersistBatchSize
		if end > len(points) {
			end = len(points)
		}
		if err := e.index.Upsert(ctx, projectID, points[start:end]); err != nil {
			errs = append(errs, domain.AssetError{FileID: "vector_index", Error: err.Error()})
		}
	}

	return len(allChunks), errs
}
