// Package ingest implements the three-phase Ingestion Engine of spec.md
// §4.2: Extraction (local load with an LLM fallback), Structure & Store
// (batch-of-3 LLM structuring), and Chunk & Vectorize (section-aware
// splitting into internal/vectorindex). validator.go and loader/ support
// Phase E; engine.go and the phase_*.go files drive all three phases in
// sequence, collecting per-asset errors rather than raising them.
package ingest

import (
	"context"

	"github.com/lynxscreen/screenpipe/internal/concurrency"
	"github.com/lynxscreen/screenpipe/internal/config"
	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/genservice"
	"github.com/lynxscreen/screenpipe/internal/store"
	"github.com/lynxscreen/screenpipe/internal/vectorindex"
)

// BlobReader reads back the bytes an upload.BlobStore previously saved,
// addressed by the Asset's StorageURL. Satisfied structurally by
// *upload.LocalFS, which this package never imports directly.
type BlobReader interface {
	Read(ctx context.Context, url string) ([]byte, error)
}

const (
	structureBatchSize    = 3
	chunkPersistBatchSize = 200
)

// Engine wires the collaborators one ingestion run depends on: the
// document store, an asset-bytes reader, the generation service, and the
// hybrid vector index.
type Engine struct {
	store store.Store
	blobs BlobReader
	gen   genservice.Service
	index vectorindex.Index

	structurePool concurrency.Pool
	closeStruct   func()

	cfg *config.Config
}

// New constructs an Engine. cfg.LLMConcurrencyLimit bounds Phase E's
// fan-out (spec.md §5); Phase S's batch-of-3 structuring calls fan out
// through a FIFO worker pool sized the same way, so ordered draining
// doesn't starve behind whichever batch happens to run longest.
func New(st store.Store, blobs BlobReader, gen genservice.Service, index vectorindex.Index, cfg *config.Config) *Engine {
	structurePool, closeStruct := concurrency.NewFIFOPool(cfg.LLMConcurrencyLimit)
	return &Engine{
		store:         st,
		blobs:         blobs,
		gen:           gen,
		index:         index,
		structurePool: structurePool,
		closeStruct:   closeStruct,
		cfg:           cfg,
	}
}

// Close stops the structuring pool's underlying workers. Safe to call once
// an Engine is no longer needed.
func (e *Engine) Close() {
	e.closeStruct()
}

// Request names one ingestion run. An empty AssetNames processes every
// asset currently stored for the project.
type Request struct {
	ProjectID  string
	AssetNames []string
	DoReset    bool
}

// Run drives Phase E, Phase S, and Phase C in sequence and returns the
// aggregate IngestResult. It never returns an error for a single failed
// asset — those accumulate in the result's Errors slice (spec.md §4.2,
// "per-asset errors are collected, not raised").
func (e *Engine) Run(ctx context.Context, req Request) (*domain.IngestResult, error) {
	if req.DoReset {
		if err := e.store.Resumes().DeleteAll(ctx, req.ProjectID); err != nil {
			return nil, err
		}
		if err := e.store.Chunks().DeleteAll(ctx, req.ProjectID); err != nil {
			return nil, err
		}
	}

	assets, err := e.store.Assets().List(ctx, req.ProjectID, req.AssetNames...)
	if err != nil {
		return nil, err
	}

	extracted, assetErrs := e.extractPhase(ctx, assets)
	resumes := e.structurePhase(ctx, req.ProjectID, extracted)

	for _, r := range resumes {
		if err := e.store.Resumes().Upsert(ctx, r); err != nil {
			assetErrs = append(assetErrs, domain.AssetError{FileID: r.FileID, Error: err.Error()})
		}
	}

	chunksCreated, chunkErrs := e.chunkPhase(ctx, req.ProjectID, resumes, req.DoReset)
	assetErrs = append(assetErrs, chunkErrs...)

	processed := make([]string, 0, len(resumes))
	for _, r := range resumes {
		processed = append(processed, r.FileID)
	}

	return &domain.IngestResult{
		Processed:     processed,
		ChunksCreated: chunksCreated,
		Errors:        assetErrs,
	}, nil
}
