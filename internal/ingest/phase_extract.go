package ingest

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/lynxscreen/screenpipe/internal/concurrency"
	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/genservice"
	"github.com/lynxscreen/screenpipe/internal/ingest/loader"
)

// extractedAsset is Phase E's outcome for one asset. rawText is set for
// method == ExtractionLocal; structured is set for method ==
// ExtractionLLMFallback (spec.md §4.2: "the outcome is {file_id, content,
// method}").
type extractedAsset struct {
	fileID     string
	method     domain.ExtractionMethod
	rawText    string
	structured map[string]any
}

// extractPhase runs Phase E over every asset, bounded to
// cfg.LLMConcurrencyLimit concurrent calls since a local-load failure
// routes through the generation service. Per-asset failures are
// collected, never raised.
func (e *Engine) extractPhase(ctx context.Context, assets []*domain.Asset) ([]extractedAsset, []domain.AssetError) {
	results := make([]*extractedAsset, len(assets))
	failures := make([]*domain.AssetError, len(assets))

	group := concurrency.NewGroup(e.cfg.LLMConcurrencyLimit)
	for i, a := range assets {
		i, a := i, a
		group.Go(func() {
			ea, err := e.extractOne(ctx, a)
			if err != nil {
				failures[i] = &domain.AssetError{FileID: a.Name, Error: err.Error()}
				return
			}
			results[i] = ea
		})
	}
	group.Wait()

	out := make([]extractedAsset, 0, len(assets))
	var assetErrs []domain.AssetError
	for i := range assets {
		if failures[i] != nil {
			assetErrs = append(assetErrs, *failures[i])
			continue
		}
		out = append(out, *results[i])
	}
	return out, assetErrs
}

func (e *Engine) extractOne(ctx context.Context, a *domain.Asset) (*extractedAsset, error) {
	content, err := e.blobs.Read(ctx, a.StorageURL)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(a.Name))
	if ld, lerr := loader.For(ext); lerr == nil {
		if text, lerr := ld.Load(content); lerr == nil && validateExtractedText(text) {
			return &extractedAsset{fileID: a.Name, method: domain.ExtractionLocal, rawText: text}, nil
		}
	}

	return e.extractViaLLM(ctx, a, content)
}

// extractViaLLM is Phase E's fallback: the raw file is uploaded and a
// single structured-JSON response is requested directly, so the Phase S
// structuring step is already done for this asset by the time it returns.
func (e *Engine) extractViaLLM(ctx context.Context, a *domain.Asset, content []byte) (*extractedAsset, error) {
	fileID, err := e.gen.UploadFile(ctx, a.Name, content)
	if err != nil {
		return nil, err
	}

	parsed, _, err := e.gen.ExtractStructured(ctx, genservice.ExtractStructuredRequest{
		Model:  e.cfg.CVExtractionModelID,
		FileID: fileID,
	})
	if err != nil {
		return nil, err
	}

	return &extractedAsset{fileID: a.Name, method: domain.ExtractionLLMFallback, structured: parsed}, nil
}
