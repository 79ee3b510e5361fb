package ingest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/genservice"
	"github.com/lynxscreen/screenpipe/pkg/kv"
)

// defaultParsedData is the "Unknown" placeholder record filled in for a
// short structuring-batch response (spec.md §4.2 Phase S).
func defaultParsedData() kv.KSVA {
	return kv.NewKSVA().
		Put("summary", "Unknown").
		Put("skills", []any{}).
		Put("work_history", []any{}).
		Put("education", []any{}).
		Put("certifications", []any{}).
		Put("projects", []any{}).
		Put("languages", []any{})
}

// structurePhase runs Phase S: llm_fallback items are already structured
// and inserted directly; local items are grouped into batches of 3 and
// fanned out to the generation service's structure_batch capability
// through the FIFO structuring pool, one submission per batch, then
// reassembled in batch order.
func (e *Engine) structurePhase(ctx context.Context, projectID string, extracted []extractedAsset) []*domain.Resume {
	var local []extractedAsset
	resumes := make([]*domain.Resume, 0, len(extracted))

	for _, ea := range extracted {
		if ea.method != domain.ExtractionLLMFallback {
			local = append(local, ea)
			continue
		}
		name, contact := splitIdentity(ea.structured)
		resumes = append(resumes, &domain.Resume{
			ProjectID:        projectID,
			FileID:           ea.fileID,
			CandidateName:    name,
			ContactInfo:      contact,
			FullContent:      marshalStructured(ea.structured),
			ParsedData:       kv.KSVA(ea.structured),
			ExtractionMethod: domain.ExtractionLLMFallback,
		})
	}

	batchCount := (len(local) + structureBatchSize - 1) / structureBatchSize
	batched := make([][]*domain.Resume, batchCount)

	var wg sync.WaitGroup
	for batchIdx, start := 0, 0; start < len(local); batchIdx, start = batchIdx+1, start+structureBatchSize {
		end := start + structureBatchSize
		if end > len(local) {
			end = len(local)
		}
		batchIdx, batch := batchIdx, local[start:end]
		wg.Add(1)
		if err := e.structurePool.Submit(func() {
			defer wg.Done()
			batched[batchIdx] = e.structureBatch(ctx, projectID, batch)
		}); err != nil {
			batched[batchIdx] = e.structureBatch(ctx, projectID, batch)
			wg.Done()
		}
	}
	wg.Wait()

	for _, b := range batched {
		resumes = append(resumes, b...)
	}

	return resumes
}

func (e *Engine) structureBatch(ctx context.Context, projectID string, batch []extractedAsset) []*domain.Resume {
	texts := make([]string, len(batch))
	for i, ea := range batch {
		texts[i] = ea.rawText
	}

	parsed, _, err := e.gen.StructureBatch(ctx, genservice.StructureBatchRequest{
		Model: e.cfg.CVExtractionModelID,
		Texts: texts,
	})
	if err != nil {
		parsed = nil // batch call failed outright: every item gets parsed_data={}
	}

	out := make([]*domain.Resume, len(batch))
	for i, ea := range batch {
		var data kv.KSVA
		var name string
		var contact kv.KSVA
		switch {
		case i < len(parsed) && parsed[i] != nil:
			name, contact = splitIdentity(parsed[i])
			data = kv.KSVA(parsed[i])
		case err == nil:
			data = defaultParsedData() // batch returned but came up short
		default:
			data = kv.NewKSVA() // batch call itself failed
		}
		if contact == nil {
			contact = kv.NewKSVA()
		}
		out[i] = &domain.Resume{
			ProjectID:        projectID,
			FileID:           ea.fileID,
			CandidateName:    name,
			ContactInfo:      contact,
			FullContent:      ea.rawText,
			ParsedData:       data,
			ExtractionMethod: domain.ExtractionLocal,
		}
	}
	return out
}

// splitIdentity reads the candidate_name/contact_info fields the
// structuring prompt asks for from the generation service's response.
// parsed itself is not modified, so both keys also remain in parsed_data.
func splitIdentity(parsed map[string]any) (string, kv.KSVA) {
	name, _ := parsed["candidate_name"].(string)
	contact, _ := parsed["contact_info"].(map[string]any)
	return name, kv.KSVA(contact)
}

func marshalStructured(m map[string]any) string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
