package splitter

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/pkg/kv"
)

// embeddingEncoding is the BPE tiktoken-go uses to size chunks against an
// embedding model's input-token limit. Every embedding model this pipeline
// targets (text-embedding-3-small and its siblings) is cl100k_base-encoded.
const embeddingEncoding = "cl100k_base"

// SplitOversizedByTokens re-splits any chunk whose content exceeds
// maxTokens tokens into token-bounded pieces, so Phase C never hands the
// embedding call (spec.md §4.2, §4.3) an input past the model's limit. A
// chunk within budget passes through unchanged; ChunkOrder is reassigned
// across the whole returned sequence to stay contiguous.
//
// If the encoder can't be loaded, chunks are returned unchanged — the
// embedding call itself will surface a clearer error than guessing at a
// char-count fallback would.
func SplitOversizedByTokens(chunks []*domain.Chunk, maxTokens int) []*domain.Chunk {
	enc, err := tiktoken.GetEncoding(embeddingEncoding)
	if err != nil {
		return chunks
	}

	out := make([]*domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		tokens := enc.Encode(c.Content, nil, nil)
		if len(tokens) <= maxTokens {
			out = append(out, c)
			continue
		}
		sectionType := fmt.Sprintf("%v/split", c.Metadata.Get("section_type"))
		for start := 0; start < len(tokens); start += maxTokens {
			end := min(start+maxTokens, len(tokens))
			piece := *c
			piece.Content = enc.Decode(tokens[start:end])
			piece.Metadata = kv.NewKSVA().PutAll(c.Metadata).Put("section_type", sectionType)
			out = append(out, &piece)
		}
	}

	for i, c := range out {
		c.ChunkOrder = i + 1
	}
	return out
}
