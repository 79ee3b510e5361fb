// Package genservice defines the generation-service capability set spec.md
// §9 calls for: generate, upload_file, extract_structured, structure_batch,
// embed_documents, embed_query. internal/genservice/openai provides the
// concrete OpenAI-backed implementation, grounded on the
// ai/extensions/models/openai and ai/providers/openaiv2/api packages (both
// since deleted, see DESIGN.md); Composite (composite.go) is a second
// implementation of the same interface, trying a primary then a secondary
// provider, per §9's "the composite provider is just another
// implementation of the same capability."
package genservice

import "context"

// Usage is the provider-returned token-usage triple every call reports,
// normalized to the shape internal/usage wraps every call with.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GenerateRequest is one chat-completion call.
type GenerateRequest struct {
	Model           string
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
	JSONMode        bool
}

// GenerateResult is a chat-completion call's output.
type GenerateResult struct {
	Content string
	Model   string
	Usage   Usage
}

// ExtractStructuredRequest asks the provider to turn unstructured document
// text into the parsed_data shape §4.2 Phase S specifies. Exactly one of
// Text or FileID is set: Text for the batch structuring path over already-
// extracted text, FileID for the LLM-fallback extraction path where local
// text extraction failed and the raw file was uploaded instead.
type ExtractStructuredRequest struct {
	Model  string
	Text   string
	FileID string
}

// StructureBatchRequest carries several documents' text for one
// StructureBatch call (§4.2 Phase S, "CV structuring batch").
type StructureBatchRequest struct {
	Model string
	Texts []string
}

// Service is the capability set every generation-backed component in this
// pipeline (ingestion's LLM fallback, screening's full/light screen, the
// vector indexer's embeddings) depends on through this interface alone —
// never on a concrete provider package.
type Service interface {
	// Generate performs a single chat-completion call.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// UploadFile uploads document bytes to the provider's file store,
	// returning a provider-assigned file ID (used by the LLM-fallback
	// extraction path when local extraction is unavailable).
	UploadFile(ctx context.Context, filename string, content []byte) (string, error)

	// ExtractStructured turns one document's text into parsed_data, plus
	// the usage incurred.
	ExtractStructured(ctx context.Context, req ExtractStructuredRequest) (map[string]any, Usage, error)

	// StructureBatch turns several documents' text into parsed_data each;
	// results are positional with req.Texts. The OpenAI provider issues one
	// underlying call per text rather than one call for the whole batch.
	StructureBatch(ctx context.Context, req StructureBatchRequest) ([]map[string]any, Usage, error)

	// EmbedDocuments computes L2-normalized dense "document"-tagged
	// embeddings for a batch of chunk texts.
	EmbedDocuments(ctx context.Context, model string, texts []string) ([][]float32, Usage, error)

	// EmbedQuery computes a dense embedding for a single query text.
	EmbedQuery(ctx context.Context, model string, text string) ([]float32, Usage, error)
}
