package genservice

import "context"

// Composite is a Service that tries a primary provider first and falls
// back to a secondary on any error, per spec.md §9: "implementations
// include a primary provider and a fallback composite provider that
// catches failures from the primary and retries against a secondary...
// the composite provider is just another implementation of the same
// capability." Composite itself satisfies Service, so it can also be
// nested as either side of another Composite.
type Composite struct {
	Primary   Service
	Secondary Service
}

var _ Service = (*Composite)(nil)

func NewComposite(primary, secondary Service) *Composite {
	return &Composite{Primary: primary, Secondary: secondary}
}

func (c *Composite) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	result, err := c.Primary.Generate(ctx, req)
	if err == nil {
		return result, nil
	}
	return c.Secondary.Generate(ctx, req)
}

func (c *Composite) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	id, err := c.Primary.UploadFile(ctx, filename, content)
	if err == nil {
		return id, nil
	}
	return c.Secondary.UploadFile(ctx, filename, content)
}

func (c *Composite) ExtractStructured(ctx context.Context, req ExtractStructuredRequest) (map[string]any, Usage, error) {
	data, usage, err := c.Primary.ExtractStructured(ctx, req)
	if err == nil {
		return data, usage, nil
	}
	return c.Secondary.ExtractStructured(ctx, req)
}

func (c *Composite) StructureBatch(ctx context.Context, req StructureBatchRequest) ([]map[string]any, Usage, error) {
	data, usage, err := c.Primary.StructureBatch(ctx, req)
	if err == nil {
		return data, usage, nil
	}
	return c.Secondary.StructureBatch(ctx, req)
}

func (c *Composite) EmbedDocuments(ctx context.Context, model string, texts []string) ([][]float32, Usage, error) {
	vecs, usage, err := c.Primary.EmbedDocuments(ctx, model, texts)
	if err == nil {
		return vecs, usage, nil
	}
	return c.Secondary.EmbedDocuments(ctx, model, texts)
}

func (c *Composite) EmbedQuery(ctx context.Context, model string, text string) ([]float32, Usage, error) {
	vec, usage, err := c.Primary.EmbedQuery(ctx, model, text)
	if err == nil {
		return vec, usage, nil
	}
	return c.Secondary.EmbedQuery(ctx, model, text)
}
