// Package openai implements genservice.Service against the OpenAI API via
// github.com/openai/openai-go/v3, adapted from the
// ai/extensions/models/openai.Api and ai/providers/openaiv2/api.Api shapes
// (both since deleted, see DESIGN.md): a thin client wrapper constructed
// with option.WithAPIKey, exposing Chat.Completions.New, Embeddings.New,
// and Files.New the same way those packages did.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkoukk/tiktoken-go"

	"github.com/lynxscreen/screenpipe/internal/domain"
	"github.com/lynxscreen/screenpipe/internal/genservice"
	pkgmath "github.com/lynxscreen/screenpipe/pkg/math"
)

// maxContextTokens is the context-window budget assumed for every Generate
// call. gpt-4o-mini and gpt-4o (this pipeline's only configured models, per
// spec.md §6) both carry a 128k-token window.
const maxContextTokens = 128_000

// countPromptTokens estimates how many tokens prompt costs, via
// tiktoken-go's cl100k_base BPE encoder (the encoding every gpt-4o-family
// model this provider targets uses). Falls back to a conservative
// four-chars-per-token heuristic if the encoder can't be loaded.
func countPromptTokens(_, prompt string) int {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return len(prompt)/4 + 1
	}
	return len(enc.Encode(prompt, nil, nil))
}

// Provider implements genservice.Service against a single OpenAI account.
type Provider struct {
	client *openai.Client
}

var _ genservice.Service = (*Provider)(nil)

// New constructs a Provider. apiKey must be non-empty.
func New(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Provider{client: &client}, nil
}

func (p *Provider) Generate(ctx context.Context, req genservice.GenerateRequest) (*genservice.GenerateResult, error) {
	maxOutput := req.MaxOutputTokens
	if promptTokens := countPromptTokens(req.Model, req.Prompt); promptTokens+maxOutput > maxContextTokens {
		budget := maxContextTokens - promptTokens
		if budget <= 0 {
			return nil, domain.ValidationError(
				"openai: prompt alone (%d tokens) exceeds the %d-token context window for %s",
				promptTokens, maxContextTokens, req.Model)
		}
		slog.Warn("openai: clamping max output tokens to fit context window",
			"model", req.Model, "prompt_tokens", promptTokens,
			"requested_max_output", maxOutput, "clamped_to", budget)
		maxOutput = budget
	}

	params := openai.ChatCompletionNewParams{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(maxOutput)),
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, domain.LLMError(err, "openai: chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, domain.LLMError(errors.New("no choices returned"), "openai: chat completion")
	}

	return &genservice.GenerateResult{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: genservice.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (p *Provider) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	file, err := p.client.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(bytes.NewReader(content), filename, "application/octet-stream"),
		Purpose: openai.FilePurposeAssistants,
	})
	if err != nil {
		return "", domain.LLMError(err, "openai: file upload")
	}
	return file.ID, nil
}

func (p *Provider) ExtractStructured(ctx context.Context, req genservice.ExtractStructuredRequest) (map[string]any, genservice.Usage, error) {
	var prompt string
	if req.FileID != "" {
		prompt = fileStructuringPrompt(req.FileID)
	} else {
		prompt = structuringPrompt(req.Text)
	}
	result, err := p.Generate(ctx, genservice.GenerateRequest{
		Model:           req.Model,
		Prompt:          prompt,
		Temperature:     0.1,
		MaxOutputTokens: 2048,
		JSONMode:        true,
	})
	if err != nil {
		return nil, genservice.Usage{}, err
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(result.Content), &parsed); err != nil {
		return nil, result.Usage, domain.LLMError(err, "openai: parse structured extraction response")
	}
	return parsed, result.Usage, nil
}

// StructureBatch structures each text with its own ExtractStructured call,
// in order, and sums their usage. The texts are not sent to the model as
// one combined request, and the first failing text fails the whole batch.
func (p *Provider) StructureBatch(ctx context.Context, req genservice.StructureBatchRequest) ([]map[string]any, genservice.Usage, error) {
	var total genservice.Usage
	out := make([]map[string]any, 0, len(req.Texts))
	for _, text := range req.Texts {
		parsed, usage, err := p.ExtractStructured(ctx, genservice.ExtractStructuredRequest{Model: req.Model, Text: text})
		if err != nil {
			return nil, total, err
		}
		out = append(out, parsed)
		total.PromptTokens += usage.PromptTokens
		total.CompletionTokens += usage.CompletionTokens
		total.TotalTokens += usage.TotalTokens
	}
	return out, total, nil
}

func (p *Provider) EmbedDocuments(ctx context.Context, model string, texts []string) ([][]float32, genservice.Usage, error) {
	return p.embed(ctx, model, texts)
}

func (p *Provider) EmbedQuery(ctx context.Context, model string, text string) ([]float32, genservice.Usage, error) {
	vecs, usage, err := p.embed(ctx, model, []string{text})
	if err != nil {
		return nil, genservice.Usage{}, err
	}
	return vecs[0], usage, nil
}

func (p *Provider) embed(ctx context.Context, model string, texts []string) ([][]float32, genservice.Usage, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, genservice.Usage{}, domain.LLMError(err, "openai: embeddings")
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		out[d.Index] = pkgmath.ConvertSlice[float64, float32](d.Embedding)
	}

	return out, genservice.Usage{
		PromptTokens: int(resp.Usage.PromptTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
	}, nil
}

func structuringPrompt(text string) string {
	return fmt.Sprintf(
		"Extract the following fields as a JSON object: candidate_name, "+
			"contact_info, summary, skills, certifications, languages, "+
			"work_history, education, projects. "+
			"Return ONLY the JSON object, no commentary.\n\nDOCUMENT:\n%s",
		text,
	)
}

// fileStructuringPrompt is used for the LLM-fallback extraction path: local
// text extraction failed, so the document was uploaded whole (UploadFile)
// and the model is asked to both read and structure it from the file
// reference alone.
func fileStructuringPrompt(fileID string) string {
	return fmt.Sprintf(
		"Read the uploaded document with file id %s and extract the "+
			"following fields as a JSON object: candidate_name, contact_info, "+
			"summary, skills, certifications, languages, work_history, "+
			"education, projects. Return ONLY the JSON object, no commentary.",
		fileID,
	)
}
