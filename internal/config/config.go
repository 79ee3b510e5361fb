// Package config loads the environment-driven configuration knobs named in
// spec.md §6, following a "struct + Validate() applies defaults, rejects
// missing required fields" convention.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lynxscreen/screenpipe/pkg/dataunit"
)

// Config is the process-wide configuration. It is initialized once at
// startup and held as a singleton alongside the other process-wide
// collaborators (spec.md §5).
type Config struct {
	UploadMaxFiles       int
	UploadMaxTotalSize   dataunit.DataSize
	FileDefaultChunkSize dataunit.DataSize
	LLMConcurrencyLimit  int
	EmbeddingModelSize   int
	VectorDBDistance     string
	GenerationModelID    string
	CVExtractionModelID  string
	EmbeddingModelID     string

	OpenAIAPIKey         string
	OpenAIFallbackAPIKey string // optional; when set, Generate calls fall back to this account on primary failure
	QdrantAddr           string

	UploadRoot string
}

// Load reads the configuration from the environment, applying the defaults
// named in spec.md §6 for any unset knob.
func Load() (*Config, error) {
	uploadMaxTotalSize, err := dataunit.SizeOfMB(envInt64("UPLOAD_MAX_TOTAL_SIZE_MB", 50))
	if err != nil {
		return nil, fmt.Errorf("config: UPLOAD_MAX_TOTAL_SIZE_MB: %v", err)
	}
	fileDefaultChunkSize, err := dataunit.SizeOfMB(envInt64("FILE_DEFAULT_CHUNK_SIZE_MB", 1))
	if err != nil {
		return nil, fmt.Errorf("config: FILE_DEFAULT_CHUNK_SIZE_MB: %v", err)
	}

	c := &Config{
		UploadMaxFiles:       envInt("UPLOAD_MAX_FILES", 200),
		UploadMaxTotalSize:   uploadMaxTotalSize,
		FileDefaultChunkSize: fileDefaultChunkSize,
		LLMConcurrencyLimit:  envInt("LLM_CONCURRENCY_LIMIT", 50),
		EmbeddingModelSize:   envInt("EMBEDDING_MODEL_SIZE", 768),
		VectorDBDistance:     envString("VECTOR_DB_DISTANCE", "cosine"),
		GenerationModelID:    envString("GENERATION_MODEL_ID", "gpt-4o-mini"),
		CVExtractionModelID:  envString("CV_EXTRACTION_MODEL_ID", "gpt-4o-mini"),
		EmbeddingModelID:     envString("EMBEDDING_MODEL_ID", "text-embedding-3-small"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIFallbackAPIKey: os.Getenv("OPENAI_FALLBACK_API_KEY"),
		QdrantAddr:           envString("QDRANT_ADDR", "localhost:6334"),
		UploadRoot:           envString("UPLOAD_ROOT", "./data/uploads"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects nonsensical configuration. It is also called by Load
// after defaults are applied, so constructing a Config by hand and calling
// Validate directly is equally safe.
func (c *Config) Validate() error {
	if c.UploadMaxFiles <= 0 {
		return fmt.Errorf("config: UPLOAD_MAX_FILES must be > 0")
	}
	if c.UploadMaxTotalSize.Int64() <= 0 {
		return fmt.Errorf("config: UPLOAD_MAX_TOTAL_SIZE_MB must be > 0")
	}
	if c.LLMConcurrencyLimit <= 0 {
		return fmt.Errorf("config: LLM_CONCURRENCY_LIMIT must be > 0")
	}
	if c.EmbeddingModelSize <= 0 {
		return fmt.Errorf("config: EMBEDDING_MODEL_SIZE must be > 0")
	}
	switch strings.ToLower(c.VectorDBDistance) {
	case "cosine", "dot", "euclid", "manhattan":
	default:
		return fmt.Errorf("config: unsupported VECTOR_DB_DISTANCE %q", c.VectorDBDistance)
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("config: OPENAI_API_KEY is required")
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}
