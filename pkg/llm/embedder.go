package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/xhad/menurag/internal/types"
	"github.com/xhad/menurag/pkg/metrics"
)

// ErrEmbeddingProvider wraps every failure reported by an embedding backend.
var ErrEmbeddingProvider = errors.New("embedding provider error")

// EmbedderConfig represents the configuration for an embedding backend.
type EmbedderConfig struct {
	Provider   string // ollama or openai
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
	BatchSize  int
}

// NewEmbedderWithConfig returns the embedder for the configured provider.
// The same embedder must be used to build and to query an index.
func NewEmbedderWithConfig(config EmbedderConfig) (types.Embedder, error) {
	if config.Provider == "" {
		config.Provider = "ollama"
	}

	switch config.Provider {
	case "ollama":
		if config.Model == "" {
			config.Model = "all-minilm"
		}
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434"
		}
		client, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		return NewEmbedderFromClient(client, config.Provider, config.BatchSize)
	case "openai":
		return NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     config.APIKey,
			BaseURL:    config.BaseURL,
			Model:      config.Model,
			Dimensions: config.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", config.Provider)
	}
}

// Embedder adapts a langchaingo embedding client and records per-provider metrics.
type Embedder struct {
	impl     embeddings.Embedder
	provider string
}

var _ types.Embedder = (*Embedder)(nil)

// NewEmbedderFromClient wraps any langchaingo EmbedderClient.
func NewEmbedderFromClient(client embeddings.EmbedderClient, provider string, batchSize int) (*Embedder, error) {
	opts := []embeddings.Option{embeddings.WithStripNewLines(true)}
	if batchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(batchSize))
	}
	impl, err := embeddings.NewEmbedder(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return &Embedder{impl: impl, provider: provider}, nil
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := e.impl.EmbedDocuments(ctx, texts)
	if err := e.observe(start, err); err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts: %w", len(vectors), len(texts), ErrEmbeddingProvider)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vector, err := e.impl.EmbedQuery(ctx, text)
	if err := e.observe(start, err); err != nil {
		return nil, err
	}
	return vector, nil
}

func (e *Embedder) observe(start time.Time, err error) error {
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, "error").Inc()
		return fmt.Errorf("%s embedding: %v: %w", e.provider, err, ErrEmbeddingProvider)
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, "success").Inc()
	return nil
}
