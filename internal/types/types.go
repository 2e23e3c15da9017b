package types

import (
	"context"

	"github.com/xhad/menurag/internal/models"
)

// Core interfaces
type VectorStore interface {
	Store(ctx context.Context, chunks []models.IndexedChunk) error
	Query(ctx context.Context, query string, limit int) ([]models.RetrievedChunk, error)
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
	Close()
}

type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// GenerateParams are the sampling settings passed to a Generator.
type GenerateParams struct {
	MaxTokens   int
	Stop        []string
	Temperature float64
	TopP        float64
}

type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerateParams) (string, error)
}
