// Package store persists indexed menu chunks and answers similarity queries.
//
// The default backend is an embedded chromem-go database on local disk.
// A Postgres/pgvector backend is available for shared deployments.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xhad/menurag/internal/types"
)

const (
	BackendChromem  = "chromem"
	BackendPgvector = "pgvector"
)

type Config struct {
	Backend     string
	Path        string
	Collection  string
	Compress    bool
	DatabaseURL string
	VectorDim   int
	// CreateIfMissing is set by the index builder and left off by readers.
	CreateIfMissing bool
}

// New opens the configured backend.
func New(ctx context.Context, cfg Config, embedder types.Embedder, logger *zap.Logger) (types.VectorStore, error) {
	switch cfg.Backend {
	case "", BackendChromem:
		return NewChromemStore(ChromemConfig{
			Path:            cfg.Path,
			Collection:      cfg.Collection,
			Compress:        cfg.Compress,
			CreateIfMissing: cfg.CreateIfMissing,
		}, embedder, logger)
	case BackendPgvector:
		return NewWithConfig(ctx, VectorStoreConfig{
			ConnString: cfg.DatabaseURL,
			TableName:  cfg.Collection,
			VectorDim:  cfg.VectorDim,
		}, embedder, logger)
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
}
