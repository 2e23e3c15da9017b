// Package retriever finds the indexed menu chunks most relevant to a question.
package retriever

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xhad/menurag/internal/models"
	"github.com/xhad/menurag/internal/types"
	"github.com/xhad/menurag/pkg/metrics"
)

const DefaultTopK = 5

// Status is the outcome of one retrieval.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
	StatusError Status = "error"
)

// Result carries the retrieved chunks, closest first. Callers treat
// StatusEmpty and StatusError alike; Err is kept for logging.
type Result struct {
	Chunks []models.RetrievedChunk
	Status Status
	Err    error
}

// Texts returns the chunk texts in rank order.
func (r Result) Texts() []string {
	out := make([]string, len(r.Chunks))
	for i, c := range r.Chunks {
		out[i] = c.Text
	}
	return out
}

type Retriever struct {
	store  types.VectorStore
	logger *zap.Logger
}

func New(store types.VectorStore, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{store: store, logger: logger}
}

// Retrieve returns up to topK chunks. A non-positive topK falls back to
// DefaultTopK. It never returns more chunks than the index holds.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) Result {
	if topK <= 0 {
		topK = DefaultTopK
	}

	res := r.retrieve(ctx, query, topK)
	metrics.RetrievalTotal.WithLabelValues(string(res.Status)).Inc()
	if res.Err != nil {
		r.logger.Warn("retrieval failed", zap.Error(res.Err))
	}
	return res
}

func (r *Retriever) retrieve(ctx context.Context, query string, topK int) Result {
	if strings.TrimSpace(query) == "" {
		return Result{Status: StatusEmpty}
	}

	start := time.Now()
	defer func() { metrics.RetrievalDuration.Observe(time.Since(start).Seconds()) }()

	count, err := r.store.Count(ctx)
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}
	if count == 0 {
		return Result{Status: StatusEmpty}
	}

	chunks, err := r.store.Query(ctx, query, min(topK, count))
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}
	if len(chunks) == 0 {
		return Result{Status: StatusEmpty}
	}

	r.logger.Debug("retrieved chunks", zap.Int("k", topK), zap.Int("count", len(chunks)))
	return Result{Chunks: chunks, Status: StatusOK}
}
