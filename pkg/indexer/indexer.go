// Package indexer renders deduplicated menu items into chunks and writes them
// to a vector store in fixed-size batches.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xhad/menurag/internal/models"
	"github.com/xhad/menurag/internal/types"
	"github.com/xhad/menurag/pkg/metrics"
	"github.com/xhad/menurag/pkg/processor"
)

const DefaultBatchSize = 100

type IndexerConfig struct {
	BatchSize int
	// Reset clears the collection before writing.
	Reset bool
	// OnBatch is called after every batch attempt with the number of items it held.
	OnBatch func(batch, size int, err error)
}

type Indexer struct {
	config IndexerConfig
	store  types.VectorStore
	logger *zap.Logger
}

// Report summarizes one build run.
type Report struct {
	RunID         string
	Total         int
	Written       int
	Batches       int
	FailedBatches []int
	Count         int
}

func NewWithConfig(config IndexerConfig, store types.VectorStore, logger *zap.Logger) *Indexer {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{config: config, store: store, logger: logger}
}

// Index writes one chunk per item. A failing batch is logged and skipped;
// later batches are still attempted. The returned error is non-nil only when
// the run could not start, every batch failed, or ctx was cancelled.
func (ix *Indexer) Index(ctx context.Context, items []models.CanonicalMenuItem) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Total: len(items)}
	log := ix.logger.With(zap.String("run", report.RunID))

	if ix.config.Reset {
		if err := ix.store.Reset(ctx); err != nil {
			return report, fmt.Errorf("resetting index: %w", err)
		}
		log.Info("index reset")
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{RunID: report.RunID})

	for start := 0; start < len(items); start += ix.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		end := min(start+ix.config.BatchSize, len(items))
		batch := start/ix.config.BatchSize + 1
		chunks := proc.Process(start, items[start:end])
		report.Batches++

		err := ix.store.Store(ctx, chunks)
		if ix.config.OnBatch != nil {
			ix.config.OnBatch(batch, len(chunks), err)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			metrics.IndexBatchesTotal.WithLabelValues("error").Inc()
			report.FailedBatches = append(report.FailedBatches, batch)
			log.Error("failed to index batch", zap.Int("batch", batch), zap.Int("size", len(chunks)), zap.Error(err))
			continue
		}

		metrics.IndexBatchesTotal.WithLabelValues("success").Inc()
		metrics.IndexedChunksTotal.Add(float64(len(chunks)))
		report.Written += len(chunks)
		log.Debug("indexed batch", zap.Int("batch", batch), zap.Int("size", len(chunks)))
	}

	count, err := ix.store.Count(ctx)
	if err != nil {
		log.Warn("failed to count indexed chunks", zap.Error(err))
	}
	report.Count = count

	log.Info("index build finished",
		zap.Int("items", report.Total),
		zap.Int("written", report.Written),
		zap.Int("failed_batches", len(report.FailedBatches)),
		zap.Int("collection_count", report.Count),
	)

	if report.Batches > 0 && len(report.FailedBatches) == report.Batches {
		return report, errors.New("every index batch failed")
	}
	return report, nil
}
