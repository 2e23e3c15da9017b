package indexer_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xhad/menurag/internal/models"
	"github.com/xhad/menurag/internal/testutil"
	"github.com/xhad/menurag/pkg/indexer"
	"github.com/xhad/menurag/pkg/store"
)

// flakyStore wraps a real store and fails the batches listed in failOn (1-based).
type flakyStore struct {
	*store.ChromemStore
	failOn map[int]bool

	mu     sync.Mutex
	calls  int
	resets int
	ids    []string
}

func (f *flakyStore) Store(ctx context.Context, chunks []models.IndexedChunk) error {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.failOn[call] {
		return errors.New("disk full")
	}
	for _, c := range chunks {
		f.ids = append(f.ids, c.ID)
	}
	return f.ChromemStore.Store(ctx, chunks)
}

func (f *flakyStore) Reset(ctx context.Context) error {
	f.resets++
	return f.ChromemStore.Reset(ctx)
}

func newFlaky(t *testing.T, failOn ...int) *flakyStore {
	t.Helper()
	s, err := store.NewChromemStore(store.ChromemConfig{Path: t.TempDir(), CreateIfMissing: true}, &testutil.HashEmbedder{}, nil)
	require.NoError(t, err)
	fs := &flakyStore{ChromemStore: s, failOn: map[int]bool{}}
	for _, n := range failOn {
		fs.failOn[n] = true
	}
	return fs
}

func items(n int) []models.CanonicalMenuItem {
	out := make([]models.CanonicalMenuItem, n)
	for i := range out {
		out[i] = models.CanonicalMenuItem{
			RestaurantName: "Alpha Grill",
			Category:       "Mains",
			ItemName:       fmt.Sprintf("Dish %d", i),
			Price:          models.Float(float64(100 + i)),
		}
	}
	return out
}

func TestIndexer_Index(t *testing.T) {
	s := newFlaky(t)

	var batches []int
	ix := indexer.NewWithConfig(indexer.IndexerConfig{
		BatchSize: 2,
		OnBatch:   func(_, size int, _ error) { batches = append(batches, size) },
	}, s, nil)

	report, err := ix.Index(context.Background(), items(5))
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 5, report.Written)
	assert.Equal(t, 3, report.Batches)
	assert.Empty(t, report.FailedBatches)
	assert.Equal(t, 5, report.Count)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []int{2, 2, 1}, batches)

	assert.Equal(t, "item_0_Alpha_Grill_Dish_0", s.ids[0])
	assert.Equal(t, "item_4_Alpha_Grill_Dish_4", s.ids[4], "positions run across batches")
}

func TestIndexer_FailedBatchIsSkipped(t *testing.T) {
	s := newFlaky(t, 2)
	core, logs := observer.New(zapcore.ErrorLevel)

	ix := indexer.NewWithConfig(indexer.IndexerConfig{BatchSize: 2}, s, zap.New(core))

	report, err := ix.Index(context.Background(), items(5))
	require.NoError(t, err)

	assert.Equal(t, []int{2}, report.FailedBatches)
	assert.Equal(t, 3, report.Written)
	assert.Equal(t, 3, report.Count)
	assert.Equal(t, 3, s.calls, "batches after the failure are still attempted")
	assert.Equal(t, 1, logs.FilterMessage("failed to index batch").Len())
}

func TestIndexer_AllBatchesFail(t *testing.T) {
	s := newFlaky(t, 1, 2)
	ix := indexer.NewWithConfig(indexer.IndexerConfig{BatchSize: 3}, s, nil)

	report, err := ix.Index(context.Background(), items(4))
	assert.Error(t, err)
	assert.Equal(t, []int{1, 2}, report.FailedBatches)
	assert.Zero(t, report.Written)
}

func TestIndexer_Reset(t *testing.T) {
	s := newFlaky(t)
	ctx := context.Background()

	_, err := indexer.NewWithConfig(indexer.IndexerConfig{}, s, nil).Index(ctx, items(4))
	require.NoError(t, err)

	report, err := indexer.NewWithConfig(indexer.IndexerConfig{Reset: true}, s, nil).Index(ctx, items(2))
	require.NoError(t, err)

	assert.Equal(t, 1, s.resets)
	assert.Equal(t, 2, report.Count, "stale chunks from the earlier run are gone")
}

func TestIndexer_RunIDInMetadata(t *testing.T) {
	s := newFlaky(t)
	report, err := indexer.NewWithConfig(indexer.IndexerConfig{}, s, nil).Index(context.Background(), items(1))
	require.NoError(t, err)

	results, err := s.Query(context.Background(), "dish", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, report.RunID, results[0].Metadata[models.MetaIndexRun])
}

func TestIndexer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := indexer.NewWithConfig(indexer.IndexerConfig{}, newFlaky(t), nil).Index(ctx, items(3))
	assert.ErrorIs(t, err, context.Canceled)
}
