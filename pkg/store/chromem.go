package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/xhad/menurag/internal/models"
	"github.com/xhad/menurag/internal/types"
)

var (
	// ErrIndexNotFound is returned when opening an index that was never built.
	ErrIndexNotFound = errors.New("index not found")
	// ErrCollectionNotFound is returned when the index exists but lacks the collection.
	ErrCollectionNotFound = errors.New("collection not found")
)

type ChromemConfig struct {
	Path       string
	Collection string
	Compress   bool
	// CreateIfMissing creates the directory and collection. Query-only callers
	// leave it off so a missing index is reported instead of silently created.
	CreateIfMissing bool
}

// ChromemStore is an embedded, file-persisted vector index.
type ChromemStore struct {
	db       *chromem.DB
	embedder types.Embedder
	config   ChromemConfig
	logger   *zap.Logger

	mu         sync.RWMutex
	collection *chromem.Collection
}

var _ types.VectorStore = (*ChromemStore)(nil)

func NewChromemStore(config ChromemConfig, embedder types.Embedder, logger *zap.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Path == "" {
		config.Path = "knowledge_base/chroma_db_menu"
	}
	if config.Collection == "" {
		config.Collection = "restaurant_menus"
	}

	path, err := expandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}

	if config.CreateIfMissing {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", path, err)
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w at %s", ErrIndexNotFound, path)
	}

	db, err := chromem.NewPersistentDB(path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("opening chromem DB: %w", err)
	}

	s := &ChromemStore{db: db, embedder: embedder, config: config, logger: logger}

	if config.CreateIfMissing {
		if s.collection, err = db.GetOrCreateCollection(config.Collection, nil, s.embeddingFunc()); err != nil {
			return nil, fmt.Errorf("creating collection %s: %w", config.Collection, err)
		}
	} else if s.collection = db.GetCollection(config.Collection, s.embeddingFunc()); s.collection == nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, config.Collection)
	}

	logger.Info("chromem store opened",
		zap.String("path", path),
		zap.String("collection", config.Collection),
		zap.Int("documents", s.collection.Count()),
	)
	return s, nil
}

func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

// Store embeds and writes chunks. Writing an existing ID replaces it.
func (s *ChromemStore) Store(ctx context.Context, chunks []models.IndexedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        c.ID,
			Content:   c.Text,
			Metadata:  c.Metadata,
			Embedding: vectors[i],
		}
	}

	s.mu.RLock()
	collection := s.collection
	s.mu.RUnlock()

	// Embeddings are precomputed, so one worker is enough.
	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}

	s.logger.Debug("stored chunks", zap.String("collection", s.config.Collection), zap.Int("count", len(docs)))
	return nil
}

// Query returns up to limit chunks closest to query, best first.
func (s *ChromemStore) Query(ctx context.Context, query string, limit int) ([]models.RetrievedChunk, error) {
	s.mu.RLock()
	collection := s.collection
	s.mu.RUnlock()

	// chromem rejects nResults above the document count.
	count := collection.Count()
	if count == 0 || limit <= 0 {
		return []models.RetrievedChunk{}, nil
	}
	if limit > count {
		limit = count
	}

	results, err := collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", s.config.Collection, err)
	}

	chunks := make([]models.RetrievedChunk, len(results))
	for i, r := range results {
		chunks[i] = models.RetrievedChunk{
			ID:         r.ID,
			Text:       r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		}
	}
	return chunks, nil
}

func (s *ChromemStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Count(), nil
}

// Reset drops the collection and recreates it empty.
func (s *ChromemStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.config.Collection); err != nil {
		return fmt.Errorf("deleting collection %s: %w", s.config.Collection, err)
	}
	collection, err := s.db.GetOrCreateCollection(s.config.Collection, nil, s.embeddingFunc())
	if err != nil {
		return fmt.Errorf("recreating collection %s: %w", s.config.Collection, err)
	}
	s.collection = collection

	s.logger.Info("collection reset", zap.String("collection", s.config.Collection))
	return nil
}

// Close is a no-op; chromem persists every write as it happens.
func (s *ChromemStore) Close() {}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
