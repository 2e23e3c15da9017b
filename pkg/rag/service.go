// Package rag wires retrieval and answer synthesis into the query service
// used by the CLI and the websocket server.
package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xhad/menurag/internal/types"
	"github.com/xhad/menurag/pkg/answer"
	"github.com/xhad/menurag/pkg/config"
	"github.com/xhad/menurag/pkg/llm"
	"github.com/xhad/menurag/pkg/metrics"
	"github.com/xhad/menurag/pkg/retriever"
	"github.com/xhad/menurag/pkg/store"
)

var (
	ErrIndexUnavailable = errors.New("menu index unavailable")
	ErrModelUnavailable = errors.New("language model unavailable")
)

const defaultTimeout = 60 * time.Second

// Components are the already constructed backends a Service runs on.
type Components struct {
	Store     types.VectorStore
	Generator types.Generator
	TopK      int
	Timeout   time.Duration
}

// Service answers menu questions. A Service whose backends failed to
// initialize stays usable but answers every query with answer.NotLoaded.
type Service struct {
	store     types.VectorStore
	retriever *retriever.Retriever
	synth     *answer.Synthesizer
	topK      int
	timeout   time.Duration
	err       error
	logger    *zap.Logger
}

// New builds a Service from explicit components. A nil store or generator
// leaves the service not ready.
func New(c Components, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c.TopK <= 0 {
		c.TopK = retriever.DefaultTopK
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	s := &Service{store: c.Store, topK: c.TopK, timeout: c.Timeout, logger: logger}

	switch {
	case c.Store == nil:
		s.err = ErrIndexUnavailable
	case c.Generator == nil:
		s.err = ErrModelUnavailable
	default:
		s.retriever = retriever.New(c.Store, logger)
		s.synth = answer.New(c.Generator, logger)
	}
	return s
}

// Open constructs the backends named by cfg. It never fails: problems are
// logged and recorded, and the returned Service reports them through Err.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := Components{TopK: cfg.Query.TopK, Timeout: cfg.Query.Timeout}

	var loadErr error

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		loadErr = fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	} else {
		vs, err := store.New(ctx, store.Config{
			Backend:     cfg.Index.Backend,
			Path:        cfg.Index.Path,
			Collection:  cfg.Index.Collection,
			Compress:    cfg.Index.Compress,
			DatabaseURL: cfg.Index.DatabaseURL,
			VectorDim:   cfg.Index.VectorDim,
		}, embedder, logger)
		if err != nil {
			loadErr = fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
		} else {
			c.Store = vs
		}
	}

	gen, err := llm.NewGeneratorWithConfig(llm.GeneratorConfig{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		APIKey:   cfg.LLM.APIKey,
	})
	if err != nil {
		loadErr = errors.Join(loadErr, fmt.Errorf("%w: %v", ErrModelUnavailable, err))
	} else {
		c.Generator = gen
	}

	s := New(c, logger)
	if loadErr != nil {
		s.err = loadErr
		s.retriever, s.synth = nil, nil
		logger.Error("query service not ready", zap.Error(loadErr))
		return s
	}

	logger.Info("query service ready",
		zap.String("backend", cfg.Index.Backend),
		zap.String("collection", cfg.Index.Collection),
		zap.String("model", cfg.LLM.Model),
	)
	return s
}

// Ready reports whether both backends loaded.
func (s *Service) Ready() bool {
	return s.err == nil
}

// Err is the initialization failure, if any.
func (s *Service) Err() error {
	return s.err
}

// Answer runs the full query and reports the terminal state.
func (s *Service) Answer(ctx context.Context, query string, topK int) answer.Response {
	resp := s.answer(ctx, query, topK)
	metrics.QueriesTotal.WithLabelValues(string(resp.State)).Inc()
	return resp
}

func (s *Service) answer(ctx context.Context, query string, topK int) answer.Response {
	if !s.Ready() {
		return answer.Response{Text: answer.NotLoaded, State: answer.StateNotLoaded}
	}
	if topK <= 0 {
		topK = s.topK
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := s.logger.With(zap.String("query", query), zap.Int("top_k", topK))
	log.Debug("processing query", zap.String("state", string(answer.StateStart)))

	log.Debug("retrieving", zap.String("state", string(answer.StateRetrieving)))
	res := s.retriever.Retrieve(ctx, query, topK)
	if res.Status != retriever.StatusOK {
		log.Info("no relevant chunks", zap.String("status", string(res.Status)))
		return answer.Response{Text: answer.NotFound, State: answer.StateRespondNotFound}
	}

	log.Debug("generating", zap.String("state", string(answer.StateGenerating)))
	resp := s.synth.Synthesize(ctx, query, res.Texts())
	log.Debug("query answered", zap.String("state", string(resp.State)), zap.Int("chunks", len(res.Chunks)))
	return resp
}

// GetResponse returns only the answer text.
func (s *Service) GetResponse(ctx context.Context, query string, topK int) string {
	return s.Answer(ctx, query, topK).Text
}

func (s *Service) Close() {
	if s.store != nil {
		s.store.Close()
	}
}
