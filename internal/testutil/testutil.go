// Package testutil provides deterministic stand-ins for the model-backed
// components so pipeline tests run without a model server.
package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/xhad/menurag/internal/types"
)

const hashDim = 512

// HashEmbedder maps text to a normalized bag-of-words vector. Texts sharing
// words land close together, which is enough to exercise retrieval.
type HashEmbedder struct {
	mu    sync.Mutex
	calls int
}

var _ types.Embedder = (*HashEmbedder)(nil)

func (h *HashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = Embed(t)
	}
	return out, nil
}

func (h *HashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	return Embed(text), nil
}

func (h *HashEmbedder) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

// Embed is the vector HashEmbedder produces for text.
func Embed(text string) []float32 {
	v := make([]float32, hashDim+1)
	// constant component keeps empty text off the zero vector
	v[hashDim] = 0.1

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		f := fnv.New32a()
		_, _ = f.Write([]byte(w))
		v[f.Sum32()%hashDim]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// StubGenerator returns a fixed reply, or Fn's result when set, and counts calls.
type StubGenerator struct {
	Reply string
	Err   error
	Fn    func(prompt string) (string, error)

	mu      sync.Mutex
	calls   int
	prompts []string
	params  []types.GenerateParams
}

var _ types.Generator = (*StubGenerator)(nil)

func (g *StubGenerator) Generate(_ context.Context, prompt string, params types.GenerateParams) (string, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.params = append(g.params, params)
	g.mu.Unlock()

	if g.Fn != nil {
		return g.Fn(prompt)
	}
	return g.Reply, g.Err
}

func (g *StubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// LastPrompt returns the most recent prompt, or "" if never called.
func (g *StubGenerator) LastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

// LastParams returns the most recent sampling parameters.
func (g *StubGenerator) LastParams() types.GenerateParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.params) == 0 {
		return types.GenerateParams{}
	}
	return g.params[len(g.params)-1]
}
