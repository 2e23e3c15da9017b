package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/xhad/menurag/internal/types"
	"github.com/xhad/menurag/pkg/metrics"
)

// GeneratorConfig represents the configuration for a text generator.
type GeneratorConfig struct {
	Provider string // ollama or openai
	Model    string
	BaseURL  string
	APIKey   string
}

// Generator produces completions from a single prompt. Calls are serialized:
// one model instance serves one request at a time.
type Generator struct {
	config GeneratorConfig
	llm    llms.Model
	mu     sync.Mutex
}

var _ types.Generator = (*Generator)(nil)

// NewGeneratorWithConfig creates a Generator backed by the configured provider.
func NewGeneratorWithConfig(config GeneratorConfig) (*Generator, error) {
	if config.Provider == "" {
		config.Provider = "ollama"
	}
	if config.Model == "" {
		config.Model = "mistral"
	}

	var (
		model llms.Model
		err   error
	)
	switch config.Provider {
	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434"
		}
		model, err = ollama.New(
			ollama.WithModel(config.Model),
			ollama.WithServerURL(config.BaseURL),
		)
	case "openai":
		opts := []openai.Option{openai.WithModel(config.Model), openai.WithToken(config.APIKey)}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		model, err = openai.New(opts...)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", config.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Generator{config: config, llm: model}, nil
}

// NewGeneratorFromModel wraps an already constructed model.
func NewGeneratorFromModel(model llms.Model) *Generator {
	return &Generator{llm: model}
}

// Generate runs one completion with the given sampling parameters.
func (g *Generator) Generate(ctx context.Context, prompt string, params types.GenerateParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	opts := []llms.CallOption{
		llms.WithTemperature(params.Temperature),
		llms.WithTopP(params.TopP),
	}
	if params.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(params.MaxTokens))
	}
	if len(params.Stop) > 0 {
		opts = append(opts, llms.WithStopWords(params.Stop))
	}

	start := time.Now()
	text, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, opts...)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return text, nil
}
