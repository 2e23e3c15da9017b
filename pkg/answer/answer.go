// Package answer turns retrieved menu chunks and a question into a grounded
// answer by prompting a language model that may only use the chunks.
package answer

import (
	"context"

	"go.uber.org/zap"

	"github.com/xhad/menurag/internal/types"
)

// Fixed user-facing responses.
const (
	NotLoaded = "Error: Chatbot components (LLM or KB) not loaded properly."
	NotFound  = "I couldn't find specific info in the menus."
	Apology   = "Sorry, I encountered an error generating a response."
)

// State is where a query ended up.
type State string

const (
	StateStart           State = "start"
	StateRetrieving      State = "retrieving"
	StateGenerating      State = "generating"
	StateRespondNotFound State = "respond_not_found"
	StateRespondAnswer   State = "respond_answer"
	StateRespondError    State = "respond_error"
	StateNotLoaded       State = "not_loaded"
)

// Params are the sampling settings every answer is generated with.
var Params = types.GenerateParams{
	MaxTokens:   250,
	Stop:        []string{"</s>", "[INST]", "User Question:", "\n\n"},
	Temperature: 0.7,
	TopP:        0.9,
}

// Response is the answer text and the terminal state that produced it.
type Response struct {
	Text  string
	State State
}

type Synthesizer struct {
	generator types.Generator
	logger    *zap.Logger
}

func New(generator types.Generator, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{generator: generator, logger: logger}
}

// Synthesize answers query from chunks. With no chunks the model is not called.
// Generation failures and empty completions both become Apology.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, chunks []string) Response {
	if len(chunks) == 0 {
		return Response{Text: NotFound, State: StateRespondNotFound}
	}

	raw, err := s.generator.Generate(ctx, BuildPrompt(query, chunks), Params)
	if err != nil {
		s.logger.Error("generation failed", zap.Error(err))
		return Response{Text: Apology, State: StateRespondError}
	}

	text := clean(raw)
	if text == "" {
		s.logger.Warn("model returned an empty completion", zap.Int("raw_length", len(raw)))
		return Response{Text: Apology, State: StateRespondError}
	}
	return Response{Text: text, State: StateRespondAnswer}
}
