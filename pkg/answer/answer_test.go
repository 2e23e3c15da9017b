package answer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/menurag/internal/testutil"
	"github.com/xhad/menurag/pkg/answer"
)

var chunks = []string{
	"Restaurant: Alpha Grill. Category: Starters. Item: Paneer Tikka. Price: 250. Tags: Vegetarian.",
	"Restaurant: Beta Diner. Category: Beverages. Item: Cold Coffee. Price: 150. Tags: Beverage.",
}

func TestSynthesize_NoChunks(t *testing.T) {
	gen := &testutil.StubGenerator{Reply: "should not be used"}
	s := answer.New(gen, nil)

	for _, c := range [][]string{nil, {}} {
		resp := s.Synthesize(context.Background(), "What is the price of Paneer Tikka?", c)
		assert.Equal(t, answer.NotFound, resp.Text)
		assert.Equal(t, answer.StateRespondNotFound, resp.State)
	}
	assert.Zero(t, gen.Calls())
}

func TestSynthesize_Answer(t *testing.T) {
	gen := &testutil.StubGenerator{Reply: "  The Paneer Tikka at Alpha Grill costs 250.  "}
	s := answer.New(gen, nil)

	resp := s.Synthesize(context.Background(), "What is the price of Paneer Tikka?", chunks)
	assert.Equal(t, "The Paneer Tikka at Alpha Grill costs 250.", resp.Text)
	assert.Equal(t, answer.StateRespondAnswer, resp.State)
	assert.Equal(t, 1, gen.Calls())
	assert.Equal(t, answer.Params, gen.LastParams())
}

func TestSynthesize_RefusalPassesThrough(t *testing.T) {
	gen := &testutil.StubGenerator{Reply: answer.Refusal}
	resp := answer.New(gen, nil).Synthesize(context.Background(), "Do you serve sushi?", chunks)

	assert.Equal(t, "I cannot find information about that in the provided menu details.", resp.Text)
	assert.Equal(t, answer.StateRespondAnswer, resp.State)
}

func TestSynthesize_Failures(t *testing.T) {
	tests := []struct {
		name string
		gen  *testutil.StubGenerator
	}{
		{"generation error", &testutil.StubGenerator{Err: errors.New("model crashed")}},
		{"empty output", &testutil.StubGenerator{Reply: ""}},
		{"only markers", &testutil.StubGenerator{Reply: " [/INST] ANSWER: "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := answer.New(tt.gen, nil).Synthesize(context.Background(), "price?", chunks)
			assert.Equal(t, answer.Apology, resp.Text)
			assert.Equal(t, answer.StateRespondError, resp.State)
		})
	}
}

func TestSynthesize_StripsMarkers(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"[/INST] It costs 250.", "It costs 250."},
		{"ANSWER: It costs 250.", "It costs 250."},
		{"**ANSWER:** It costs 250.", "It costs 250."},
		{"[/INST]\n**ANSWER:**  ANSWER: It costs 250.", "It costs 250."},
		{"ANSWER: [/INST] It costs 250.", "It costs 250."},
		{"It costs 250. ANSWER: inline markers stay", "It costs 250. ANSWER: inline markers stay"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			resp := answer.New(&testutil.StubGenerator{Reply: tt.raw}, nil).Synthesize(context.Background(), "q", chunks)
			assert.Equal(t, tt.want, resp.Text)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	query := "Which dishes are vegetarian?"
	prompt := answer.BuildPrompt(query, chunks)

	require.True(t, strings.HasPrefix(prompt, "[INST] **CRITICAL INSTRUCTIONS:**"))
	assert.True(t, strings.HasSuffix(prompt, "**USER QUESTION:** Which dishes are vegetarian? [/INST]\n**ANSWER:**"))
	assert.Contains(t, prompt, `"`+answer.Refusal+`"`)
	assert.Contains(t, prompt, "**CONTEXT:**\n"+chunks[0]+"\n\n"+chunks[1]+"\n\n**USER QUESTION:**")
	assert.Equal(t, 1, strings.Count(prompt, query))
}

func TestParams(t *testing.T) {
	assert.Equal(t, 250, answer.Params.MaxTokens)
	assert.Equal(t, []string{"</s>", "[INST]", "User Question:", "\n\n"}, answer.Params.Stop)
	assert.Equal(t, 0.7, answer.Params.Temperature)
	assert.Equal(t, 0.9, answer.Params.TopP)
}
