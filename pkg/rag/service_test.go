package rag_test

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/menurag/internal/testutil"
	"github.com/xhad/menurag/pkg/answer"
	"github.com/xhad/menurag/pkg/config"
	"github.com/xhad/menurag/pkg/indexer"
	"github.com/xhad/menurag/pkg/ingest"
	"github.com/xhad/menurag/pkg/rag"
	"github.com/xhad/menurag/pkg/store"
)

type memLoader map[string]string

func (m memLoader) Load(_ context.Context, src config.Source) ([]byte, error) {
	return []byte(m[src.Path]), nil
}

var pricePattern = regexp.MustCompile(`Price: (\d+(?:\.\d+)?|N/A)`)

// firstChunkPrice answers with the price found in the top-ranked context chunk,
// or the refusal when the question's subject is absent from the context.
func firstChunkPrice(subject string) func(string) (string, error) {
	return func(prompt string) (string, error) {
		_, rest, _ := strings.Cut(prompt, "**CONTEXT:**\n")
		menu, _, _ := strings.Cut(rest, "\n\n**USER QUESTION:**")
		if !strings.Contains(strings.ToLower(menu), subject) {
			return answer.Refusal, nil
		}
		top, _, _ := strings.Cut(menu, "\n\n")
		m := pricePattern.FindStringSubmatch(top)
		if m == nil {
			return "", nil
		}
		return "ANSWER: The price is " + m[1] + ".", nil
	}
}

func buildIndex(t *testing.T) *store.ChromemStore {
	t.Helper()
	ctx := context.Background()

	loader := memLoader{
		"alpha.json": `{"menu": [
			{"item_name": "Paneer Tikka", "category": "Starters", "price": "₹250"},
			{"item_name": "Cold Coffee", "category": "Beverages", "price": "₹120"},
			{"item_name": "Chicken Biryani", "category": "Mains", "price": "₹380"}
		]}`,
		"beta.json": `{"menu_details": {
			"Starters": [{"item_name": "Paneer Tikka", "price": 300, "is_vegetarian": true}],
			"Desserts": [{"item_name": "Gulab Jamun", "price": "₹90"}]
		}}`,
	}
	items, _, err := ingest.New(loader, nil).Run(ctx, []config.Source{
		{Restaurant: "Alpha Grill", Path: "alpha.json"},
		{Restaurant: "Beta Diner", Path: "beta.json"},
	})
	require.NoError(t, err)

	s, err := store.NewChromemStore(store.ChromemConfig{Path: t.TempDir(), CreateIfMissing: true}, &testutil.HashEmbedder{}, nil)
	require.NoError(t, err)

	report, err := indexer.NewWithConfig(indexer.IndexerConfig{BatchSize: 2}, s, nil).Index(ctx, items)
	require.NoError(t, err)
	require.Equal(t, 5, report.Count)
	return s
}

func TestService_EndToEnd(t *testing.T) {
	gen := &testutil.StubGenerator{Fn: firstChunkPrice("paneer")}
	svc := rag.New(rag.Components{Store: buildIndex(t), Generator: gen}, nil)
	defer svc.Close()
	require.True(t, svc.Ready())

	resp := svc.Answer(context.Background(), "What is the price of Paneer Tikka at Alpha Grill?", 5)

	assert.Equal(t, answer.StateRespondAnswer, resp.State)
	assert.Equal(t, "The price is 250.", resp.Text)
	assert.NotContains(t, resp.Text, "300")
	assert.Equal(t, 1, gen.Calls())
	assert.Contains(t, gen.LastPrompt(), "Restaurant: Beta Diner. Category: Starters. Item: Paneer Tikka. Price: 300.")
}

func TestService_Refusal(t *testing.T) {
	gen := &testutil.StubGenerator{Fn: firstChunkPrice("sushi")}
	svc := rag.New(rag.Components{Store: buildIndex(t), Generator: gen}, nil)

	text := svc.GetResponse(context.Background(), "Do they have sushi at Beta Diner?", 2)
	assert.Equal(t, "I cannot find information about that in the provided menu details.", text)
}

func TestService_EmptyIndex(t *testing.T) {
	s, err := store.NewChromemStore(store.ChromemConfig{Path: t.TempDir(), CreateIfMissing: true}, &testutil.HashEmbedder{}, nil)
	require.NoError(t, err)

	gen := &testutil.StubGenerator{Reply: "anything"}
	svc := rag.New(rag.Components{Store: s, Generator: gen}, nil)

	resp := svc.Answer(context.Background(), "What is the price of Paneer Tikka?", 5)
	assert.Equal(t, answer.NotFound, resp.Text)
	assert.Equal(t, answer.StateRespondNotFound, resp.State)
	assert.Zero(t, gen.Calls())
}

func TestService_GenerationError(t *testing.T) {
	gen := &testutil.StubGenerator{Err: errors.New("out of memory")}
	svc := rag.New(rag.Components{Store: buildIndex(t), Generator: gen}, nil)

	assert.Equal(t, answer.Apology, svc.GetResponse(context.Background(), "paneer tikka price", 5))
}

func TestService_NotReady(t *testing.T) {
	gen := &testutil.StubGenerator{Reply: "anything"}

	noStore := rag.New(rag.Components{Generator: gen}, nil)
	assert.False(t, noStore.Ready())
	assert.ErrorIs(t, noStore.Err(), rag.ErrIndexUnavailable)

	noModel := rag.New(rag.Components{Store: buildIndex(t)}, nil)
	assert.ErrorIs(t, noModel.Err(), rag.ErrModelUnavailable)

	for _, svc := range []*rag.Service{noStore, noModel} {
		resp := svc.Answer(context.Background(), "What is the price of Paneer Tikka?", 5)
		assert.Equal(t, "Error: Chatbot components (LLM or KB) not loaded properly.", resp.Text)
		assert.Equal(t, answer.StateNotLoaded, resp.State)
	}
	assert.Zero(t, gen.Calls())
}

func TestOpen_MissingIndex(t *testing.T) {
	cfg := &config.Config{}
	cfg.Index.Path = filepath.Join(t.TempDir(), "never-built")

	svc := rag.Open(context.Background(), cfg, nil)
	defer svc.Close()

	assert.False(t, svc.Ready())
	assert.ErrorIs(t, svc.Err(), rag.ErrIndexUnavailable)
	assert.Equal(t, answer.NotLoaded, svc.GetResponse(context.Background(), "menu?", 5))
}
