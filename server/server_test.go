package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/menurag/pkg/answer"
)

type fakeService struct {
	mu      sync.Mutex
	ready   bool
	queries []string
	topK    int
}

func (f *fakeService) Answer(_ context.Context, query string, topK int) answer.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	f.topK = topK
	if strings.Contains(query, "sushi") {
		return answer.Response{Text: answer.Refusal, State: answer.StateRespondAnswer}
	}
	return answer.Response{Text: "The Paneer Tikka is 250.", State: answer.StateRespondAnswer}
}

func (f *fakeService) Ready() bool { return f.ready }

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg Message) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
	var reply map[string]interface{}
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestWebSocket_QueryAndHistory(t *testing.T) {
	svc := &fakeService{ready: true}
	ts := httptest.NewServer(NewWithConfig(ServerConfig{TopK: 3}, svc, nil).Router())
	defer ts.Close()

	conn := dial(t, ts)

	reply := roundTrip(t, conn, Message{Type: TypeQuery, Content: "  Paneer Tikka price?  "})
	assert.Equal(t, TypeResponse, reply["type"])
	assert.Equal(t, "The Paneer Tikka is 250.", reply["content"])
	assert.Equal(t, map[string]interface{}{"state": "respond_answer"}, reply["data"])

	reply = roundTrip(t, conn, Message{Content: "any sushi?"})
	assert.Equal(t, answer.Refusal, reply["content"])

	reply = roundTrip(t, conn, Message{Type: TypeHistory})
	assert.Equal(t, TypeHistory, reply["type"])
	turns, ok := reply["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, turns, 2)
	assert.Equal(t, "Paneer Tikka price?", turns[0].(map[string]interface{})["query"])
	assert.Equal(t, answer.Refusal, turns[1].(map[string]interface{})["answer"])

	assert.Equal(t, []string{"Paneer Tikka price?", "any sushi?"}, svc.queries)
	assert.Equal(t, 3, svc.topK)

	// a second connection starts with an empty history
	other := dial(t, ts)
	reply = roundTrip(t, other, Message{Type: TypeHistory})
	assert.Empty(t, reply["data"])
}

func TestWebSocket_BadMessages(t *testing.T) {
	svc := &fakeService{ready: true}
	ts := httptest.NewServer(NewWithConfig(ServerConfig{}, svc, nil).Router())
	defer ts.Close()

	conn := dial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var reply Message
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, TypeError, reply.Type)

	r := roundTrip(t, conn, Message{Type: TypeQuery, Content: "   "})
	assert.Equal(t, "empty query", r["content"])

	r = roundTrip(t, conn, Message{Type: "stream"})
	assert.Equal(t, "unknown message type: stream", r["content"])

	assert.Empty(t, svc.queries)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		ready  bool
		status int
		body   string
	}{
		{"ready", true, http.StatusOK, "OK"},
		{"not ready", false, http.StatusServiceUnavailable, answer.NotLoaded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(NewWithConfig(ServerConfig{}, &fakeService{ready: tt.ready}, nil).Router())
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/health")
			require.NoError(t, err)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := httptest.NewServer(NewWithConfig(ServerConfig{}, &fakeService{ready: true}, nil).Router())
	defer ts.Close()

	_, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `menurag_http_requests_total{method="GET",path="/health",status="200"}`)
}

func TestRun_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewWithConfig(ServerConfig{}, &fakeService{ready: true}, nil).Run(ctx, "127.0.0.1:0")
	}()
	cancel()
	assert.NoError(t, <-done)
}
