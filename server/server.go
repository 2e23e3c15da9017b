// Package server exposes the menu query service over a websocket, alongside
// health and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xhad/menurag/pkg/answer"
	"github.com/xhad/menurag/pkg/metrics"
)

// Message types exchanged over the socket.
const (
	TypeQuery    = "query"
	TypeHistory  = "history"
	TypeResponse = "response"
	TypeError    = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// Turn is one exchange in a connection's conversation.
type Turn struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
	State  string `json:"state"`
}

// Answerer is the query service the server fronts.
type Answerer interface {
	Answer(ctx context.Context, query string, topK int) answer.Response
	Ready() bool
}

type ServerConfig struct {
	TopK            int
	ShutdownTimeout time.Duration
}

type WSServer struct {
	service Answerer
	config  ServerConfig
	logger  *zap.Logger
}

func NewWithConfig(config ServerConfig, service Answerer, logger *zap.Logger) *WSServer {
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSServer{service: service, config: config, logger: logger}
}

// Router returns the HTTP handler with all routes mounted.
func (s *WSServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *WSServer) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting websocket server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down websocket server")
	return srv.Shutdown(shutdownCtx)
}

func (s *WSServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if !s.service.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(answer.NotLoaded))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleWebSocket answers queries one at a time in arrival order. Each
// connection keeps its own append-only history.
func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := s.logger.With(zap.String("remote", r.RemoteAddr))
	log.Debug("websocket connected")

	var history []Turn
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("error reading message", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendMessage(conn, Message{Type: TypeError, Content: "invalid message"})
			continue
		}

		switch msg.Type {
		case TypeHistory:
			s.sendMessage(conn, Message{Type: TypeHistory, Data: append([]Turn{}, history...)})
		case TypeQuery, "":
			query := strings.TrimSpace(msg.Content)
			if query == "" {
				s.sendMessage(conn, Message{Type: TypeError, Content: "empty query"})
				continue
			}
			resp := s.service.Answer(r.Context(), query, s.config.TopK)
			history = append(history, Turn{Query: query, Answer: resp.Text, State: string(resp.State)})
			s.sendMessage(conn, Message{
				Type:    TypeResponse,
				Content: resp.Text,
				Data:    map[string]string{"state": string(resp.State)},
			})
		default:
			s.sendMessage(conn, Message{Type: TypeError, Content: "unknown message type: " + msg.Type})
		}
	}
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msg Message) {
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Warn("error sending message", zap.Error(err))
	}
}
