package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"skywatch-agent/internal/model"
)

type WebSocketConfig struct {
	URL          string
	Token        string
	WriteTimeout time.Duration
}

// Frame is the transport framing for one batch over the socket.
type Frame struct {
	Kind    string                `json:"kind"` // "samples" | "alerts"
	SentAt  string                `json:"sent_at"`
	Samples []model.SamplePayload `json:"samples,omitempty"`
	Alerts  []model.AlertPayload  `json:"alerts,omitempty"`
}

// WebSocketSink streams JSON frames to a backend. The connection is
// opened lazily and reopened once after a failed write.
type WebSocketSink struct {
	mu sync.Mutex

	logger       *slog.Logger
	url          string
	token        string
	writeTimeout time.Duration
	conn         *websocket.Conn
}

func NewWebSocketSink(cfg WebSocketConfig, logger *slog.Logger) *WebSocketSink {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &WebSocketSink{
		logger:       logger,
		url:          cfg.URL,
		token:        cfg.Token,
		writeTimeout: cfg.WriteTimeout,
	}
}

func (s *WebSocketSink) WriteSamples(ctx context.Context, batch []model.SamplePayload) error {
	if len(batch) == 0 {
		return nil
	}
	return s.sendFrame(ctx, Frame{Kind: "samples", Samples: batch})
}

func (s *WebSocketSink) WriteAlerts(ctx context.Context, batch []model.AlertPayload) error {
	if len(batch) == 0 {
		return nil
	}
	return s.sendFrame(ctx, Frame{Kind: "alerts", Alerts: batch})
}

func (s *WebSocketSink) sendFrame(ctx context.Context, frame Frame) error {
	frame.SentAt = time.Now().UTC().Format(time.RFC3339Nano)
	payload, err := json.Marshal(frame)
	if err != nil {
		return wrapErr("websocket", fmt.Errorf("encode frame: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureConnLocked(ctx); err != nil {
		return wrapErr("websocket", err)
	}

	wctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := s.conn.Write(wctx, websocket.MessageText, payload); err != nil {
		s.logger.Warn("websocket write failed, reconnecting", "error", err)
		_ = s.conn.Close(websocket.StatusInternalError, "reconnect")
		s.conn = nil
		if err2 := s.ensureConnLocked(ctx); err2 != nil {
			return wrapErr("websocket", err2)
		}
		// the first attempt may have burned the whole budget, so the
		// retry gets its own timeout
		rctx, rcancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer rcancel()
		if err2 := s.conn.Write(rctx, websocket.MessageText, payload); err2 != nil {
			return wrapErr("websocket", fmt.Errorf("write retry: %w", err2))
		}
	}
	return nil
}

func (s *WebSocketSink) ensureConnLocked(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}
	h := http.Header{}
	if s.token != "" {
		h.Set("Authorization", "Bearer "+s.token)
	}
	conn, _, err := websocket.Dial(ctx, s.url, &websocket.DialOptions{HTTPHeader: h})
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	conn.SetReadLimit(1 << 20)
	s.conn = conn
	s.logger.Info("websocket sink connected", "url", s.url)
	return nil
}

func (s *WebSocketSink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close(websocket.StatusNormalClosure, "shutdown")
	s.conn = nil
	return wrapErr("websocket", err)
}
