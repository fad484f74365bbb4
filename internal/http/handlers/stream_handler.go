package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/wolfman30/voice-booking-agent/internal/calls"
	"github.com/wolfman30/voice-booking-agent/internal/http/middleware"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

// StreamHandler pushes call events over a websocket and accepts voice events
// in the other direction, so a browser voice client needs a single socket.
type StreamHandler struct {
	calls    CallService
	upgrader websocket.Upgrader
	logger   *logging.Logger
}

func NewStreamHandler(svc CallService, allowedOrigins []string, logger *logging.Logger) *StreamHandler {
	if svc == nil {
		panic("handlers: call service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StreamHandler{
		calls: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     middleware.OriginChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// Stream handles GET /calls/{callID}/stream.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	events, cancel, err := h.calls.Subscribe(callID)
	if err != nil {
		writeCallError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		h.logger.Warn("stream: websocket upgrade failed", "error", err, "call_id", callID)
		return
	}
	h.logger.Info("stream: client attached", "call_id", callID)

	// The request context is cancelled once the handler returns, so the
	// read loop gets its own.
	ctx, stop := context.WithCancel(context.Background())
	go func() {
		defer stop()
		h.readLoop(ctx, conn, callID)
	}()
	go h.writeLoop(ctx, conn, callID, events, cancel)
}

func (h *StreamHandler) writeLoop(ctx context.Context, conn *websocket.Conn, callID string, events <-chan calls.Event, cancel func()) {
	ticker := time.NewTicker(streamPingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = conn.Close()
		h.logger.Info("stream: client detached", "call_id", callID)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "call ended"))
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				h.logger.Debug("stream: write failed", "error", err, "call_id", callID)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) readLoop(ctx context.Context, conn *websocket.Conn, callID string) {
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		var evt calls.VoiceEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("stream: read failed", "error", err, "call_id", callID)
			}
			return
		}
		if _, err := h.calls.HandleVoiceEvent(ctx, callID, evt); err != nil {
			if errors.Is(err, calls.ErrCallNotFound) {
				return
			}
			h.logger.Warn("stream: voice event rejected", "error", err, "call_id", callID, "type", evt.Type)
		}
	}
}
