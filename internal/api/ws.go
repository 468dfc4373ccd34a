package api

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tripalhq/tripal/internal/agent"
	"github.com/tripalhq/tripal/internal/log"
)

// wsHandler runs conversations over a WebSocket. One goroutine serves the
// whole connection, which gives the session natural turn ordering.
type wsHandler struct {
	sessions *agent.Sessions
	logger   log.Logger
	upgrader websocket.Upgrader
}

func newWSHandler(sessions *agent.Sessions, logger log.Logger) *wsHandler {
	return &wsHandler{
		sessions: sessions,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// WSIncoming is one turn request read from the socket.
type WSIncoming struct {
	UserChat string `json:"user_chat"`
}

// WSTurnEnd marks the end of a turn's fragment stream.
type WSTurnEnd struct {
	Done bool `json:"done"`
}

// serve upgrades the connection and loops: read one turn request, stream
// its fragments back as JSON frames, send a done marker, repeat. The
// in-memory session is dropped when the connection closes.
func (h *wsHandler) serve(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing_token", "session token is required", h.logger)
		return
	}

	planner, err := h.sessions.Planner(token)
	if err != nil {
		h.logger.Error("failed to get planner", "error", err, "token", token)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to start session", h.logger)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", "error", err, "token", token)
		return
	}
	defer func() {
		_ = conn.Close()
		h.sessions.Remove(token)
		h.logger.Debug("websocket session closed", "token", token)
	}()

	conn.SetReadLimit(maxChatBodyBytes)
	h.logger.Debug("websocket session started", "token", token)

	// The hijacked request context never fires on its own, so disconnects
	// are surfaced through a dedicated reader: it notices the peer going
	// away even while a turn is streaming and cancels the in-flight
	// HandleTurn instead of letting it run against a dead socket.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	incoming := make(chan WSIncoming)
	go func() {
		defer cancel()
		for {
			var in WSIncoming
			if err := conn.ReadJSON(&in); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.Warn("websocket read failed", "error", err, "token", token)
				}
				return
			}
			select {
			case incoming <- in:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var in WSIncoming
		select {
		case <-ctx.Done():
			return
		case in = <-incoming:
		}
		if in.UserChat == "" {
			if err := conn.WriteJSON(ErrorResponse{Error: "missing_user_chat", Message: "user_chat is required"}); err != nil {
				return
			}
			continue
		}

		var writeErr error
		for frag := range planner.HandleTurn(ctx, in.UserChat) {
			if writeErr != nil {
				// Keep draining so the turn goroutine can finish.
				continue
			}
			if writeErr = conn.WriteJSON(frag); writeErr != nil {
				cancel()
			}
		}
		if writeErr != nil {
			h.logger.Warn("websocket write failed", "error", writeErr, "token", token)
			return
		}
		if err := conn.WriteJSON(WSTurnEnd{Done: true}); err != nil {
			return
		}
	}
}
