package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tripalhq/tripal/internal/agent"
	"github.com/tripalhq/tripal/internal/log"
)

// maxChatBodyBytes caps the chat request body size.
const maxChatBodyBytes = 1 << 20

// ChatRequest is the body of one chat turn.
type ChatRequest struct {
	// Token identifies the session; obtained from POST /api/sessions.
	Token string `json:"token"`

	// UserChat is the user's message for this turn.
	UserChat string `json:"user_chat"`
}

// chatHandler streams conversation turns over SSE.
type chatHandler struct {
	sessions *agent.Sessions
	logger   log.Logger
}

// stream runs one conversation turn and streams its fragments as SSE
// frames. Each visible fragment becomes one `data: {"message": "..."}`
// frame; request-level failures are reported as an `event: error` frame.
func (h *chatHandler) stream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported by response writer")
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var req ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeSSEError(w, flusher, "invalid_request", "invalid request body")
		return
	}
	if req.Token == "" {
		h.writeSSEError(w, flusher, "missing_token", "token is required")
		return
	}
	if req.UserChat == "" {
		h.writeSSEError(w, flusher, "missing_user_chat", "user_chat is required")
		return
	}

	planner, err := h.sessions.Planner(req.Token)
	if err != nil {
		h.logger.Error("failed to get planner", "error", err, "token", req.Token)
		h.writeSSEError(w, flusher, "internal_error", "failed to start session")
		return
	}

	ctx := r.Context()
	h.logger.Debug("chat stream started", "token", req.Token)

	for frag := range planner.HandleTurn(ctx, req.UserChat) {
		select {
		case <-ctx.Done():
			// Client gone; drain the channel so the turn goroutine
			// can finish.
			continue
		default:
		}

		data, err := json.Marshal(frag)
		if err != nil {
			h.logger.Error("failed to encode fragment", "error", err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	h.logger.Debug("chat stream completed", "token", req.Token)
}

// writeSSEError writes an error event to the SSE stream.
func (h *chatHandler) writeSSEError(w http.ResponseWriter, flusher http.Flusher, code, message string) {
	data, _ := json.Marshal(ErrorResponse{Error: code, Message: message})
	fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
	flusher.Flush()
}
