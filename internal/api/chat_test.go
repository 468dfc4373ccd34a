package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func postChat(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestChatHandler_StreamsFragments(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t)
	handler := srv.Handler()

	w := postChat(t, handler, `{"token": "t1", "user_chat": "東京に行きたい"}`)

	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", got)
	}

	body := w.Body.String()
	for _, frame := range []string{
		`data: {"message":"回答:"}`,
		`data: {"message":"東京に行きたい"}`,
	} {
		if !strings.Contains(body, frame) {
			t.Errorf("body missing frame %q:\n%s", frame, body)
		}
	}
	if strings.Contains(body, "event: error") {
		t.Errorf("unexpected error event in body:\n%s", body)
	}
}

func TestChatHandler_TurnsAccumulateHistory(t *testing.T) {
	t.Parallel()

	srv, sessions, _ := newTestServer(t)
	handler := srv.Handler()

	postChat(t, handler, `{"token": "t2", "user_chat": "質問1"}`)
	postChat(t, handler, `{"token": "t2", "user_chat": "質問2"}`)

	planner, err := sessions.Planner("t2")
	if err != nil {
		t.Fatalf("Planner: %v", err)
	}
	history := planner.History()
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Input != "質問1" || history[1].Input != "質問2" {
		t.Errorf("history inputs = %q, %q", history[0].Input, history[1].Input)
	}
}

func TestChatHandler_RequestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "invalid json", body: `{not json`, wantCode: "invalid_request"},
		{name: "missing token", body: `{"user_chat": "こんにちは"}`, wantCode: "missing_token"},
		{name: "missing user_chat", body: `{"token": "t3"}`, wantCode: "missing_user_chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, _, _ := newTestServer(t)
			w := postChat(t, srv.Handler(), tt.body)

			body := w.Body.String()
			if !strings.Contains(body, "event: error") {
				t.Fatalf("expected error event, got:\n%s", body)
			}
			if !strings.Contains(body, tt.wantCode) {
				t.Errorf("body missing code %q:\n%s", tt.wantCode, body)
			}
		})
	}
}
