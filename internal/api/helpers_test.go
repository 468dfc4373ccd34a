package api

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/firebase/genkit/go/ai"

	"github.com/tripalhq/tripal/internal/agent"
	"github.com/tripalhq/tripal/internal/llm"
	"github.com/tripalhq/tripal/internal/log"
	"github.com/tripalhq/tripal/internal/tools"
)

// echoBackend answers every turn with "回答:" plus the user's message,
// streamed as two tokens.
type echoBackend struct{}

func (echoBackend) Component() string { return llm.Component }

func (echoBackend) Generate(_ context.Context, round int, req llm.Request, emit llm.EmitFunc) (*ai.ModelResponse, error) {
	input := ""
	for _, msg := range req.Messages {
		if msg.Role == ai.RoleUser && len(msg.Content) > 0 {
			input = msg.Content[0].Text
		}
	}
	emit(llm.RawEvent{Path: llm.StreamPath(llm.Component, round), Token: "回答:"})
	emit(llm.RawEvent{Path: llm.StreamPath(llm.Component, round), Token: input})
	answer := "回答:" + input
	emit(llm.RawEvent{Path: llm.FinalPath(llm.Component, round), Final: answer})
	return &ai.ModelResponse{Message: ai.NewModelMessage(ai.NewTextPart(answer))}, nil
}

// fakeTokenStore is an in-memory tokenStore.
type fakeTokenStore struct {
	mu        sync.Mutex
	tokens    map[string]int64
	nextID    int64
	createErr error
	pingErr   error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]int64)}
}

func (f *fakeTokenStore) CreateToken(_ context.Context, token string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	if _, ok := f.tokens[token]; ok {
		return 0, errors.New("duplicate token")
	}
	f.nextID++
	f.tokens[token] = f.nextID
	return f.nextID, nil
}

func (f *fakeTokenStore) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeTokenStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

// newTestServer builds a server over the echo backend with an in-memory
// store.
func newTestServer(t *testing.T) (*Server, *agent.Sessions, *fakeTokenStore) {
	t.Helper()

	sessions, err := agent.NewSessions(agent.SessionsConfig{
		Backend:  echoBackend{},
		Registry: tools.NewRegistry(),
		Recorder: agent.NopRecorder{},
		Logger:   log.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewSessions: %v", err)
	}

	store := newFakeTokenStore()
	srv, err := NewServer(ServerConfig{
		Sessions: sessions,
		Store:    store,
		Logger:   log.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, sessions, store
}
