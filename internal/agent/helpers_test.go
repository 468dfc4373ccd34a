package agent

import (
	"context"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/tripalhq/tripal/internal/llm"
)

func textResponse(text string) *ai.ModelResponse {
	return &ai.ModelResponse{Message: ai.NewModelMessage(ai.NewTextPart(text))}
}

func toolRequestResponse(name string, input map[string]any) *ai.ModelResponse {
	return &ai.ModelResponse{Message: ai.NewModelMessage(
		ai.NewToolRequestPart(&ai.ToolRequest{Name: name, Input: input}),
	)}
}

// scriptedRound describes one backend invocation: tokens streamed, then
// either an error or a response whose text becomes the final event.
type scriptedRound struct {
	tokens []string
	resp   *ai.ModelResponse
	err    error
}

// fakeBackend replays scripted rounds and captures every request it saw.
// When the script runs out it repeats the last round.
type fakeBackend struct {
	mu       sync.Mutex
	rounds   []scriptedRound
	requests []llm.Request
}

func (f *fakeBackend) Component() string { return llm.Component }

func (f *fakeBackend) Generate(_ context.Context, round int, req llm.Request, emit llm.EmitFunc) (*ai.ModelResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	idx := len(f.requests) - 1
	if idx >= len(f.rounds) {
		idx = len(f.rounds) - 1
	}
	r := f.rounds[idx]
	f.mu.Unlock()

	for _, tok := range r.tokens {
		emit(llm.RawEvent{Path: llm.StreamPath(llm.Component, round), Token: tok})
	}
	if r.err != nil {
		return nil, r.err
	}
	emit(llm.RawEvent{Path: llm.FinalPath(llm.Component, round), Final: r.resp.Text()})
	return r.resp, nil
}

func (f *fakeBackend) seenRequests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	requests := make([]llm.Request, len(f.requests))
	copy(requests, f.requests)
	return requests
}

// echoBackend answers every turn with "回答:" plus the current user message.
type echoBackend struct{}

func (echoBackend) Component() string { return llm.Component }

func (echoBackend) Generate(_ context.Context, round int, req llm.Request, emit llm.EmitFunc) (*ai.ModelResponse, error) {
	input := ""
	for _, msg := range req.Messages {
		if msg.Role == ai.RoleUser && len(msg.Content) > 0 {
			input = msg.Content[0].Text
		}
	}
	answer := "回答:" + input
	emit(llm.RawEvent{Path: llm.StreamPath(llm.Component, round), Token: answer})
	emit(llm.RawEvent{Path: llm.FinalPath(llm.Component, round), Final: answer})
	return textResponse(answer), nil
}

// blockingBackend waits for cancellation and reports it.
type blockingBackend struct {
	started chan struct{}
}

func (b *blockingBackend) Component() string { return llm.Component }

func (b *blockingBackend) Generate(ctx context.Context, _ int, _ llm.Request, _ llm.EmitFunc) (*ai.ModelResponse, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

type recordCall struct {
	sessionKey string
	input      string
	output     string
	ts         time.Time
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordCall
	err   error
}

func (f *fakeRecorder) Record(_ context.Context, sessionKey, input, output string, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordCall{sessionKey, input, output, ts})
	return f.err
}

func (f *fakeRecorder) recorded() []recordCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([]recordCall, len(f.calls))
	copy(calls, f.calls)
	return calls
}
