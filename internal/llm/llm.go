// Package llm provides the model backend abstraction for the travel agent.
//
// A Backend runs one model invocation and reports its progress as a run log:
// a stream of RawEvent values whose Path identifies which internal
// computation produced them. Token events arrive in generation order; a
// final-output event closes each invocation. Consumers classify events
// structurally by path markers — a single turn can contain several model
// invocations (one per tool-call round), and only the path prefix is stable
// across them.
package llm

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
)

// Path markers for run-log events.
//
// A full path looks like "/logs/ChatModel:2/streamed_output_str/-" where the
// ":2" round suffix varies per invocation within a turn (the first round has
// no suffix). Consumers must match on the stable prefix and suffix only,
// never on the full path.
const (
	// PathPrefix starts every run-log path.
	PathPrefix = "/logs/"

	// Component is the path component for top-level chat-model invocations.
	Component = "ChatModel"

	// StreamedSuffix marks an incremental token event.
	StreamedSuffix = "/streamed_output_str/-"

	// FinalSuffix marks the completed-generation event of an invocation.
	FinalSuffix = "/final_output"
)

// RawEvent is one patch from the run log of a model invocation.
// Exactly one of Token or Final carries content, selected by the Path
// suffix; events with neither are progress markers for other computations.
type RawEvent struct {
	// Path identifies the computation that produced this event.
	Path string

	// Token is the incremental text fragment for streamed-output events.
	Token string

	// Final is the complete generated text for final-output events.
	// Empty when the invocation produced no user-visible text (for
	// example a round that only requested tools).
	Final string
}

// StreamPath builds the run-log path for a token event of the given round.
func StreamPath(component string, round int) string {
	return PathPrefix + roundComponent(component, round) + StreamedSuffix
}

// FinalPath builds the run-log path for the final event of the given round.
func FinalPath(component string, round int) string {
	return PathPrefix + roundComponent(component, round) + FinalSuffix
}

// ToolPath builds the run-log path for a tool execution. These events never
// match the chat-model marker and are ignored by classification.
func ToolPath(toolName string) string {
	return PathPrefix + toolName
}

// roundComponent appends the per-round suffix. The first invocation of a
// turn carries the bare component name; later rounds get ":<n>".
func roundComponent(component string, round int) string {
	if round == 0 {
		return component
	}
	return fmt.Sprintf("%s:%d", component, round)
}

// Request is the input of one model invocation round.
type Request struct {
	// Messages is the fully assembled prompt, in order.
	Messages []*ai.Message

	// Tools are the callable declarations offered to the model. The
	// backend never executes them; tool requests come back in the
	// response for the caller to run.
	Tools []ai.ToolRef
}

// EmitFunc receives run-log events in arrival order. Implementations must
// not block for long: they sit between the model stream and the transport.
type EmitFunc func(RawEvent)

// Backend runs model invocations.
type Backend interface {
	// Component returns the stable path component this backend tags its
	// run-log events with.
	Component() string

	// Generate runs one model invocation, emitting token events while the
	// model streams and exactly one final-output event on completion.
	// round tags the emitted paths; it increments per tool-call round
	// within a turn.
	Generate(ctx context.Context, round int, req Request, emit EmitFunc) (*ai.ModelResponse, error)
}
