package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"

	"github.com/tripalhq/tripal/internal/llm"
	"github.com/tripalhq/tripal/internal/log"
	"github.com/tripalhq/tripal/internal/tools"
)

// DefaultMaxToolRounds bounds the model/tool alternation within one turn.
const DefaultMaxToolRounds = 5

// state of the agent loop within one turn.
type state int

const (
	stateAwaitingModel state = iota
	stateExecutingTool
	stateFinal
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateAwaitingModel:
		return "awaiting_model"
	case stateExecutingTool:
		return "executing_tool"
	case stateFinal:
		return "final"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// LoopConfig contains the required parameters for the agent loop.
type LoopConfig struct {
	Backend  llm.Backend
	Registry *tools.Registry

	// Tools are the declarations offered to the model; execution still
	// goes through Registry.
	Tools []ai.ToolRef

	// MaxToolRounds caps model rounds per turn (0 = default).
	MaxToolRounds int

	Logger log.Logger
}

func (cfg LoopConfig) validate() error {
	if cfg.Backend == nil {
		return errors.New("backend is required")
	}
	if cfg.Registry == nil {
		return errors.New("tool registry is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.MaxToolRounds < 0 {
		return errors.New("max tool rounds must not be negative")
	}
	return nil
}

// Loop alternates between model rounds and tool executions until the model
// answers in plain text. Stateless across turns and safe to share.
type Loop struct {
	backend   llm.Backend
	registry  *tools.Registry
	toolRefs  []ai.ToolRef
	maxRounds int
	logger    log.Logger
}

// NewLoop creates an agent loop.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxRounds := cfg.MaxToolRounds
	if maxRounds == 0 {
		maxRounds = DefaultMaxToolRounds
	}

	return &Loop{
		backend:   cfg.Backend,
		registry:  cfg.Registry,
		toolRefs:  cfg.Tools,
		maxRounds: maxRounds,
		logger:    cfg.Logger,
	}, nil
}

// Run executes one turn. Run-log events stream through emit while rounds
// execute; the returned string is the model's final answer. A non-nil error
// is always an *ExecutionError: backend failure, cancellation, or the
// round cap.
func (l *Loop) Run(ctx context.Context, history []Turn, input string, emit llm.EmitFunc) (string, error) {
	st := stateAwaitingModel
	var scratchpad []*ai.Message

	for round := 0; round < l.maxRounds; round++ {
		messages := assembleMessages(history, input, scratchpad)

		resp, err := l.backend.Generate(ctx, round, llm.Request{
			Messages: messages,
			Tools:    l.toolRefs,
		}, emit)
		if err != nil {
			l.transition(&st, stateFailed, round)
			return "", &ExecutionError{Round: round, Err: err}
		}

		requests := resp.ToolRequests()
		if len(requests) == 0 {
			l.transition(&st, stateFinal, round)
			return resp.Text(), nil
		}

		l.transition(&st, stateExecutingTool, round)

		// The model message carrying the requests and the tool
		// message carrying the results enter the scratchpad as a
		// pair, so every request is answered before the next round.
		scratchpad = append(scratchpad, resp.Message)

		parts := make([]*ai.Part, 0, len(requests))
		for _, req := range requests {
			output, err := l.executeTool(ctx, req, emit)
			if err != nil {
				l.transition(&st, stateFailed, round)
				return "", &ExecutionError{Round: round, Err: err}
			}
			parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   req.Name,
				Ref:    req.Ref,
				Output: output,
			}))
		}
		scratchpad = append(scratchpad, ai.NewMessage(ai.RoleTool, nil, parts...))

		l.transition(&st, stateAwaitingModel, round)
	}

	l.transition(&st, stateFailed, l.maxRounds)
	return "", &ExecutionError{
		Round: l.maxRounds,
		Err:   fmt.Errorf("%w: %d rounds", ErrToolRoundsExceeded, l.maxRounds),
	}
}

// executeTool resolves and runs one requested tool. Unknown tools and tool
// failures come back as synthetic result text for the model; only
// cancellation returns an error.
func (l *Loop) executeTool(ctx context.Context, req *ai.ToolRequest, emit llm.EmitFunc) (string, error) {
	emit(llm.RawEvent{Path: llm.ToolPath(req.Name)})

	spec, err := l.registry.Get(req.Name)
	if err != nil {
		l.logger.Warn("model requested unknown tool", "tool", req.Name)
		return toolFailureText(err), nil
	}

	l.logger.Debug("executing tool", "tool", req.Name)
	output, err := spec.Invoke(ctx, req.Input)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		l.logger.Warn("tool execution failed", "tool", req.Name, "error", err)
		return toolFailureText(err), nil
	}
	return output, nil
}

func (l *Loop) transition(st *state, to state, round int) {
	l.logger.Debug("loop transition", "from", *st, "to", to, "round", round)
	*st = to
}

// toolFailureText renders a tool failure as the tool-result text the model
// reads. The phrasing invites the model to retry differently or hand the
// problem back to the user.
func toolFailureText(err error) string {
	return fmt.Sprintf("[ToolException]\nThe following errors occurred during tool execution:\n%v\nPlease try another tool or let the user type again!", err)
}
