package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/tripalhq/tripal/internal/llm"
	"github.com/tripalhq/tripal/internal/log"
	"github.com/tripalhq/tripal/internal/tools"
)

// DefaultFragmentBuffer is the fragment channel capacity. It only smooths
// bursts; ordering and completeness never depend on it.
const DefaultFragmentBuffer = 16

// Fragment is one user-visible piece of a turn's streamed answer. The JSON
// shape is the wire format the transports forward verbatim.
type Fragment struct {
	Message string `json:"message"`
}

// Recorded conversation timestamps use Tokyo time, the assistant's home
// market.
var tokyoZone = loadTokyoZone()

func loadTokyoZone() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// PlannerConfig contains the required parameters for a session's planner.
type PlannerConfig struct {
	// SessionKey identifies the conversation towards the Recorder.
	SessionKey string

	Backend  llm.Backend
	Registry *tools.Registry
	Tools    []ai.ToolRef
	Recorder Recorder
	Logger   log.Logger

	// MaxToolRounds caps model rounds per turn (0 = default).
	MaxToolRounds int

	// FragmentBuffer is the output channel capacity (0 = default).
	FragmentBuffer int

	// Now overrides the completion-timestamp clock (tests).
	Now func() time.Time
}

func (cfg PlannerConfig) validate() error {
	if cfg.SessionKey == "" {
		return errors.New("session key is required")
	}
	if cfg.Recorder == nil {
		return errors.New("recorder is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.FragmentBuffer < 0 {
		return errors.New("fragment buffer must not be negative")
	}
	return nil
}

// Planner orchestrates one session's turns: prompt assembly, the agent
// loop, stream classification, and recording. It owns the session's Memory
// exclusively.
type Planner struct {
	sessionKey string
	backend    llm.Backend
	loop       *Loop
	memory     *Memory
	recorder   Recorder
	logger     log.Logger
	buffer     int
	now        func() time.Time

	// turnMu serializes turns: turn N+1 must not read history before
	// turn N has appended to it.
	turnMu sync.Mutex
}

// NewPlanner creates a planner for one session.
func NewPlanner(cfg PlannerConfig) (*Planner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	loop, err := NewLoop(LoopConfig{
		Backend:       cfg.Backend,
		Registry:      cfg.Registry,
		Tools:         cfg.Tools,
		MaxToolRounds: cfg.MaxToolRounds,
		Logger:        cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	buffer := cfg.FragmentBuffer
	if buffer == 0 {
		buffer = DefaultFragmentBuffer
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().In(tokyoZone) }
	}

	return &Planner{
		sessionKey: cfg.SessionKey,
		backend:    cfg.Backend,
		loop:       loop,
		memory:     NewMemory(),
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		buffer:     buffer,
		now:        now,
	}, nil
}

// HandleTurn runs one conversation turn. The returned channel yields the
// turn's visible fragments in model order and closes when the turn is over;
// it is finite and not restartable. On an unrecoverable failure the channel
// carries exactly one apology fragment. If ctx is cancelled mid-turn the
// channel closes without recording the partial turn.
//
// Turns are serialized per planner: a call blocks internally until the
// previous turn's channel has closed.
func (p *Planner) HandleTurn(ctx context.Context, input string) <-chan Fragment {
	out := make(chan Fragment, p.buffer)

	go func() {
		p.turnMu.Lock()
		defer p.turnMu.Unlock()
		defer close(out)
		p.runTurn(ctx, input, out)
	}()

	return out
}

// History returns the session's completed turns.
func (p *Planner) History() []Turn {
	p.turnMu.Lock()
	defer p.turnMu.Unlock()
	return p.memory.Turns()
}

func (p *Planner) runTurn(ctx context.Context, input string, out chan<- Fragment) {
	classifier := NewClassifier(p.backend.Component())
	history := p.memory.Turns()

	emit := func(ev llm.RawEvent) {
		kind, text := classifier.Classify(ev)
		if kind != Token {
			return
		}
		select {
		case out <- Fragment{Message: text}:
		case <-ctx.Done():
		}
	}

	final, err := p.loop.Run(ctx, history, input, emit)
	if err != nil {
		if ctx.Err() != nil {
			// Disconnect: nothing to apologize to, nothing to
			// record for the incomplete turn.
			p.logger.Info("turn cancelled",
				"session", p.sessionKey,
				"error", ctx.Err(),
			)
			return
		}
		p.logger.Error("turn failed",
			"session", p.sessionKey,
			"error", err,
		)
		select {
		case out <- Fragment{Message: apologyMessage}:
		case <-ctx.Done():
		}
		return
	}

	if final == "" {
		final = emptyAnswerMessage
		select {
		case out <- Fragment{Message: final}:
		case <-ctx.Done():
		}
	}

	// Memory first, then the recorder: the next turn's prompt must see
	// this exchange even if persistence is down.
	ts := p.now()
	p.memory.Append(input, final, ts)

	if err := p.recorder.Record(ctx, p.sessionKey, input, final, ts); err != nil {
		p.logger.Warn("conversation record failed",
			"session", p.sessionKey,
			"error", err,
		)
	}
}
