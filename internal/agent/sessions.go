package agent

import (
	"errors"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/tripalhq/tripal/internal/llm"
	"github.com/tripalhq/tripal/internal/log"
	"github.com/tripalhq/tripal/internal/tools"
)

// SessionsConfig contains the shared collaborators every planner uses.
type SessionsConfig struct {
	Backend  llm.Backend
	Registry *tools.Registry
	Tools    []ai.ToolRef
	Recorder Recorder
	Logger   log.Logger

	MaxToolRounds  int
	FragmentBuffer int
}

func (cfg SessionsConfig) validate() error {
	if cfg.Backend == nil {
		return errors.New("backend is required")
	}
	if cfg.Registry == nil {
		return errors.New("tool registry is required")
	}
	if cfg.Recorder == nil {
		return errors.New("recorder is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// sessionEntry pairs a planner with its last access time so idle sessions
// can be reclaimed.
type sessionEntry struct {
	planner  *Planner
	lastSeen time.Time
}

// Sessions hands out one Planner per session key. Planners live until the
// transport removes them on disconnect or PruneIdle reclaims them; sessions
// share only the stateless collaborators.
type Sessions struct {
	cfg SessionsConfig
	now func() time.Time

	mu       sync.Mutex
	planners map[string]*sessionEntry
}

// NewSessions creates the session manager.
func NewSessions(cfg SessionsConfig) (*Sessions, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Sessions{
		cfg:      cfg,
		now:      time.Now,
		planners: make(map[string]*sessionEntry),
	}, nil
}

// Planner returns the planner for sessionKey, creating it on first use.
// Every access refreshes the session's idle clock.
func (s *Sessions) Planner(sessionKey string) (*Planner, error) {
	if sessionKey == "" {
		return nil, errors.New("session key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.planners[sessionKey]; ok {
		entry.lastSeen = s.now()
		return entry.planner, nil
	}

	planner, err := NewPlanner(PlannerConfig{
		SessionKey:     sessionKey,
		Backend:        s.cfg.Backend,
		Registry:       s.cfg.Registry,
		Tools:          s.cfg.Tools,
		Recorder:       s.cfg.Recorder,
		Logger:         s.cfg.Logger,
		MaxToolRounds:  s.cfg.MaxToolRounds,
		FragmentBuffer: s.cfg.FragmentBuffer,
	})
	if err != nil {
		return nil, err
	}
	s.planners[sessionKey] = &sessionEntry{planner: planner, lastSeen: s.now()}
	return planner, nil
}

// PruneIdle drops every session not accessed for at least maxIdle and
// returns how many were dropped. A pruned session only loses its map entry;
// a handler still holding the planner finishes its turn, and the next
// request under the same key starts a fresh history.
func (s *Sessions) PruneIdle(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	pruned := 0
	for key, entry := range s.planners {
		if !entry.lastSeen.After(cutoff) {
			delete(s.planners, key)
			pruned++
		}
	}
	return pruned
}

// Remove drops the session's planner and its in-memory history. Called by
// the transport on disconnect.
func (s *Sessions) Remove(sessionKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.planners, sessionKey)
}

// Count returns the number of live sessions.
func (s *Sessions) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.planners)
}
