package agent

import "time"

// Turn is one completed user/assistant exchange. Immutable once appended.
type Turn struct {
	Input     string
	Output    string
	Timestamp time.Time // assigned at completion, not at receipt
}

// Memory is the append-only conversation log of one session. It is owned
// exclusively by that session's Planner and is not synchronized internally:
// the Planner serializes turns, so only one goroutine touches it at a time.
type Memory struct {
	turns []Turn
}

// NewMemory creates an empty conversation log.
func NewMemory() *Memory {
	return &Memory{}
}

// Append records a completed exchange. Called exactly once per finished
// turn, never for intermediate tool rounds.
func (m *Memory) Append(input, output string, ts time.Time) {
	m.turns = append(m.turns, Turn{Input: input, Output: output, Timestamp: ts})
}

// Turns returns the history in chronological order. The slice is a copy;
// callers cannot mutate the log through it.
func (m *Memory) Turns() []Turn {
	turns := make([]Turn, len(m.turns))
	copy(turns, m.turns)
	return turns
}

// Len returns the number of completed turns.
func (m *Memory) Len() int {
	return len(m.turns)
}
