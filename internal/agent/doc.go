// Package agent implements the streaming orchestration layer of the travel
// assistant: per-session conversational state, prompt assembly, the
// model/tool loop, run-log classification, and conversation recording.
//
// # Flow
//
// The transport hands a session key and one user turn to a Planner. The
// Planner assembles the prompt from the session's Memory, drives the Loop
// (model rounds alternating with tool executions), classifies the backend's
// run-log events into user-visible token fragments, and streams them on a
// bounded channel. When the model produces its final answer the turn is
// appended to Memory and handed to the Recorder; recording failures are
// logged and never reach the user.
//
// # Concurrency
//
// One Planner owns one session. Turns within a session are strictly
// serialized: a turn's fragment channel must close before the next turn
// starts reading history. Independent sessions run fully in parallel; the
// model backend and tool registry are stateless and shared.
package agent
