// Package api provides the HTTP transport for the travel planner.
//
// Endpoints:
//
//	POST   /api/sessions          issue a session token (persisted)
//	DELETE /api/sessions/{token}  drop the session's in-memory history
//	POST   /api/chat              one conversation turn, streamed as SSE
//	GET    /api/ws/{token}        conversation over a WebSocket (one turn
//	                              per received message, fragments
//	                              streamed back)
//	GET    /health                liveness probe
//	GET    /ready                 readiness probe (database ping)
//
// In-memory session state is bounded: WebSocket sessions are dropped on
// disconnect, SSE clients should DELETE their session when done, and any
// session untouched for SessionIdleTTL is reclaimed by a background sweep.
// The chat stream uses the planner's wire format: each visible fragment is
// one SSE frame `data: {"message": "..."}`. Request-level failures (bad
// body, missing fields) are reported as an `event: error` frame; failures
// inside a turn surface as the planner's own apology fragment, so the
// stream itself always terminates cleanly.
//
// File structure:
//   - server.go: route registration, middleware stack, server lifecycle
//   - middleware.go: recovery and request logging
//   - chat.go: SSE chat endpoint
//   - ws.go: WebSocket chat endpoint
//   - session.go: session token issuance
//   - health.go: probes
//   - response.go: JSON response helpers
package api
