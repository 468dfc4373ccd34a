// Package session persists conversations to PostgreSQL.
//
// The schema is two append-only tables: tokens (one row per issued session
// token) and conversation_history (one row per completed exchange, keyed by
// token id). Store implements the agent's Recorder contract on top of them.
package session
