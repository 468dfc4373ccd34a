// Package app provides application initialization.
//
// App is the container that wires all components together: Genkit with the
// configured model provider, the travel tool registry, the database-backed
// session store, and the per-session planner manager. Construction happens
// in setup.go via provide* functions; everything is passed by reference,
// no package globals.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tripalhq/tripal/internal/agent"
	"github.com/tripalhq/tripal/internal/config"
	"github.com/tripalhq/tripal/internal/llm"
	"github.com/tripalhq/tripal/internal/log"
	"github.com/tripalhq/tripal/internal/session"
	"github.com/tripalhq/tripal/internal/tools"
)

// App is the application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	// Core services
	Genkit   *genkit.Genkit
	Pool     *pgxpool.Pool  // nil in console mode
	Store    *session.Store // nil in console mode
	Registry *tools.Registry
	ToolRefs []ai.ToolRef
	Backend  *llm.Client
	Sessions *agent.Sessions

	otelShutdown func()
}

// Close releases all resources. Safe to call on a partially built App.
func (a *App) Close() {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.Pool != nil {
		a.Pool.Close()
		a.Logger.Debug("database pool closed")
	}
	if a.otelShutdown != nil {
		a.otelShutdown()
	}
}
