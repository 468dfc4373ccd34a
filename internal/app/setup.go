package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tripalhq/tripal/db"
	"github.com/tripalhq/tripal/internal/agent"
	"github.com/tripalhq/tripal/internal/config"
	"github.com/tripalhq/tripal/internal/llm"
	"github.com/tripalhq/tripal/internal/log"
	"github.com/tripalhq/tripal/internal/session"
	"github.com/tripalhq/tripal/internal/tools"
)

// Setup creates and initializes the full application: storage, model
// provider, tools, and the session manager. Conversations are recorded to
// the database. Call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	a.otelShutdown = provideOtelShutdown(ctx, cfg, logger)

	pool, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	store, err := session.New(pool, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store

	if err := a.setupAgent(ctx, store); err != nil {
		return nil, err
	}
	return a, nil
}

// SetupConsole creates the application without storage: conversations stay
// in memory only. Used by the interactive console.
func SetupConsole(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	a.otelShutdown = provideOtelShutdown(ctx, cfg, logger)

	if err := a.setupAgent(ctx, agent.NopRecorder{}); err != nil {
		return nil, err
	}
	return a, nil
}

// setupAgent builds the provider-independent core: Genkit, tools, the model
// client, and the session manager.
func (a *App) setupAgent(ctx context.Context, recorder agent.Recorder) error {
	g, err := provideGenkit(ctx, a.Config, a.Logger)
	if err != nil {
		return err
	}
	a.Genkit = g

	registry, err := provideTools(a.Config, a.Logger)
	if err != nil {
		return err
	}
	a.Registry = registry
	a.ToolRefs = registry.Define(g)

	backend, err := llm.NewClient(llm.ClientConfig{
		Genkit:      g,
		ModelName:   qualifiedModelName(a.Config),
		Temperature: a.Config.Temperature,
		Logger:      a.Logger,
	})
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}
	a.Backend = backend

	sessions, err := agent.NewSessions(agent.SessionsConfig{
		Backend:        backend,
		Registry:       registry,
		Tools:          a.ToolRefs,
		Recorder:       recorder,
		Logger:         a.Logger,
		MaxToolRounds:  a.Config.MaxToolRounds,
		FragmentBuffer: a.Config.FragmentBuffer,
	})
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}
	a.Sessions = sessions
	return nil
}

// provideOtelShutdown sets up OTLP trace export before Genkit
// initialization, so the span processor is registered on Genkit's
// TracerProvider from the start. An empty endpoint disables tracing.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	if cfg.Otel.Endpoint == "" {
		return func() {}
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Otel.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating OTLP exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("OTLP tracing enabled",
		"endpoint", cfg.Otel.Endpoint,
		"service", cfg.Otel.ServiceName,
		"environment", cfg.Otel.Environment)

	shutdown := tracing.TracerProvider().Shutdown
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the configured model provider.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery).
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderGoogleAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with googleai provider")
		}
		logger.Info("initialized Genkit with googleai provider", "model", cfg.ModelName)

	default: // openai-compatible
		plugin := &openai.OpenAI{APIKey: cfg.OpenAIAPIKey}
		if cfg.OpenAIBaseURL != "" {
			plugin.Opts = append(plugin.Opts, option.WithBaseURL(cfg.OpenAIBaseURL))
		}
		g = genkit.Init(ctx, genkit.WithPlugins(plugin))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized Genkit with openai provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideTools builds the travel tool registry: location suggestions
// (TripAdvisor) and hotel reservations (Rakuten Travel).
func provideTools(cfg *config.Config, logger log.Logger) (*tools.Registry, error) {
	registry := tools.NewRegistry()

	tripAdvisor, err := tools.NewTripAdvisor(tools.TripAdvisorConfig{
		APIKey:  cfg.TripAdvisorAPIKey,
		BaseURL: cfg.TripAdvisorBaseURL,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating tripadvisor client: %w", err)
	}
	locationSpec, err := tools.NewLocationSpec(tripAdvisor, logger)
	if err != nil {
		return nil, fmt.Errorf("creating location tool: %w", err)
	}
	if err := registry.Register(locationSpec); err != nil {
		return nil, err
	}

	rakuten, err := tools.NewRakuten(tools.RakutenConfig{
		ApplicationID: cfg.RakutenAppID,
		AffiliateID:   cfg.RakutenAffiliateID,
		BaseURL:       cfg.RakutenBaseURL,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating rakuten client: %w", err)
	}
	reservationSpec, err := tools.NewReservationSpec(rakuten, logger)
	if err != nil {
		return nil, fmt.Errorf("creating reservation tool: %w", err)
	}
	if err := registry.Register(reservationSpec); err != nil {
		return nil, err
	}

	logger.Info("tools registered", "count", registry.Count())
	return registry, nil
}

// qualifiedModelName prefixes the model name with its provider namespace
// the way Genkit registers models.
func qualifiedModelName(cfg *config.Config) string {
	switch cfg.Provider {
	case config.ProviderOllama:
		return "ollama/" + cfg.ModelName
	case config.ProviderGoogleAI:
		return "googleai/" + cfg.ModelName
	default:
		return "openai/" + cfg.ModelName
	}
}
