package app

import (
	"context"
	"testing"

	"github.com/tripalhq/tripal/internal/config"
	"github.com/tripalhq/tripal/internal/log"
	"github.com/tripalhq/tripal/internal/tools"
)

func TestQualifiedModelName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider string
		model    string
		want     string
	}{
		{provider: config.ProviderOpenAI, model: "gpt-4o-mini", want: "openai/gpt-4o-mini"},
		{provider: config.ProviderGoogleAI, model: "gemini-2.5-flash", want: "googleai/gemini-2.5-flash"},
		{provider: config.ProviderOllama, model: "llama3", want: "ollama/llama3"},
		{provider: "", model: "gpt-4o-mini", want: "openai/gpt-4o-mini"},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.model, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Config{Provider: tt.provider, ModelName: tt.model}
			if got := qualifiedModelName(cfg); got != tt.want {
				t.Errorf("qualifiedModelName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppClose_PartiallyBuilt(t *testing.T) {
	t.Parallel()

	a := &App{Logger: log.NewNop()}
	a.Close() // must not panic with nil pool and nil otel shutdown
}

func TestProvideTools(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		TripAdvisorAPIKey: "ta-key",
		RakutenAppID:      "rk-app",
	}
	registry, err := provideTools(cfg, log.NewNop())
	if err != nil {
		t.Fatalf("provideTools: %v", err)
	}
	if registry.Count() != 2 {
		t.Fatalf("tool count = %d, want 2", registry.Count())
	}
	for _, name := range []string{tools.LocationToolName, tools.ReservationToolName} {
		if _, err := registry.Get(name); err != nil {
			t.Errorf("Get(%q): %v", name, err)
		}
	}
}

func TestProvideTools_MissingCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{name: "no tripadvisor key", cfg: &config.Config{RakutenAppID: "rk-app"}},
		{name: "no rakuten app id", cfg: &config.Config{TripAdvisorAPIKey: "ta-key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := provideTools(tt.cfg, log.NewNop()); err == nil {
				t.Error("provideTools() error = nil, want error")
			}
		})
	}
}

func TestProvideOtelShutdown_Disabled(t *testing.T) {
	t.Parallel()

	shutdown := provideOtelShutdown(context.Background(), &config.Config{}, log.NewNop())
	if shutdown == nil {
		t.Fatal("shutdown func is nil")
	}
	shutdown() // no-op when tracing is disabled
}
