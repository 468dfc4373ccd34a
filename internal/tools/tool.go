package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/jsonschema-go/jsonschema"
)

// Spec is a complete tool declaration: metadata, input schema, and a
// type-erased invoke function. Specs are immutable after construction and
// safe for concurrent use.
type Spec struct {
	name        string
	description string
	schema      *jsonschema.Schema
	resolved    *jsonschema.Resolved

	// invoke is the type-erased execution function. It accepts the raw
	// argument value from a model tool request (typically
	// map[string]any) and returns the tool output as text for the model.
	invoke func(context.Context, any) (string, error)

	// define registers the declaration with Genkit using the concrete
	// input type captured by NewSpec.
	define func(*genkit.Genkit) ai.ToolRef
}

// NewSpec creates a tool spec with type-safe input handling.
//
// The input schema is derived from In's struct tags and resolved once at
// construction; Invoke validates arguments against it before the handler
// runs. Type erasure allows heterogeneous storage in the Registry while the
// handler keeps its concrete signature.
func NewSpec[In any](name, description string, handler func(context.Context, In) (string, error)) (*Spec, error) {
	if name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("tool %s: handler is required", name)
	}

	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return nil, fmt.Errorf("tool %s: derive input schema: %w", name, err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("tool %s: resolve input schema: %w", name, err)
	}

	var zeroIn In
	invoke := func(ctx context.Context, args any) (string, error) {
		// Genkit hands tool-request inputs over as map[string]any;
		// a direct assertion covers callers that already hold the
		// concrete type.
		if typed, ok := args.(In); ok {
			return handler(ctx, typed)
		}

		jsonBytes, err := json.Marshal(args)
		if err != nil {
			return "", &ToolError{
				ErrorType: ErrTypeInvalidArguments,
				Message:   fmt.Sprintf("marshal arguments: %v", err),
			}
		}
		var typed In
		if err := json.Unmarshal(jsonBytes, &typed); err != nil {
			return "", &ToolError{
				ErrorType: ErrTypeInvalidArguments,
				Message:   fmt.Sprintf("expected %T, got %T: %v", zeroIn, args, err),
			}
		}
		return handler(ctx, typed)
	}

	define := func(g *genkit.Genkit) ai.ToolRef {
		return genkit.DefineTool(g, name, description,
			func(tc *ai.ToolContext, in In) (string, error) {
				return handler(tc, in)
			})
	}

	return &Spec{
		name:        name,
		description: description,
		schema:      schema,
		resolved:    resolved,
		invoke:      invoke,
		define:      define,
	}, nil
}

// Name returns the tool's unique identifier.
func (s *Spec) Name() string {
	return s.name
}

// Description returns the tool's functionality description. The model uses
// it to decide when to call the tool.
func (s *Spec) Description() string {
	return s.description
}

// InputSchema returns the JSON schema derived from the tool's input type.
func (s *Spec) InputSchema() *jsonschema.Schema {
	return s.schema
}

// Invoke validates args against the input schema and runs the tool.
// Validation and handler failures are reported as *ToolError so the caller
// can relay them to the model instead of failing the turn.
func (s *Spec) Invoke(ctx context.Context, args any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	if err := s.resolved.Validate(args); err != nil {
		return "", &ToolError{
			ErrorType: ErrTypeInvalidArguments,
			Message:   fmt.Sprintf("arguments do not match schema: %v", err),
		}
	}
	return s.invoke(ctx, args)
}
