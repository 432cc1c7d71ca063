package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// tool is the internal implementation of Tool built by NewTool or NewDynamicTool.
type tool struct {
	name        string
	description string
	schema      map[string]any
	execute     func(context.Context, []byte) (json.RawMessage, error)
	opts        toolOptions
}

// NewTool builds a Tool from a typed function. Schema and validation are
// delegated to Extractor[T]. Execute runs ParseAndValidate, fn, and marshals
// the result to JSON. Returns an error if schema generation fails (e.g.
// unsupported type).
func NewTool[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) (Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	ext, err := NewExtractor[T](o.strict)
	if err != nil {
		return nil, err
	}
	execute := func(ctx context.Context, argsJSON []byte) (json.RawMessage, error) {
		args, err := ext.ParseAndValidate(argsJSON)
		if err != nil {
			return nil, err
		}
		res, err := fn(ctx, args)
		if err != nil {
			return nil, wrapCallableError(err)
		}
		b, err := json.Marshal(res)
		if err != nil {
			return nil, &SystemError{Err: err}
		}
		return b, nil
	}
	return &tool{
		name:        name,
		description: description,
		schema:      ext.Schema(),
		execute:     execute,
		opts:        o,
	}, nil
}

// NewModelTool builds a Tool whose invocation simply echoes the validated
// argument struct: register a data model under a public name and dispatching
// it returns the populated instance. Useful for extraction workflows where the
// model is the payload.
func NewModelTool[T any](name, description string, opts ...ToolOption) (Tool, error) {
	return NewTool(name, description, func(_ context.Context, args T) (T, error) {
		return args, nil
	}, opts...)
}

// NewDynamicTool creates a Tool from a raw JSON Schema map and a function that
// receives validated raw JSON. Useful for runtime integration (e.g. schemas
// loaded from an OpenAPI document). Layer 1 (schema) validation only.
// schemaMap and fn must be non-nil. The provided schemaMap is not mutated; a
// defensive copy is made before any modifications (e.g. WithStrict).
func NewDynamicTool(
	name, description string,
	schemaMap map[string]any,
	fn func(ctx context.Context, argsJSON []byte) (json.RawMessage, error),
	opts ...ToolOption,
) (Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	if schemaMap == nil {
		return nil, fmt.Errorf("dynamic schema map must not be nil")
	}
	if fn == nil {
		return nil, fmt.Errorf("dynamic tool handler must not be nil")
	}
	schemaCopy, err := deepCopySchema(schemaMap)
	if err != nil {
		return nil, err
	}
	if o.strict {
		applyStrictMode(schemaCopy)
	}
	cleanSchema(schemaCopy)
	compiled, err := compileSchema(schemaCopy)
	if err != nil {
		return nil, fmt.Errorf("failed to compile dynamic schema: %w", err)
	}
	execute := func(ctx context.Context, argsJSON []byte) (json.RawMessage, error) {
		var v any
		if err := json.Unmarshal(argsJSON, &v); err != nil {
			return nil, wrapJSONParseError(err)
		}
		if err := compiled.Validate(v); err != nil {
			return nil, &ClientError{Reason: err.Error(), Err: ErrValidation}
		}
		out, err := fn(ctx, argsJSON)
		if err != nil {
			return nil, wrapCallableError(err)
		}
		return out, nil
	}
	return &tool{
		name:        name,
		description: description,
		schema:      schemaCopy,
		execute:     execute,
		opts:        o,
	}, nil
}

// deepCopySchema copies a schema map through JSON so the caller's map is never mutated.
func deepCopySchema(schemaMap map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("failed to deep copy schema map: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to deep copy schema map: %w", err)
	}
	return out, nil
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }

// Parameters returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps (e.g. under "properties") are shared; callers must not mutate them.
func (t *tool) Parameters() map[string]any { return maps.Clone(t.schema) }

func (t *tool) Execute(ctx context.Context, argsJSON []byte) (json.RawMessage, error) {
	return t.execute(ctx, argsJSON)
}

func (t *tool) Timeout() time.Duration { return t.opts.timeout }
func (t *tool) Tags() []string         { return append([]string(nil), t.opts.tags...) }
func (t *tool) Version() string        { return t.opts.version }

var (
	_ Tool         = (*tool)(nil)
	_ ToolMetadata = (*tool)(nil)
)
