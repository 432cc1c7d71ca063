// Package testutil provides test helpers for toolbox (e.g. MockTool).
package testutil

import (
	"context"
	"encoding/json"

	"github.com/llmkit/toolbox"
)

// MockTool is a configurable Tool implementation for tests.
type MockTool struct {
	NameVal   string
	DescVal   string
	ParamsVal map[string]any
	ExecuteFn func(ctx context.Context, args []byte) (json.RawMessage, error)
}

// Name returns the tool name.
func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

// Description returns the tool description.
func (m *MockTool) Description() string {
	return m.DescVal
}

// Parameters returns the parameters schema (or empty map).
func (m *MockTool) Parameters() map[string]any {
	if m.ParamsVal != nil {
		return m.ParamsVal
	}
	return map[string]any{}
}

// Execute runs ExecuteFn if set, otherwise returns nil output.
func (m *MockTool) Execute(ctx context.Context, args []byte) (json.RawMessage, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, args)
	}
	return nil, nil
}

// Ensure MockTool implements Tool.
var _ toolbox.Tool = (*MockTool)(nil)
