package toolbox

import (
	"context"
	"encoding/json"
	"time"
)

// Tool is the contract for an LLM-callable instrument.
// It is provider-agnostic; conversion to a concrete wire format lives at the
// dispatch boundary (see Registry.OpenAITools and ProcessResponse).
type Tool interface {
	Name() string
	Description() string
	// Parameters returns a valid JSON Schema as map (compatible with LLM tool definitions).
	Parameters() map[string]any
	// Execute parses and validates argsJSON, invokes the underlying function,
	// and returns its output marshaled to JSON.
	Execute(ctx context.Context, argsJSON []byte) (json.RawMessage, error)
}

// ToolMetadata is implemented by tools created with NewTool and provides optional per-tool
// settings. Registry uses Timeout() to override the default execution timeout when set.
// Tags and Version are for orchestration or discovery.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
	Version() string
}

// ToolCall is a single function-call request as produced by the LLM.
type ToolCall struct {
	ID       string
	ToolName string
	Args     json.RawMessage // raw JSON payload of arguments
}

// ToolResult is the outcome of dispatching one ToolCall. Exactly one of Output
// and Error is meaningful; Args holds the parsed argument payload when parsing
// succeeded. SoftErrors record argument repairs (see WithArgumentRepair) that
// did not fail the call.
type ToolResult struct {
	ToolCallID string
	ToolName   string
	RawArgs    json.RawMessage
	Args       map[string]any
	Output     json.RawMessage
	Error      error
	SoftErrors []error
}

// Content renders the result as text for the follow-up chat message: the error
// message on failure, the raw JSON output otherwise, empty when the tool
// produced no output.
func (r ToolResult) Content() string {
	if r.Error != nil {
		return r.Error.Error()
	}
	if len(r.Output) == 0 {
		return ""
	}
	return string(r.Output)
}
