package toolbox

import (
	"context"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// processOptions hold dispatch settings for ProcessResponse and ProcessMessage.
type processOptions struct {
	choice   int
	parallel bool
}

// ProcessOption configures response processing (e.g. WithChoice, WithParallel).
type ProcessOption func(*processOptions)

// WithChoice selects which completion choice to process. Default 0.
func WithChoice(n int) ProcessOption {
	return func(o *processOptions) {
		o.choice = n
	}
}

// WithParallel dispatches the tool calls of one message concurrently instead of
// in order. Results keep the message's tool-call order either way.
func WithParallel() ProcessOption {
	return func(o *processOptions) {
		o.parallel = true
	}
}

// ToolCallFromOpenAI converts a provider tool call into a ToolCall. A missing
// call ID is replaced with a generated one so ToMessage always carries a usable
// tool_call_id.
func ToolCallFromOpenAI(tc openai.ToolCall) ToolCall {
	id := tc.ID
	if id == "" {
		id = uuid.NewString()
	}
	return ToolCall{ID: id, ToolName: tc.Function.Name, Args: []byte(tc.Function.Arguments)}
}

// ProcessToolCall dispatches a single provider tool call against the registry.
func ProcessToolCall(ctx context.Context, reg *Registry, tc openai.ToolCall) ToolResult {
	return reg.Execute(ctx, ToolCallFromOpenAI(tc))
}

// ProcessMessage dispatches every tool call in an assistant message and returns
// one ToolResult per call, in the message's order. Partial success: a failing
// call is reported in its result and does not affect the others.
func ProcessMessage(ctx context.Context, reg *Registry, msg openai.ChatCompletionMessage, opts ...ProcessOption) []ToolResult {
	var o processOptions
	for _, opt := range opts {
		opt(&o)
	}
	if len(msg.ToolCalls) == 0 {
		return nil
	}
	calls := make([]ToolCall, len(msg.ToolCalls))
	for i, tc := range msg.ToolCalls {
		calls[i] = ToolCallFromOpenAI(tc)
	}
	if o.parallel {
		return reg.ExecuteBatchParallel(ctx, calls)
	}
	return reg.ExecuteBatch(ctx, calls)
}

// ProcessResponse dispatches the tool calls of a chat completion response.
// Returns nil when the selected choice does not exist or carries no tool calls.
func ProcessResponse(ctx context.Context, reg *Registry, resp openai.ChatCompletionResponse, opts ...ProcessOption) []ToolResult {
	var o processOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.choice < 0 || o.choice >= len(resp.Choices) {
		return nil
	}
	return ProcessMessage(ctx, reg, resp.Choices[o.choice].Message, opts...)
}

// OpenAI renders the definition in the provider's tool wire format.
func (d Definition) OpenAI() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		},
	}
}

// OpenAITools exports all registered tools in the provider's wire format, in
// registration order. Attach the result to the chat completion request.
func (r *Registry) OpenAITools() []openai.Tool {
	defs := r.Definitions()
	out := make([]openai.Tool, len(defs))
	for i, d := range defs {
		out[i] = d.OpenAI()
	}
	return out
}

// ToMessage renders the result as the role:"tool" message for the follow-up
// request: the error text on failure, the JSON output otherwise.
func (r ToolResult) ToMessage() openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    r.Content(),
		Name:       r.ToolName,
		ToolCallID: r.ToolCallID,
	}
}
