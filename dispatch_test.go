package toolbox

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkToolCall(name, args string) openai.ToolCall {
	return openai.ToolCall{
		ID:       "call_A",
		Type:     openai.ToolTypeFunction,
		Function: openai.FunctionCall{Name: name, Arguments: args},
	}
}

func mkResponse(calls ...openai.ToolCall) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{
				Index: 0,
				Message: openai.ChatCompletionMessage{
					Role:      openai.ChatMessageRoleAssistant,
					ToolCalls: calls,
				},
			},
		},
	}
}

func TestToolCallFromOpenAI(t *testing.T) {
	tc := mkToolCall("UserDetail", `{"name": "Jason", "age": 25}`)
	call := ToolCallFromOpenAI(tc)
	assert.Equal(t, "call_A", call.ID)
	assert.Equal(t, "UserDetail", call.ToolName)
	assert.JSONEq(t, `{"name": "Jason", "age": 25}`, string(call.Args))
}

func TestToolCallFromOpenAI_GeneratesMissingID(t *testing.T) {
	tc := openai.ToolCall{Function: openai.FunctionCall{Name: "x", Arguments: "{}"}}
	call := ToolCallFromOpenAI(tc)
	assert.NotEmpty(t, call.ID)
}

func TestProcessToolCall(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newUserDetailTool(t)))
	res := ProcessToolCall(context.Background(), reg, mkToolCall("UserDetail", `{"name": "Jason", "age": 25}`))
	require.NoError(t, res.Error)
	assert.Equal(t, "call_A", res.ToolCallID)
	assert.Equal(t, map[string]any{"name": "Jason", "age": float64(25)}, res.Args)
	assert.JSONEq(t, `{"name":"Jason","age":25}`, string(res.Output))
}

func TestProcessResponse(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newUserDetailTool(t)))
	results := ProcessResponse(context.Background(), reg, mkResponse(
		mkToolCall("UserDetail", `{"name": "Jason", "age": 25}`),
	))
	require.Len(t, results, 1)
	require.NoError(t, results[0].Error)
	assert.Equal(t, map[string]any{"name": "Jason", "age": float64(25)}, results[0].Args)
}

func TestProcessResponse_MissingRequiredField(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newUserDetailTool(t)))
	results := ProcessResponse(context.Background(), reg, mkResponse(
		mkToolCall("UserDetail", `{"name": "Jason"}`),
	))
	require.Len(t, results, 1)
	require.Error(t, results[0].Error)
	assert.ErrorIs(t, results[0].Error, ErrValidation)
}

func TestProcessResponse_UnknownTool(t *testing.T) {
	reg := NewRegistry()
	results := ProcessResponse(context.Background(), reg, mkResponse(
		mkToolCall("nope", `{}`),
	))
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, ErrToolNotFound)
}

func TestProcessResponse_NoChoicesOrBadIndex(t *testing.T) {
	reg := NewRegistry()
	assert.Nil(t, ProcessResponse(context.Background(), reg, openai.ChatCompletionResponse{}))
	resp := mkResponse(mkToolCall("x", "{}"))
	assert.Nil(t, ProcessResponse(context.Background(), reg, resp, WithChoice(3)))
	assert.Nil(t, ProcessResponse(context.Background(), reg, resp, WithChoice(-1)))
}

func TestProcessMessage_NoToolCalls(t *testing.T) {
	reg := NewRegistry()
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "plain text"}
	assert.Nil(t, ProcessMessage(context.Background(), reg, msg))
}

func TestProcessMessage_OrderAndPartialSuccess(t *testing.T) {
	type A struct {
		X int `json:"x"`
	}
	type R struct {
		Y int `json:"y"`
	}
	tool, err := NewTool("double", "Double", func(_ context.Context, a A) (R, error) {
		return R{Y: a.X * 2}, nil
	})
	require.NoError(t, err)
	reg := NewRegistry()
	require.NoError(t, reg.Register(tool))

	msg := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{
			{ID: "c1", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: "double", Arguments: `{"x": 1}`}},
			{ID: "c2", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: "missing", Arguments: `{}`}},
			{ID: "c3", Type: openai.ToolTypeFunction, Function: openai.FunctionCall{Name: "double", Arguments: `{"x": 3}`}},
		},
	}
	for _, parallel := range []bool{false, true} {
		var opts []ProcessOption
		if parallel {
			opts = append(opts, WithParallel())
		}
		results := ProcessMessage(context.Background(), reg, msg, opts...)
		require.Len(t, results, 3)
		assert.Equal(t, "c1", results[0].ToolCallID)
		assert.Equal(t, "c2", results[1].ToolCallID)
		assert.Equal(t, "c3", results[2].ToolCallID)
		assert.NoError(t, results[0].Error)
		assert.ErrorIs(t, results[1].Error, ErrToolNotFound)
		assert.JSONEq(t, `{"y":6}`, string(results[2].Output))
	}
}

func TestRegistry_OpenAITools(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newUserDetailTool(t)))
	tools := reg.OpenAITools()
	require.Len(t, tools, 1)
	assert.Equal(t, openai.ToolTypeFunction, tools[0].Type)
	require.NotNil(t, tools[0].Function)
	assert.Equal(t, "UserDetail", tools[0].Function.Name)
	assert.Equal(t, "Details about a user", tools[0].Function.Description)
	assert.NotNil(t, tools[0].Function.Parameters)
}

func TestToolResult_ToMessage(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newUserDetailTool(t)))

	ok := ProcessToolCall(context.Background(), reg, mkToolCall("UserDetail", `{"name": "Jason", "age": 25}`))
	msg := ok.ToMessage()
	assert.Equal(t, openai.ChatMessageRoleTool, msg.Role)
	assert.Equal(t, "call_A", msg.ToolCallID)
	assert.Equal(t, "UserDetail", msg.Name)
	assert.JSONEq(t, `{"name":"Jason","age":25}`, msg.Content)

	failed := ProcessToolCall(context.Background(), reg, mkToolCall("UserDetail", `{"name": "Jason"}`))
	failMsg := failed.ToMessage()
	assert.Equal(t, openai.ChatMessageRoleTool, failMsg.Role)
	assert.Contains(t, failMsg.Content, "invalid tool input")
}
