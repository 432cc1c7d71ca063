// Package toolbox converts typed Go functions into LLM tool definitions and
// dispatches the model's function-call payloads back onto those functions.
//
// # Overview
//
// An LLM selects a tool and proposes arguments as JSON. This package closes the
// loop: reflect a JSON Schema from the function's argument struct, export it as
// a tool definition, then on response unmarshal → validate (against the same
// schema the model saw) → invoke → wrap the output or error in a ToolResult.
//
// Pipeline: Go function + argument struct → NewTool (reflection + schema) →
// Registry → Execute / ProcessResponse → ToolResult → ToMessage.
//
// # Key concepts
//
//   - Single Source of Truth: one argument struct drives both the schema shown
//     to the model and the validation of incoming JSON.
//   - Self-Correction: ClientError carries human-readable messages back to the
//     LLM; SystemError hides internals.
//   - Argument Repair: common model mistakes (a trailing comma, a list written
//     as a comma-separated string) are fixed and recorded as soft errors
//     instead of failing the call.
//
// See Tool, ToolCall, ToolResult for the core types, and NewTool / NewRegistry
// / ProcessResponse for setup and dispatch.
//
// # Example
//
//	type Args struct {
//	    Name string `json:"name" jsonschema:"required"`
//	    Age  int    `json:"age" jsonschema:"required"`
//	}
//	tool, err := toolbox.NewTool("UserDetail", "Record a user", func(_ context.Context, a Args) (Args, error) {
//	    return a, nil
//	})
//	if err != nil { ... }
//	reg := toolbox.NewRegistry()
//	if err := reg.Register(tool); err != nil { ... }
//	results := toolbox.ProcessResponse(ctx, reg, resp)
package toolbox
