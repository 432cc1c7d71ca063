package toolbox

import (
	"context"
	"time"
)

// toolOptions hold optional tool settings (timeout, strict, tags, etc.).
type toolOptions struct {
	strict  bool
	timeout time.Duration
	tags    []string
	version string
}

// ToolOption configures a tool (e.g. WithStrict, WithTimeout).
type ToolOption func(*toolOptions)

// WithStrict sets strict mode for schema: additionalProperties: false for all objects,
// and all properties become required. Use for OpenAI Structured Outputs compatibility.
func WithStrict() ToolOption {
	return func(o *toolOptions) {
		o.strict = true
	}
}

// WithTimeout sets a per-tool timeout, overriding the registry default.
func WithTimeout(d time.Duration) ToolOption {
	return func(o *toolOptions) {
		o.timeout = d
	}
}

// WithTags sets tool tags (metadata for discovery/orchestration).
func WithTags(tags ...string) ToolOption {
	return func(o *toolOptions) {
		o.tags = tags
	}
}

// WithVersion sets the tool version.
func WithVersion(version string) ToolOption {
	return func(o *toolOptions) {
		o.version = version
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	timeout         time.Duration
	recoverPanics   bool
	caseInsensitive bool
	repairArguments bool
	onBefore        func(context.Context, ToolCall)
	onAfter         func(context.Context, ToolResult, time.Duration)
}

// WithDefaultTimeout sets the default execution timeout for tools.
// Pass 0 to disable the timeout.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timeout = d
	}
}

// WithRecoverPanics enables panic recovery in Execute (returns SystemError).
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.recoverPanics = enable
	}
}

// WithCaseInsensitive makes tool-name lookup case-insensitive. Exact matches
// still win; a case-folded match is used only when no exact name exists.
func WithCaseInsensitive() RegistryOption {
	return func(o *registryOptions) {
		o.caseInsensitive = true
	}
}

// WithArgumentRepair controls the repair of common model mistakes in argument
// payloads (trailing commas, a list sent as a comma-separated string).
// Enabled by default; repairs are recorded in ToolResult.SoftErrors.
func WithArgumentRepair(enable bool) RegistryOption {
	return func(o *registryOptions) {
		o.repairArguments = enable
	}
}

// WithOnBeforeExecute sets a hook called before each tool execution.
func WithOnBeforeExecute(fn func(context.Context, ToolCall)) RegistryOption {
	return func(o *registryOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterExecute sets a hook called after each tool execution with the
// final ToolResult and the execution duration.
func WithOnAfterExecute(fn func(context.Context, ToolResult, time.Duration)) RegistryOption {
	return func(o *registryOptions) {
		o.onAfter = fn
	}
}
