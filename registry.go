package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Registry holds tools keyed by public name and dispatches tool calls onto them.
// Registration order is preserved for Definitions. The table is expected to be
// populated once at startup; Register and Execute are nonetheless safe for
// concurrent use.
type Registry struct {
	mu          sync.Mutex
	order       []string        // registration order for Definitions
	tools       map[string]Tool // wrapped with middlewares, used by Execute
	rawTools    map[string]Tool // unwrapped, used by Use() to re-apply middlewares from scratch
	middlewares []Middleware
	opts        registryOptions
}

// NewRegistry creates a Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		timeout:         5 * time.Second,
		recoverPanics:   true,
		repairArguments: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		tools:    make(map[string]Tool),
		rawTools: make(map[string]Tool),
		opts:     o,
	}
}

// Register adds a tool under its public name. A name collision fails with
// ErrDuplicateTool; registered entries are never replaced. Stored middlewares
// (see Use) are applied to the tool before registration.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.rawTools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.rawTools[name] = t
	r.order = append(r.order, name)
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		t = r.middlewares[i](t)
	}
	r.tools[name] = t
	return nil
}

// MustRegister is Register that panics on error. For startup wiring where a
// duplicate name is a programming mistake.
func (r *Registry) MustRegister(tools ...Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic("toolbox: " + err.Error())
		}
	}
}

// Definitions returns the schema projections of all registered tools, in
// registration order. This is the payload for the LLM request's tool list.
func (r *Registry) Definitions() []Definition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		t := r.rawTools[name]
		out = append(out, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return out
}

// Tools returns all registered tools (after middlewares are applied), in
// registration order.
func (r *Registry) Tools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Get returns the tool with the given name (after middlewares are applied),
// or (nil, false) if not found. With WithCaseInsensitive, a case-folded match
// is used when no exact name exists.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(name)
}

func (r *Registry) lookupLocked(name string) (Tool, bool) {
	if t, ok := r.tools[name]; ok {
		return t, true
	}
	if !r.opts.caseInsensitive {
		return nil, false
	}
	for _, candidate := range r.order {
		if strings.EqualFold(candidate, name) {
			return r.tools[candidate], true
		}
	}
	return nil, false
}

// Execute dispatches one tool call: look up the tool, repair and parse the
// argument payload, run the tool, and wrap the outcome in a ToolResult.
// Validation failures and callable errors are captured in ToolResult.Error,
// never returned by panicking; with WithRecoverPanics (default) a panicking
// callable yields a SystemError.
func (r *Registry) Execute(ctx context.Context, call ToolCall) (res ToolResult) {
	res = ToolResult{ToolCallID: call.ID, ToolName: call.ToolName, RawArgs: call.Args}

	r.mu.Lock()
	t, ok := r.lookupLocked(call.ToolName)
	r.mu.Unlock()
	if !ok {
		res.Error = fmt.Errorf("%w: %s", ErrToolNotFound, call.ToolName)
		return res
	}

	timeout := r.opts.timeout
	if tm, ok := t.(ToolMetadata); ok && tm.Timeout() > 0 {
		timeout = tm.Timeout()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}
	start := time.Now()
	// After-execution hook always sees the final result, including a recovered panic.
	defer func() {
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, res, time.Since(start))
		}
	}()
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				res.Output = nil
				res.Error = &SystemError{Err: &panicError{p: p}}
			}
		}()
	}

	raw := call.Args
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if r.opts.repairArguments {
		fixed, soft, err := repairJSON(raw)
		if err != nil {
			res.Error = err
			return res
		}
		raw = fixed
		res.SoftErrors = append(res.SoftErrors, soft...)
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed != nil {
		res.Args = parsed
		if r.opts.repairArguments {
			if soft := coerceListArguments(parsed, t.Parameters()); len(soft) > 0 {
				res.SoftErrors = append(res.SoftErrors, soft...)
				remarshaled, err := json.Marshal(parsed)
				if err != nil {
					res.Error = &SystemError{Err: err}
					return res
				}
				raw = remarshaled
			}
		}
	}

	output, err := t.Execute(ctx, raw)
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %s", ErrTimeout, call.ToolName)
	}
	res.Output = output
	res.Error = err
	return res
}

// ExecuteBatch dispatches all calls sequentially and collects every result.
// Partial success: one failing call does not affect the others.
func (r *Registry) ExecuteBatch(ctx context.Context, calls []ToolCall) []ToolResult {
	out := make([]ToolResult, len(calls))
	for i, call := range calls {
		out[i] = r.Execute(ctx, call)
	}
	return out
}

// ExecuteBatchParallel runs the calls concurrently. Results keep the input
// order, partial success as in ExecuteBatch.
func (r *Registry) ExecuteBatchParallel(ctx context.Context, calls []ToolCall) []ToolResult {
	out := make([]ToolResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Go(func() {
			out[i] = r.Execute(ctx, call)
		})
	}
	wg.Wait()
	return out
}
