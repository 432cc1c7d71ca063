package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Middleware wraps a Tool with cross-cutting behavior (logging, recovery, timeout).
type Middleware func(Tool) Tool

// WithLogging returns a middleware that logs each execution with its duration
// and the size of the argument payload. The tool name is bound to the logger
// once at wrap time.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Tool) Tool {
		return &loggingTool{
			toolBase: toolBase{next: next},
			logger:   logger.With(slog.String("tool", next.Name())),
		}
	}
}

// WithRecovery returns a middleware that recovers panics and returns SystemError.
// Registry already recovers by default (WithRecoverPanics); use this when
// executing tools outside a Registry.
func WithRecovery() Middleware {
	return func(next Tool) Tool {
		return &recoveryTool{toolBase{next: next}}
	}
}

// WithTimeoutMiddleware returns a middleware that enforces a per-tool timeout.
// Named with "Middleware" suffix to avoid collision with ToolOption WithTimeout.
// When both the registry default timeout and this middleware apply, the
// effective timeout is the minimum of the two (inner context cancels first).
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next Tool) Tool {
		return &timeoutTool{toolBase: toolBase{next: next}, timeout: d}
	}
}

// WithArgumentLimit returns a middleware that rejects argument payloads larger
// than maxBytes with a ClientError, before any parsing happens. Models
// occasionally emit runaway argument strings; this caps them close to the wire.
func WithArgumentLimit(maxBytes int) Middleware {
	return func(next Tool) Tool {
		return &argLimitTool{toolBase: toolBase{next: next}, max: maxBytes}
	}
}

// toolBase delegates Tool and ToolMetadata to the wrapped Tool; used by middleware wrappers.
type toolBase struct{ next Tool }

func (b *toolBase) Name() string               { return b.next.Name() }
func (b *toolBase) Description() string        { return b.next.Description() }
func (b *toolBase) Parameters() map[string]any { return b.next.Parameters() }

func (b *toolBase) Timeout() time.Duration {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.Timeout()
	}
	return 0
}
func (b *toolBase) Tags() []string {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.Tags()
	}
	return nil
}
func (b *toolBase) Version() string {
	if tm, ok := b.next.(ToolMetadata); ok {
		return tm.Version()
	}
	return ""
}

type loggingTool struct {
	toolBase
	logger *slog.Logger
}

func (m *loggingTool) Execute(ctx context.Context, args []byte) (json.RawMessage, error) {
	m.logger.DebugContext(ctx, "executing tool", slog.Int("args_bytes", len(args)))
	start := time.Now()
	res, err := m.next.Execute(ctx, args)
	if err != nil {
		m.logger.ErrorContext(ctx, "tool failed",
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return nil, err
	}
	m.logger.InfoContext(ctx, "tool completed", slog.Duration("duration", time.Since(start)))
	return res, nil
}

type recoveryTool struct{ toolBase }

func (r *recoveryTool) Execute(ctx context.Context, args []byte) (res json.RawMessage, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = &SystemError{Err: &panicError{p: p}}
		}
	}()
	return r.next.Execute(ctx, args)
}

type timeoutTool struct {
	toolBase
	timeout time.Duration
}

func (t *timeoutTool) Timeout() time.Duration {
	if t.timeout > 0 {
		return t.timeout
	}
	return t.toolBase.Timeout()
}

func (t *timeoutTool) Execute(ctx context.Context, args []byte) (json.RawMessage, error) {
	if t.timeout <= 0 {
		return t.next.Execute(ctx, args)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Execute(ctx, args)
}

type argLimitTool struct {
	toolBase
	max int
}

func (a *argLimitTool) Execute(ctx context.Context, args []byte) (json.RawMessage, error) {
	if a.max > 0 && len(args) > a.max {
		return nil, &ClientError{
			Reason: fmt.Sprintf("arguments exceed %d bytes (got %d)", a.max, len(args)),
			Err:    ErrValidation,
		}
	}
	return a.next.Execute(ctx, args)
}

// Use stores the given middlewares and reapplies them from scratch to all registered tools
// (onion order: first middleware is outermost). Tools registered after Use will also get
// these middlewares. Calling Use multiple times replaces the chain and rewraps from raw
// tools, avoiding double-wrapping.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
	for name, raw := range r.rawTools {
		t := raw
		for i := len(middlewares) - 1; i >= 0; i-- {
			t = middlewares[i](t)
		}
		r.tools[name] = t
	}
}
