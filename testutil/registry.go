package testutil

import (
	"time"

	"github.com/llmkit/toolbox"
)

// NewTestRegistry returns a Registry with long timeout and panic recovery
// enabled, suitable for tests. Panics on duplicate names.
func NewTestRegistry(tools ...toolbox.Tool) *toolbox.Registry {
	reg := toolbox.NewRegistry(
		toolbox.WithDefaultTimeout(30*time.Second),
		toolbox.WithRecoverPanics(true),
	)
	reg.MustRegister(tools...)
	return reg
}
