package agent

import (
	"context"

	"github.com/BaSui01/webextract/types"
)

// RunResult is what a browser agent session produced.
type RunResult struct {
	// Output is the raw text the agent emitted, expected to contain a
	// JSON payload somewhere inside it.
	Output string

	// Steps the agent actually took.
	Steps int

	// Token counts reported by the automation service, zero when the
	// service does not report them.
	InputTokens  int
	OutputTokens int
}

// BrowserAgent runs a natural-language browsing task in a fresh browser
// session and returns whatever the agent extracted.
type BrowserAgent interface {
	// Run executes the task. cfg pins the session's reproducibility
	// parameters (seed, temperature, viewport). Implementations must
	// honor ctx cancellation.
	Run(ctx context.Context, task string, cfg *types.ReproducibilityConfig, maxSteps int) (*RunResult, error)

	// Name identifies the agent backend in logs and metrics.
	Name() string
}
