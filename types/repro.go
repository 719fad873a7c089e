package types

import "time"

// ReproducibilityConfig fixes random seeds and model-sampling parameters so
// repeated runs are comparable. It is resolved once at session start and is
// read-only for the session's lifetime; callers thread the value through
// every call that needs randomness instead of mutating hidden global state,
// which keeps concurrent runs with different seeds safe.
type ReproducibilityConfig struct {
	Seed           int64         `json:"seed" yaml:"seed"`
	Temperature    float64       `json:"temperature" yaml:"temperature"`
	ViewportWidth  int           `json:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int           `json:"viewport_height" yaml:"viewport_height"`
	MaxRetries     int           `json:"max_retries" yaml:"max_retries"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
	UserAgent      string        `json:"user_agent,omitempty" yaml:"user_agent"`
	Headless       bool          `json:"headless" yaml:"headless"`
}

// Validate checks the sampling and viewport parameters.
func (c *ReproducibilityConfig) Validate() error {
	if c.Temperature < 0 || c.Temperature > 1 {
		return NewError(ErrInvalidRequest, "temperature must be between 0.0 and 1.0")
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return NewError(ErrInvalidRequest, "viewport dimensions must be positive")
	}
	if c.MaxRetries < 0 {
		return NewError(ErrInvalidRequest, "max_retries must not be negative")
	}
	return nil
}
