package types

import "time"

// EconomicSnapshot is a point-in-time set of macroeconomic indicator values
// attached to extraction results for contextual annotation only. It is an
// immutable value: extraction logic never mutates it and is never blocked by
// its unavailability.
type EconomicSnapshot struct {
	UnemploymentRate  float64   `json:"unemployment_rate"`
	PriceIndex        float64   `json:"price_index"`
	PolicyRate        float64   `json:"policy_rate"`
	ConsumerSentiment float64   `json:"consumer_sentiment"`
	Timestamp         time.Time `json:"timestamp"`
	Source            string    `json:"source"`

	// Stale marks a snapshot served from cache or hard defaults after a
	// failed refresh. Non-critical path: a stale snapshot is never an error.
	Stale bool `json:"stale"`
}

// DefaultEconomicSnapshot returns the hard-coded fallback indicator values
// used when no fetch has ever succeeded.
func DefaultEconomicSnapshot() *EconomicSnapshot {
	return &EconomicSnapshot{
		UnemploymentRate:  3.7,
		PriceIndex:        307.5,
		PolicyRate:        5.25,
		ConsumerSentiment: 69.1,
		Source:            "fallback_defaults",
		Stale:             true,
	}
}
