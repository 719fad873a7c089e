package tokens

// Pricing holds the published USD rates per million tokens for a model.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// geminiPricing lists per-million-token USD rates for the Gemini models
// the extraction agent runs on.
var geminiPricing = map[string]Pricing{
	"gemini-2.0-flash-exp": {InputPerMillion: 0.075, OutputPerMillion: 0.30},
	"gemini-1.5-pro":       {InputPerMillion: 3.50, OutputPerMillion: 10.50},
	"gemini-1.5-flash":     {InputPerMillion: 0.075, OutputPerMillion: 0.30},
}

// DefaultPricingModel is used when a model has no pricing entry.
const DefaultPricingModel = "gemini-2.0-flash-exp"

// PricingFor returns the pricing for model, falling back to the default
// flash pricing for unknown models.
func PricingFor(model string) Pricing {
	if p, ok := geminiPricing[model]; ok {
		return p
	}
	return geminiPricing[DefaultPricingModel]
}

// Cost computes the USD cost of a request with the given token counts.
func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	in := float64(inputTokens) / 1_000_000 * p.InputPerMillion
	out := float64(outputTokens) / 1_000_000 * p.OutputPerMillion
	return in + out
}
