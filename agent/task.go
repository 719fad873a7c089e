package agent

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/webextract/tokens"
	"github.com/BaSui01/webextract/types"
)

// TaskSpec carries everything needed to build one site task.
type TaskSpec struct {
	WebsiteURL string
	TaskType   types.TaskType

	// Location narrows real-estate searches ("Austin, TX").
	Location string

	// AdditionalInstructions are appended verbatim to the prompt.
	AdditionalInstructions string
}

// promptTokenBudget is the point past which the builder warns that a
// task description has grown unusually large.
const promptTokenBudget = 2000

// TaskBuilder renders task descriptions for the browser agent and
// accounts their token cost.
type TaskBuilder struct {
	counter *tokens.Counter
	logger  *zap.Logger
}

// NewTaskBuilder creates a builder. counter may be nil to skip token
// accounting.
func NewTaskBuilder(counter *tokens.Counter, logger *zap.Logger) *TaskBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskBuilder{counter: counter, logger: logger.With(zap.String("component", "taskbuilder"))}
}

// Build renders the task description for spec. Unknown task types get a
// generic extraction instruction.
func (tb *TaskBuilder) Build(spec TaskSpec) string {
	var task string
	switch spec.TaskType {
	case types.TaskInterestRate:
		task = interestRateTask(spec)
	case types.TaskRealEstate:
		task = realEstateTask(spec)
	default:
		task = fmt.Sprintf("Go to the website %s and extract relevant information as a JSON array of objects.", spec.WebsiteURL)
	}

	if tb.counter != nil {
		estimated := tb.counter.Estimate(task)
		tb.counter.LogRequest(task, "", 0, 0, "task_creation_"+string(spec.TaskType))
		if estimated > promptTokenBudget {
			tb.logger.Warn("task description exceeds prompt budget",
				zap.Int("estimated_tokens", estimated),
				zap.String("website", spec.WebsiteURL))
		}
	}

	return task
}

func interestRateTask(spec TaskSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Go to the website %s and retrieve the current interest rates. ", spec.WebsiteURL)
	b.WriteString("Perform any necessary actions (e.g., clicking buttons or navigating to rate tables) to access the rates. ")
	b.WriteString("Extract all interest rate data as a flat JSON array of objects, each containing: ")
	b.WriteString("rate_type, rate, apr, term, minimum_balance, currency, institution, updated, source_url. ")
	b.WriteString("Use 'N/A' for unavailable data. ")
	b.WriteString("Do not nest the array inside other objects or include summary text outside the array.")
	appendExtras(&b, spec)
	return b.String()
}

func realEstateTask(spec TaskSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Go to the website %s and search for real estate listings for homes/apartments for sale/rent", spec.WebsiteURL)
	if spec.Location != "" {
		fmt.Fprintf(&b, " in %s", spec.Location)
	}
	b.WriteString(". After any redirection or search, scroll vertically downwards to the bottom of the page to ensure all listings are loaded. ")
	b.WriteString("Continue scrolling until no new listings appear. ")
	b.WriteString("Extract all listings with their key details (name, address, price, number of beds, size, amenities) in a structured JSON array of objects. ")
	b.WriteString("Include all listings without arbitrary filtering unless specified in additional instructions. ")
	b.WriteString("Ensure all fields are included, using 'N/A' for unavailable data (e.g., amenities). ")
	b.WriteString("Do not return summary messages; only provide the JSON array.")
	appendExtras(&b, spec)
	return b.String()
}

func appendExtras(b *strings.Builder, spec TaskSpec) {
	if spec.AdditionalInstructions != "" {
		fmt.Fprintf(b, " Additional instructions: %s", spec.AdditionalInstructions)
	}
}
