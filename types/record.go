package types

import "time"

// TaskType identifies the kind of extraction performed against a website.
type TaskType string

const (
	TaskInterestRate TaskType = "interest_rate"
	TaskRealEstate   TaskType = "real_estate"
)

// Valid reports whether the task type is one of the supported kinds.
func (t TaskType) Valid() bool {
	return t == TaskInterestRate || t == TaskRealEstate
}

// RequiredFields returns the identifying fields a result row must carry for
// this task type. A row missing any of them (or carrying only "N/A" values)
// does not count as schema-conforming; a result set with zero conforming rows
// is kept but flagged partial, never discarded.
func (t TaskType) RequiredFields() []string {
	switch t {
	case TaskInterestRate:
		return []string{"rate_type", "rate", "institution"}
	case TaskRealEstate:
		return []string{"name", "address", "price"}
	default:
		return nil
	}
}

// QueryRecord is one tracked invocation of the browser agent against one
// website for one query. A record is open from StartQuery until FinishQuery
// sets EndTime; once closed it is immutable.
type QueryRecord struct {
	ID             string    `json:"id"`
	Website        string    `json:"website"`
	TaskType       TaskType  `json:"task_type"`
	Query          string    `json:"query"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time,omitempty"`
	Success        bool      `json:"success"`
	ItemsExtracted int       `json:"items_extracted"`
	PartialSchema  bool      `json:"partial_schema,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Closed reports whether the record has been finished.
func (r *QueryRecord) Closed() bool {
	return !r.EndTime.IsZero()
}

// Duration returns end-start for closed records and 0 for open ones.
func (r *QueryRecord) Duration() time.Duration {
	if !r.Closed() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// RunSummary holds aggregate statistics derived from a set of closed
// QueryRecords. It is always recomputable purely from the record set;
// there are no hidden counters that can drift from the records.
//
// By convention SuccessRate is 0.0 (not NaN or an error) when TotalQueries
// is 0, and AverageResponseTime is 0 when no records are closed.
type RunSummary struct {
	TotalQueries         int           `json:"total_queries"`
	SuccessfulQueries    int           `json:"successful_queries"`
	SuccessRate          float64       `json:"success_rate"`
	AverageResponseTime  time.Duration `json:"average_response_time"`
	TotalItemsExtracted  int           `json:"total_items_extracted"`
	AverageItemsPerQuery float64       `json:"average_items_per_query"`
	ErrorCount           int           `json:"error_count"`
}

// SiteResultStatus is the per-website outcome marker of an orchestrated run.
type SiteResultStatus string

const (
	SiteStatusSuccess SiteResultStatus = "success"
	SiteStatusPartial SiteResultStatus = "partial_success"
	SiteStatusError   SiteResultStatus = "error"
)

// SiteResult is the outcome of an extraction against a single website:
// either a structured payload or a typed failure marker. One SiteResult is
// produced per requested website regardless of individual failures.
type SiteResult struct {
	Website  string            `json:"website"`
	URL      string            `json:"url"`
	TaskType TaskType          `json:"task_type"`
	Status   SiteResultStatus  `json:"status"`
	Items    []map[string]any  `json:"items,omitempty"`
	Partial  bool              `json:"partial,omitempty"`
	Error    string            `json:"error,omitempty"`
	RecordID string            `json:"record_id,omitempty"`
}

// Failed reports whether the site task ended with a typed failure marker.
func (r *SiteResult) Failed() bool {
	return r.Status == SiteStatusError
}
