package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BaSui01/webextract/internal/pool"
	"github.com/BaSui01/webextract/types"
)

// Report is the exportable performance document: the raw records, their
// aggregate summary, the economic context the run executed under, and
// the reproducibility parameters that pinned it.
type Report struct {
	GeneratedAt     time.Time                    `json:"generated_at"`
	Summary         types.RunSummary             `json:"summary"`
	Records         []types.QueryRecord          `json:"records"`
	EconomicContext types.EconomicSnapshot       `json:"economic_context"`
	Control         *types.ReproducibilityConfig `json:"control,omitempty"`
}

// Document assembles a report from copies of the inputs. The record
// slice is copied so later tracker activity cannot alter an exported
// document.
func Document(records []types.QueryRecord, summary types.RunSummary, snapshot types.EconomicSnapshot, control *types.ReproducibilityConfig) Report {
	copied := make([]types.QueryRecord, len(records))
	copy(copied, records)

	var ctrl *types.ReproducibilityConfig
	if control != nil {
		c := *control
		ctrl = &c
	}

	return Report{
		GeneratedAt:     time.Now(),
		Summary:         summary,
		Records:         copied,
		EconomicContext: snapshot,
		Control:         ctrl,
	}
}

// SummaryText renders the run summary as a fixed-width report block.
// The dashboard polls this, so the scratch buffer is pooled.
func SummaryText(s types.RunSummary) string {
	b := pool.ByteBufferPool.Get()
	defer pool.ByteBufferPool.Put(b)

	line := strings.Repeat("=", 60)

	b.WriteString(line + "\n")
	b.WriteString("WEB AGENT PERFORMANCE SUMMARY\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(b, "Total Queries:         %d\n", s.TotalQueries)
	fmt.Fprintf(b, "Successful Queries:    %d\n", s.SuccessfulQueries)
	fmt.Fprintf(b, "Success Rate:          %.2f%%\n", s.SuccessRate*100)
	fmt.Fprintf(b, "Total Items Extracted: %d\n", s.TotalItemsExtracted)
	fmt.Fprintf(b, "Avg Items/Query:       %.2f\n", s.AverageItemsPerQuery)
	fmt.Fprintf(b, "Avg Response Time:     %.3fs\n", s.AverageResponseTime.Seconds())
	fmt.Fprintf(b, "Errors:                %d\n", s.ErrorCount)
	b.WriteString(line + "\n")
	return b.String()
}

// ControlText renders the reproducibility parameters of a controlled
// run, or a disabled marker when control is nil.
func ControlText(control *types.ReproducibilityConfig) string {
	if control == nil {
		return "Controlled Run: DISABLED\n"
	}
	var b strings.Builder
	b.WriteString("Controlled Run: ENABLED\n")
	fmt.Fprintf(&b, "Random Seed:       %d\n", control.Seed)
	fmt.Fprintf(&b, "Model Temperature: %g\n", control.Temperature)
	fmt.Fprintf(&b, "Viewport:          %dx%d\n", control.ViewportWidth, control.ViewportHeight)
	return b.String()
}

// JSON marshals the report with indentation.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteFile exports the report as JSON to path.
func (r Report) WriteFile(path string) error {
	data, err := r.JSON()
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
