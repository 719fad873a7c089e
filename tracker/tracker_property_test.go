package tracker

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/BaSui01/webextract/types"
)

// For any interleaving of StartQuery/FinishQuery calls, the summary must be
// recomputable purely from the record set: TotalQueries equals the number of
// closed records, SuccessfulQueries the count of successful closes, and
// TotalItemsExtracted the sum over successful closes.
func TestTracker_SummaryMatchesRecords(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := New(zap.NewNop())

		n := rapid.IntRange(0, 40).Draw(rt, "queries")
		type planned struct {
			id      string
			close   bool
			success bool
			items   int
		}

		plans := make([]planned, 0, n)
		for i := 0; i < n; i++ {
			rec := tr.StartQuery(
				rapid.SampledFrom([]string{"zillow", "bankrate", "redfin"}).Draw(rt, "website"),
				rapid.SampledFrom([]types.TaskType{types.TaskInterestRate, types.TaskRealEstate}).Draw(rt, "task_type"),
				"query",
			)
			plans = append(plans, planned{
				id:      rec.ID,
				close:   rapid.Bool().Draw(rt, "close"),
				success: rapid.Bool().Draw(rt, "success"),
				items:   rapid.IntRange(0, 50).Draw(rt, "items"),
			})
		}

		wantClosed, wantSuccessful, wantItems := 0, 0, 0
		for _, p := range plans {
			if !p.close {
				continue
			}
			var taskErr error
			if !p.success {
				taskErr = errors.New("failed")
			}
			if err := tr.FinishQuery(p.id, p.success, p.items, taskErr); err != nil {
				rt.Fatalf("finish failed: %v", err)
			}
			wantClosed++
			if p.success {
				wantSuccessful++
				wantItems += p.items
			}
		}

		s := tr.Summary()
		if s.TotalQueries != wantClosed {
			rt.Fatalf("TotalQueries = %d, want %d", s.TotalQueries, wantClosed)
		}
		if s.SuccessfulQueries != wantSuccessful {
			rt.Fatalf("SuccessfulQueries = %d, want %d", s.SuccessfulQueries, wantSuccessful)
		}
		if s.TotalItemsExtracted != wantItems {
			rt.Fatalf("TotalItemsExtracted = %d, want %d", s.TotalItemsExtracted, wantItems)
		}

		// The summary must equal a recomputation from the exported records.
		recomputed := 0
		for _, rec := range tr.Records() {
			if rec.Closed() {
				recomputed++
			}
		}
		if recomputed != s.TotalQueries {
			rt.Fatalf("records disagree with summary: %d closed vs %d", recomputed, s.TotalQueries)
		}
	})
}
