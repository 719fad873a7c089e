package types

import (
	"testing"
	"time"
)

func TestTaskType_Valid(t *testing.T) {
	t.Parallel()

	if !TaskInterestRate.Valid() || !TaskRealEstate.Valid() {
		t.Fatal("known task types must be valid")
	}
	if TaskType("e_commerce").Valid() {
		t.Fatal("unknown task type must be invalid")
	}
}

func TestTaskType_RequiredFields(t *testing.T) {
	t.Parallel()

	if fields := TaskInterestRate.RequiredFields(); len(fields) == 0 {
		t.Fatal("interest_rate must declare required fields")
	}
	if fields := TaskRealEstate.RequiredFields(); len(fields) == 0 {
		t.Fatal("real_estate must declare required fields")
	}
	if fields := TaskType("bogus").RequiredFields(); fields != nil {
		t.Fatalf("unknown task type should have no required fields, got %v", fields)
	}
}

func TestQueryRecord_ClosedAndDuration(t *testing.T) {
	t.Parallel()

	r := QueryRecord{ID: "q1", Website: "siteA", StartTime: time.Now()}
	if r.Closed() {
		t.Fatal("fresh record must be open")
	}
	if r.Duration() != 0 {
		t.Fatal("open record duration must be 0")
	}

	r.EndTime = r.StartTime.Add(1500 * time.Millisecond)
	if !r.Closed() {
		t.Fatal("record with end time must be closed")
	}
	if r.Duration() != 1500*time.Millisecond {
		t.Fatalf("unexpected duration: %v", r.Duration())
	}
}
