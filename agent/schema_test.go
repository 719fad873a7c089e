package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/webextract/types"
)

func TestRowConforms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		row      map[string]any
		taskType types.TaskType
		want     bool
	}{
		{
			name: "complete interest rate row",
			row: map[string]any{
				"rate_type": "30-year fixed", "rate": "6.5%", "institution": "Acme Bank",
			},
			taskType: types.TaskInterestRate,
			want:     true,
		},
		{
			name: "missing institution",
			row: map[string]any{
				"rate_type": "30-year fixed", "rate": "6.5%",
			},
			taskType: types.TaskInterestRate,
			want:     false,
		},
		{
			name: "N/A placeholder does not count",
			row: map[string]any{
				"rate_type": "30-year fixed", "rate": "N/A", "institution": "Acme Bank",
			},
			taskType: types.TaskInterestRate,
			want:     false,
		},
		{
			name: "lowercase n/a does not count",
			row: map[string]any{
				"rate_type": "n/a", "rate": "6.5%", "institution": "Acme Bank",
			},
			taskType: types.TaskInterestRate,
			want:     false,
		},
		{
			name: "non-string values accepted",
			row: map[string]any{
				"name": "House", "address": "Brooklyn", "price": 500000.0,
			},
			taskType: types.TaskRealEstate,
			want:     true,
		},
		{
			name:     "blank string rejected",
			row:      map[string]any{"name": " ", "address": "x", "price": "1"},
			taskType: types.TaskRealEstate,
			want:     false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RowConforms(tt.row, tt.taskType))
		})
	}
}

func TestValidateRows(t *testing.T) {
	t.Parallel()

	good := map[string]any{"rate_type": "fixed", "rate": "6.5%", "institution": "Acme"}
	bad := map[string]any{"rate_type": "fixed"}

	conforming, partial := ValidateRows([]map[string]any{good, bad}, types.TaskInterestRate)
	assert.Equal(t, 1, conforming)
	assert.False(t, partial)

	// Zero conforming rows in a non-empty set is partial, not discard.
	conforming, partial = ValidateRows([]map[string]any{bad, bad}, types.TaskInterestRate)
	assert.Zero(t, conforming)
	assert.True(t, partial)

	// An empty set is not partial by itself.
	conforming, partial = ValidateRows(nil, types.TaskInterestRate)
	assert.Zero(t, conforming)
	assert.False(t, partial)
}
