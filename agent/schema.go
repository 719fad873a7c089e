package agent

import (
	"strings"

	"github.com/BaSui01/webextract/types"
)

// RowConforms reports whether a result row carries every identifying
// field its task type requires, each present and not "N/A".
func RowConforms(row map[string]any, taskType types.TaskType) bool {
	required := taskType.RequiredFields()
	if len(required) == 0 {
		return false
	}
	for _, field := range required {
		v, ok := row[field]
		if !ok || v == nil {
			return false
		}
		if s, isStr := v.(string); isStr {
			s = strings.TrimSpace(s)
			if s == "" || strings.EqualFold(s, "N/A") {
				return false
			}
		}
	}
	return true
}

// ValidateRows counts schema-conforming rows. A non-empty result set
// with zero conforming rows is kept but flagged partial; it is never
// discarded.
func ValidateRows(rows []map[string]any, taskType types.TaskType) (conforming int, partial bool) {
	for _, row := range rows {
		if RowConforms(row, taskType) {
			conforming++
		}
	}
	return conforming, len(rows) > 0 && conforming == 0
}
