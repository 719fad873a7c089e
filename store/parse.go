package store

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	intRe   = regexp.MustCompile(`\d+`)
	floatRe = regexp.MustCompile(`\d+\.?\d*`)
)

// ParseIntFromText pulls the first integer out of loosely formatted
// text ("$3,200/month" -> 3200). Returns 0 when nothing numeric is
// present.
func ParseIntFromText(text string) int {
	if text == "" {
		return 0
	}
	m := intRe.FindString(strings.ReplaceAll(text, ",", ""))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// ParseFloatFromText pulls the first decimal number out of text
// ("2.5%" -> 2.5). Returns nil for empty or "N/A" input so nullable
// columns stay NULL.
func ParseFloatFromText(text string) *float64 {
	if text == "" || strings.EqualFold(strings.TrimSpace(text), "n/a") {
		return nil
	}
	cleaned := strings.NewReplacer(",", "", "%", "").Replace(text)
	m := floatRe.FindString(cleaned)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &f
}

// dateFormats are the layouts agents commonly emit.
var dateFormats = []string{"January 2, 2006", "01/02/2006", "2006-01-02"}

// ParseDateFromText parses a textual date, falling back to today when
// unparseable.
func ParseDateFromText(text string) time.Time {
	text = strings.TrimSpace(text)
	if text != "" && !strings.EqualFold(text, "n/a") {
		for _, layout := range dateFormats {
			if d, err := time.Parse(layout, text); err == nil {
				return d
			}
		}
	}
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// fieldString reads a row field as display text, treating missing
// values as empty.
func fieldString(row map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return ""
}
