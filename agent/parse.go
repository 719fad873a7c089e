package agent

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/BaSui01/webextract/types"
)

// Agents rarely return bare JSON: the payload is usually wrapped in
// markdown fences or surrounded by commentary.
var jsonFenceRe = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")

// ParseRows extracts structured result rows from raw agent output.
// websiteURL is used to resolve relative source_url values. Returns an
// empty slice (never an error) when no parseable payload is found; the
// caller decides how to classify that.
func ParseRows(output string, taskType types.TaskType, websiteURL string) []map[string]any {
	parsed, ok := locateJSON(output)
	if !ok {
		return nil
	}

	rows := flatten(parsed, taskType)
	fixSourceURLs(rows, websiteURL)
	return rows
}

// locateJSON finds and decodes the JSON payload inside the agent's text
// output. Order: fenced ```json block, a decode from the first brace or
// bracket (trailing commentary ignored), then a bare scan from the
// first '[' to the last ']'.
func locateJSON(output string) (any, bool) {
	if m := jsonFenceRe.FindStringSubmatch(output); m != nil {
		if v, err := decodeValue(m[1]); err == nil {
			return v, true
		}
	}

	start := strings.IndexAny(output, "[{")
	if start != -1 {
		if v, err := decodeValue(output[start:]); err == nil {
			return v, true
		}
	}

	start = strings.Index(output, "[")
	end := strings.LastIndex(output, "]")
	if start != -1 && end > start {
		if v, err := decodeValue(output[start : end+1]); err == nil {
			return v, true
		}
	}
	return nil, false
}

// decodeValue decodes exactly one JSON value from the front of s,
// tolerating trailing text after it.
func decodeValue(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// flatten normalizes the parsed payload into flat result rows. Agents
// sometimes nest rows under "interest_rates" (possibly grouped by
// category) or "mortgage_rates" instead of returning the requested
// flat array.
func flatten(parsed any, taskType types.TaskType) []map[string]any {
	switch v := parsed.(type) {
	case []any:
		return toRows(v)
	case map[string]any:
		if taskType == types.TaskInterestRate {
			if rates, ok := v["mortgage_rates"]; ok {
				return flattenMortgageRates(rates, v)
			}
			if rates, ok := v["interest_rates"]; ok {
				return flattenInterestRates(rates)
			}
		}
		if listings, ok := v["listings"]; ok {
			if arr, ok := listings.([]any); ok {
				return toRows(arr)
			}
		}
		// A single object is one row.
		return []map[string]any{v}
	default:
		return nil
	}
}

// flattenMortgageRates converts a {"mortgage_rates": [...], "date": d}
// payload into flat rate rows, carrying the shared date into each row.
func flattenMortgageRates(rates any, envelope map[string]any) []map[string]any {
	arr, ok := rates.([]any)
	if !ok {
		return nil
	}
	updated := "N/A"
	if d, ok := envelope["date"].(string); ok && d != "" {
		updated = d
	}

	out := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row := map[string]any{
			"rate_type":       stringOr(m, "term", "Unknown Type"),
			"rate":            stringOr(m, "rate", "N/A"),
			"apr":             stringOr(m, "apr", "N/A"),
			"term":            stringOr(m, "term", "N/A"),
			"minimum_balance": "N/A",
			"currency":        "USD",
			"updated":         updated,
		}
		if inst, ok := m["institution"]; ok {
			row["institution"] = inst
		}
		out = append(out, row)
	}
	return out
}

// flattenInterestRates unnests {"interest_rates": {category: [...]}}
// payloads, labeling each row with its category path.
func flattenInterestRates(rates any) []map[string]any {
	switch v := rates.(type) {
	case []any:
		return toRows(v)
	case map[string]any:
		var out []map[string]any
		for category, data := range v {
			label := titleize(category)
			switch d := data.(type) {
			case []any:
				for _, item := range d {
					if m, ok := item.(map[string]any); ok {
						m["category"] = label
						out = append(out, m)
					}
				}
			case map[string]any:
				for subcat, subdata := range d {
					arr, ok := subdata.([]any)
					if !ok {
						continue
					}
					subLabel := fmt.Sprintf("%s - %s", label, titleize(subcat))
					for _, item := range arr {
						if m, ok := item.(map[string]any); ok {
							m["category"] = subLabel
							out = append(out, m)
						}
					}
				}
			}
		}
		return out
	default:
		return nil
	}
}

// fixSourceURLs resolves relative source_url values against the site
// the extraction ran on.
func fixSourceURLs(rows []map[string]any, websiteURL string) {
	base, err := url.Parse(websiteURL)
	if err != nil || base.Host == "" {
		return
	}
	for _, row := range rows {
		src, ok := row["source_url"].(string)
		if !ok || !strings.HasPrefix(src, "/") {
			continue
		}
		row["source_url"] = base.Scheme + "://" + base.Host + src
	}
}

func toRows(arr []any) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func stringOr(m map[string]any, key, fallback string) any {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); !ok || s != "" {
			return v
		}
	}
	return fallback
}

func titleize(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
