package econdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the FRED series observations endpoint.
const DefaultBaseURL = "https://api.stlouisfed.org/fred/series/observations"

// FRED series IDs for the indicators the service tracks.
const (
	SeriesUnemployment      = "UNRATE"
	SeriesCPI               = "CPIAUCSL"
	SeriesFedFunds          = "FEDFUNDS"
	SeriesConsumerSentiment = "UMCSENT"
)

// FredClient queries the FRED observations API for the latest value of
// a series.
type FredClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewFredClient creates a client for the FRED API. baseURL may be empty
// to use the public endpoint; httpClient may be nil to use a client
// with a 10s timeout.
func NewFredClient(baseURL, apiKey string, httpClient *http.Client) *FredClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &FredClient{baseURL: baseURL, apiKey: apiKey, client: httpClient}
}

// HasKey reports whether the client was configured with an API key.
func (c *FredClient) HasKey() bool { return c.apiKey != "" }

// observationsResponse is the subset of the FRED response we read.
type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// LatestValue fetches the most recent observation for seriesID within
// the last year. FRED reports missing observations as ".", which is
// treated as not found.
func (c *FredClient) LatestValue(ctx context.Context, seriesID string) (float64, error) {
	now := time.Now()
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("observation_start", now.AddDate(-1, 0, 0).Format("2006-01-02"))
	params.Set("observation_end", now.Format("2006-01-02"))
	params.Set("sort_order", "desc")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build fred request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", seriesID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch %s: unexpected status %d", seriesID, resp.StatusCode)
	}

	var body observationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode %s response: %w", seriesID, err)
	}

	if len(body.Observations) == 0 || body.Observations[0].Value == "." {
		return 0, fmt.Errorf("no recent observation for %s", seriesID)
	}

	v, err := strconv.ParseFloat(body.Observations[0].Value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s value %q: %w", seriesID, body.Observations[0].Value, err)
	}
	return v, nil
}
