// Package fred implements the FRED (Federal Reserve Economic Data)
// client that builds the liquidity dataset. It fetches the balance-sheet
// source series, aligns them onto a daily grid, and emits the tuple-form
// document the normalization pipeline consumes.
//
// Requires a free API key from https://fred.stlouisfed.org/docs/api/api_key.html
// Rate limit: 120 requests/minute.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/liqboard/liqboard/internal/infra"
	"github.com/liqboard/liqboard/pkg/models"
	"github.com/liqboard/liqboard/pkg/utils"
)

// DefaultBaseURL is the FRED REST API root.
const DefaultBaseURL = "https://api.stlouisfed.org/fred"

// Client fetches FRED series observations with caching and rate
// limiting.
type Client struct {
	apiKey  string
	baseURL string
	cache   *infra.Cache
	limiter *infra.RateLimiter
}

// NewClient creates a FRED client for the given API key.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, DefaultBaseURL)
}

// NewClientWithBaseURL creates a client against a custom API root.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		cache:   infra.NewCache(10 * time.Minute),
		limiter: infra.NewRateLimiter(120, time.Minute),
	}
}

// observation is a single FRED observation. Values arrive as strings;
// missing observations are ".".
type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

func jsonHeaders() map[string]string {
	return map[string]string{"Accept": "application/json"}
}

// FetchObservations returns the full observation history for a FRED
// series, skipping missing ("." ) and unparseable values.
func (c *Client) FetchObservations(ctx context.Context, seriesID string) ([]models.Point, error) {
	cacheKey := "observations:" + seriesID
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]models.Point), nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/series/observations?series_id=%s&api_key=%s&file_type=json",
		c.baseURL, seriesID, c.apiKey)

	body, _, err := infra.DoGet(ctx, url, jsonHeaders())
	if err != nil {
		return nil, fmt.Errorf("fred series %s: %w", seriesID, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read FRED response: %w", err)
	}

	var resp observationsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse FRED JSON: %w", err)
	}

	points := make([]models.Point, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		if o.Value == "." {
			continue // Skip missing values
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		date, err := utils.ParseDate(o.Date)
		if err != nil {
			continue
		}
		points = append(points, models.Point{Date: date, Value: v})
	}

	c.cache.Set(cacheKey, points)
	return points, nil
}

// Ping checks connectivity and credentials against a well-known series.
func (c *Client) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/series?series_id=GDP&api_key=%s&file_type=json", c.baseURL, c.apiKey)
	body, _, err := infra.DoGet(ctx, url, jsonHeaders())
	if err != nil {
		return fmt.Errorf("fred ping: %w", err)
	}
	body.Close()
	return nil
}
