// ABOUTME: Oura v2 client reading skin temperature from daily readiness.
// ABOUTME: Enriches a DailyRecord with temperature deviation and trend.
package oura

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/harperreed/bodycomp/internal/models"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the Oura API v2 root.
const DefaultBaseURL = "https://api.ouraring.com/v2"

// DefaultTimeout bounds one readiness request.
const DefaultTimeout = 30 * time.Second

// ErrNoData means Oura returned no readiness entry for the day.
var ErrNoData = errors.New("no readiness data")

// Readiness is the subset of a daily readiness document we read.
type Readiness struct {
	Day                       string   `json:"day"`
	TemperatureDeviation      *float64 `json:"temperature_deviation"`
	TemperatureTrendDeviation *float64 `json:"temperature_trend_deviation"`
}

type readinessPage struct {
	Data []Readiness `json:"data"`
}

// Client is an Oura API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client authenticated with a personal access token.
func NewClient(token, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	hc.Timeout = timeout
	return &Client{httpClient: hc, baseURL: baseURL}
}

// DailyReadiness fetches readiness documents between from and to inclusive.
func (c *Client) DailyReadiness(ctx context.Context, from, to time.Time) ([]Readiness, error) {
	params := url.Values{}
	params.Set("start_date", from.Format(models.DateLayout))
	params.Set("end_date", to.Format(models.DateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/usercollection/daily_readiness?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch daily readiness: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("oura API error %d: %s", resp.StatusCode, string(body))
	}

	var page readinessPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding daily readiness: %w", err)
	}
	return page.Data, nil
}

// Temperature returns the readiness entry for day.
func (c *Client) Temperature(ctx context.Context, day time.Time) (*Readiness, error) {
	entries, err := c.DailyReadiness(ctx, day, day)
	if err != nil {
		return nil, err
	}
	want := day.Format(models.DateLayout)
	for i := range entries {
		if entries[i].Day == want {
			return &entries[i], nil
		}
	}
	return nil, ErrNoData
}

// Enrich fills the record's skin temperature deviation and trend when the
// record does not already carry them.
func (c *Client) Enrich(ctx context.Context, rec *models.DailyRecord) error {
	r, err := c.Temperature(ctx, rec.Date)
	if err != nil {
		return err
	}
	if rec.SkinTempDeviation == nil && r.TemperatureDeviation != nil {
		rec.SkinTempDeviation = models.Float(*r.TemperatureDeviation)
	}
	if rec.SkinTempTrend == nil && r.TemperatureTrendDeviation != nil {
		rec.SkinTempTrend = models.Float(*r.TemperatureTrendDeviation)
	}
	return nil
}
