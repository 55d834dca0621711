// ABOUTME: Tests for the Oura readiness client.
// ABOUTME: Serves canned readiness documents through httptest.
package oura

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harperreed/bodycomp/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readinessServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/usercollection/daily_readiness", r.URL.Path)
		assert.Equal(t, "2025-08-10", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2025-08-10", r.URL.Query().Get("end_date"))
		assert.Equal(t, "Bearer oura-token", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var aug10 = time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)

func TestEnrich(t *testing.T) {
	srv := readinessServer(t, http.StatusOK, `{"data":[
		{"day":"2025-08-09","temperature_deviation":0.5},
		{"day":"2025-08-10","temperature_deviation":-0.21,"temperature_trend_deviation":-0.12}
	]}`)

	c := NewClient("oura-token", srv.URL, time.Second)
	rec := &models.DailyRecord{Date: aug10}
	require.NoError(t, c.Enrich(context.Background(), rec))
	require.NotNil(t, rec.SkinTempDeviation)
	assert.Equal(t, -0.21, *rec.SkinTempDeviation)
	assert.Equal(t, -0.12, *rec.SkinTempTrend)
}

func TestEnrichKeepsExistingValues(t *testing.T) {
	srv := readinessServer(t, http.StatusOK, `{"data":[{"day":"2025-08-10","temperature_deviation":-0.21}]}`)
	c := NewClient("oura-token", srv.URL, time.Second)
	rec := &models.DailyRecord{Date: aug10, SkinTempDeviation: models.Float(0.1)}
	require.NoError(t, c.Enrich(context.Background(), rec))
	assert.Equal(t, 0.1, *rec.SkinTempDeviation)
	assert.Nil(t, rec.SkinTempTrend)
}

func TestTemperatureNoData(t *testing.T) {
	srv := readinessServer(t, http.StatusOK, `{"data":[]}`)
	_, err := NewClient("oura-token", srv.URL, time.Second).Temperature(context.Background(), aug10)
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestTemperatureAPIError(t *testing.T) {
	srv := readinessServer(t, http.StatusUnauthorized, `{"detail":"invalid token"}`)
	_, err := NewClient("oura-token", srv.URL, time.Second).Temperature(context.Background(), aug10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
