// ABOUTME: Tests for the webhook endpoints.
// ABOUTME: Drives the router with httptest and a fake pipeline runner.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{"data":{"metrics":[
	{"name":"weight_body_mass","units":"kg","data":[{"date":"2025-08-10 07:00:00 +0900","qty":72.1}]},
	{"name":"step_count","units":"count","data":[{"date":"2025-08-10 09:00:00 +0900","qty":4000}]}
],"workouts":[{"name":"walk"}]}}`

type fakeRunner struct {
	paths []string
	err   error
}

func (f *fakeRunner) RunFile(_ context.Context, path string) (*pipeline.Result, error) {
	f.paths = append(f.paths, path)
	run := models.NewRun(path)
	date := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	res := &pipeline.Result{
		Run:    run,
		Record: &models.DailyRecord{Date: date},
	}
	if f.err != nil {
		return res, f.err
	}
	res.Report = &models.ProgressReport{ID: "01J9ZQ4W6H8YF3N2B5C7D9E1GH"}
	return res, nil
}

func newTestServer(t *testing.T, runner Runner) (*Server, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "payloads")
	s := New(":0", dir, runner, log.New(io.Discard))
	s.now = func() time.Time { return time.Date(2025, 8, 10, 7, 30, 0, 0, time.UTC) }
	return s, dir
}

func do(t *testing.T, s *Server, method, path, body string, header map[string]string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestReceiveStoresAndRuns(t *testing.T) {
	runner := &fakeRunner{}
	s, dir := newTestServer(t, runner)

	code, out := do(t, s, http.MethodPost, "/health-data", samplePayload, map[string]string{"session-id": "abc-123"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "abc-123", out["session_id"])
	assert.Equal(t, float64(2), out["metrics_count"])
	assert.Equal(t, float64(1), out["workouts_count"])
	assert.Equal(t, "health_data_20250810_073000.json", out["file"])
	assert.Equal(t, true, out["processed"])
	assert.Equal(t, "01J9ZQ4W6H8YF3N2B5C7D9E1GH", out["report_id"])
	assert.Equal(t, "2025-08-10", out["record_date"])

	stored, err := os.ReadFile(filepath.Join(dir, "health_data_20250810_073000.json"))
	require.NoError(t, err)
	assert.Equal(t, samplePayload, string(stored))
	require.Len(t, runner.paths, 1)
}

func TestReceiveKeepsEveryPayload(t *testing.T) {
	s, dir := newTestServer(t, nil)
	for i := 0; i < 3; i++ {
		code, out := do(t, s, http.MethodPost, "/health-data", samplePayload, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "unknown", out["session_id"])
		assert.Equal(t, false, out["processed"])
	}
	paths, err := pipeline.PayloadFiles(dir)
	require.NoError(t, err)
	assert.Len(t, paths, 3, "payloads received in the same second get distinct names")
}

func TestReceiveReportsProcessingError(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{err: errors.New("record date 2025-08-10 is before cutoff 2025-09-01")})
	code, out := do(t, s, http.MethodPost, "/health-data", samplePayload, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, out["processed"])
	assert.Contains(t, out["processing_error"], "before cutoff")
}

func TestReceiveRejectsBadBodies(t *testing.T) {
	s, dir := newTestServer(t, &fakeRunner{})

	code, out := do(t, s, http.MethodPost, "/health-data", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No data received", out["error"])

	code, out = do(t, s, http.MethodPost, "/health-data", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, out["error"], "malformed document")

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "rejected bodies are not stored")
}

func TestStatusEndpoints(t *testing.T) {
	s, dir := newTestServer(t, nil)

	code, out := do(t, s, http.MethodGet, "/health-check", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", out["status"])

	code, out = do(t, s, http.MethodGet, "/health-data", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, dir, out["data_directory"])
}

func TestLatestData(t *testing.T) {
	s, _ := newTestServer(t, nil)

	_, out := do(t, s, http.MethodGet, "/latest-data", "", nil)
	assert.Equal(t, "No data files found", out["message"])

	do(t, s, http.MethodPost, "/health-data", samplePayload, nil)
	code, out := do(t, s, http.MethodGet, "/latest-data", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "health_data_20250810_073000.json", out["latest_file"])
	preview := out["data_preview"].(map[string]interface{})
	assert.Equal(t, float64(2), preview["metrics_count"])
	assert.Len(t, preview["first_few_metrics"], 2)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
