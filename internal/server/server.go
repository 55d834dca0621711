// ABOUTME: Webhook receiving Health Auto Export payloads over HTTP.
// ABOUTME: Stores each payload atomically and optionally runs the pipeline on it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/renameio/v2"
	"github.com/harperreed/bodycomp/internal/ingest"
	"github.com/harperreed/bodycomp/internal/pipeline"
)

// MaxPayloadBytes caps one request body.
const MaxPayloadBytes = 32 << 20

// Runner processes a stored payload file.
type Runner interface {
	RunFile(ctx context.Context, path string) (*pipeline.Result, error)
}

// Server is the inbound webhook.
type Server struct {
	httpServer *http.Server
	payloadDir string
	runner     Runner
	logger     *log.Logger
	now        func() time.Time
}

// New creates a webhook bound to addr. A nil runner only stores payloads.
func New(addr, payloadDir string, runner Runner, logger *log.Logger) *Server {
	s := &Server{
		payloadDir: payloadDir,
		runner:     runner,
		logger:     logger.With("component", "webhook"),
		now:        time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /health-data", s.handleReceive)
	mux.HandleFunc("GET /health-data", s.handleStatus)
	mux.HandleFunc("GET /health-check", s.handleHealthCheck)
	mux.HandleFunc("GET /latest-data", s.handleLatest)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("listening", "addr", ln.Addr().String(), "endpoint", "/health-data")

	errc := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// POST /health-data stores the payload and runs the pipeline on it.
func (s *Server) handleReceive(w http.ResponseWriter, r *http.Request) {
	session := r.Header.Get("session-id")
	if session == "" {
		session = "unknown"
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayloadBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		s.writeError(w, http.StatusBadRequest, "No data received")
		return
	}
	payload, err := ingest.Decode(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := s.store(body)
	if err != nil {
		s.logger.Error("store payload", "err", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("payload received", "session", session, "file", filepath.Base(path),
		"metrics", len(payload.Data.Metrics), "workouts", len(payload.Data.Workouts))

	resp := map[string]interface{}{
		"status":         "success",
		"message":        "Data received",
		"file":           filepath.Base(path),
		"metrics_count":  len(payload.Data.Metrics),
		"workouts_count": len(payload.Data.Workouts),
		"session_id":     session,
		"processed":      false,
	}

	if s.runner != nil {
		res, err := s.runner.RunFile(r.Context(), path)
		resp["processed"] = err == nil
		if err != nil {
			resp["processing_error"] = err.Error()
		}
		if res != nil {
			resp["run_id"] = res.Run.ID.String()
			if res.Report != nil {
				resp["report_id"] = res.Report.ID
			}
			if res.Record != nil {
				resp["record_date"] = res.Record.DateString()
			}
			resp["delivered"] = res.Run.Delivered
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// store writes body under a fresh payload name.
func (s *Server) store(body []byte) (string, error) {
	if err := os.MkdirAll(s.payloadDir, 0750); err != nil {
		return "", fmt.Errorf("create payload dir: %w", err)
	}
	base := strings.TrimSuffix(pipeline.PayloadName(s.now()), ".json")
	path := filepath.Join(s.payloadDir, base+".json")
	for i := 2; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(s.payloadDir, fmt.Sprintf("%s_%d.json", base, i))
	}
	if err := renameio.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("write payload: %w", err)
	}
	return path, nil
}

// GET /health-data reports that the receiver is up.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "bodycomp webhook is running",
		"timestamp":      s.now().Format(time.RFC3339),
		"data_directory": s.payloadDir,
		"processing":     s.runner != nil,
	})
}

// GET /health-check is the monitoring probe.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": s.now().Format(time.RFC3339),
	})
}

// GET /latest-data previews the newest stored payload.
func (s *Server) handleLatest(w http.ResponseWriter, _ *http.Request) {
	paths, err := pipeline.PayloadFiles(s.payloadDir)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(paths) == 0 {
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "No data files found"})
		return
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payload, err := ingest.Decode(data)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	first := payload.Data.Metrics
	if len(first) > 3 {
		first = first[:3]
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"latest_file": filepath.Base(paths[0]),
		"data_preview": map[string]interface{}{
			"metrics_count":     len(payload.Data.Metrics),
			"workouts_count":    len(payload.Data.Workouts),
			"first_few_metrics": first,
		},
	})
}
