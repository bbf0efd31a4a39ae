// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/strokeheat/internal/domain/dedupe"
	"github.com/okian/strokeheat/internal/domain/types"
)

const (
	defaultMaxBodyBytes = 16 << 20
	defaultMaxListLimit = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Synchronous rendering and analysis of an uploaded document.
	Analyze(ctx context.Context, doc []byte) (Analysis, error)
	Preview(ctx context.Context, doc []byte, width, height int) ([]byte, error)
	Card(ctx context.Context, doc []byte, width int) ([]byte, error)

	// Submit queues a document for the library and returns its id.
	Submit(ctx context.Context, name, digest string, doc []byte) (string, error)

	// Read operations expose library data.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	StoredPreview(ctx context.Context, id string, width, height int) ([]byte, error)
}

// Entry mirrors the read shape returned by library queries.
type Entry = types.Entry

// Analysis mirrors the read shape returned by POST /analyze.
type Analysis = types.Analysis

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	previewHandler *PreviewHandler
	scriptsHandler *ScriptsHandler

	maxBodyBytes int64
	maxListLimit int
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxBodyBytes: defaultMaxBodyBytes,
		maxListLimit: defaultMaxListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.previewHandler = NewPreviewHandler(deps, s.maxBodyBytes)
	s.scriptsHandler = NewScriptsHandler(deps, s.maxBodyBytes, s.maxListLimit)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/preview", MetricsMiddleware(s.previewHandler.HandlePreview, "preview"))
	mux.HandleFunc("/card", MetricsMiddleware(s.previewHandler.HandleCard, "card"))
	mux.HandleFunc("/analyze", MetricsMiddleware(s.previewHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/scripts", MetricsMiddleware(s.scriptsHandler.HandleCollection, "scripts"))
	mux.HandleFunc("/scripts/", MetricsMiddleware(s.scriptsHandler.HandleItem, "script"))
}

type ackResponse struct {
	ID        string `json:"id,omitempty"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

// readBody reads at most limit bytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request, op string, limit int64) ([]byte, error) {
	body := http.MaxBytesReader(w, r.Body, limit)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, WrapKind(op, ErrTooLarge, fmt.Errorf("limit %d bytes", tooLarge.Limit))
		}
		return nil, WrapKind(op, ErrBadRequest, err)
	}
	if len(data) == 0 {
		return nil, WrapKind(op, ErrBadRequest, errors.New("empty body"))
	}
	return data, nil
}

// queryInt parses an optional non-negative integer parameter. Missing
// parameters yield 0.
func queryInt(r *http.Request, op, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, WrapKind(op, ErrBadRequest, fmt.Errorf("invalid %s %q", name, raw))
	}
	return n, nil
}
