package api

import (
	"context"
	"net/http"
)

// PreviewDependencies defines the synchronous rendering operations.
type PreviewDependencies interface {
	Analyze(ctx context.Context, doc []byte) (Analysis, error)
	Preview(ctx context.Context, doc []byte, width, height int) ([]byte, error)
	Card(ctx context.Context, doc []byte, width int) ([]byte, error)
}

// PreviewHandler renders and analyzes uploaded documents.
type PreviewHandler struct {
	deps         PreviewDependencies
	maxBodyBytes int64
}

// NewPreviewHandler creates a new preview handler.
func NewPreviewHandler(deps PreviewDependencies, maxBodyBytes int64) *PreviewHandler {
	return &PreviewHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePreview handles POST /preview?width=&height= requests.
func (h *PreviewHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.preview"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	width, err := queryInt(r, op, "width")
	if err != nil {
		writeError(w, err)
		return
	}
	height, err := queryInt(r, op, "height")
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := readBody(w, r, op, h.maxBodyBytes)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := h.deps.Preview(r.Context(), doc, width, height)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writePNG(w, data)
}

// HandleCard handles POST /card?width= requests.
func (h *PreviewHandler) HandleCard(w http.ResponseWriter, r *http.Request) {
	const op = "api.card"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	width, err := queryInt(r, op, "width")
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := readBody(w, r, op, h.maxBodyBytes)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := h.deps.Card(r.Context(), doc, width)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writePNG(w, data)
}

// HandleAnalyze handles POST /analyze requests.
func (h *PreviewHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	doc, err := readBody(w, r, op, h.maxBodyBytes)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.deps.Analyze(r.Context(), doc)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
