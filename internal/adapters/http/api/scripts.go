package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/strokeheat/internal/domain/dedupe"
)

const previewSuffix = "/preview.png"

// ScriptsDependencies defines the library operations.
type ScriptsDependencies interface {
	dedupe.Deduper
	Submit(ctx context.Context, name, digest string, doc []byte) (string, error)
	TopN(ctx context.Context, n int) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	StoredPreview(ctx context.Context, id string, width, height int) ([]byte, error)
}

// ScriptsHandler handles library requests.
type ScriptsHandler struct {
	deps         ScriptsDependencies
	maxBodyBytes int64
	maxLimit     int
}

// NewScriptsHandler creates a new scripts handler.
func NewScriptsHandler(deps ScriptsDependencies, maxBodyBytes int64, maxLimit int) *ScriptsHandler {
	return &ScriptsHandler{
		deps:         deps,
		maxBodyBytes: maxBodyBytes,
		maxLimit:     maxLimit,
	}
}

// HandleCollection handles POST /scripts and GET /scripts?limit=N.
func (h *ScriptsHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submit(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *ScriptsHandler) submit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_script"
	doc, err := readBody(w, r, op, h.maxBodyBytes)
	if err != nil {
		writeError(w, err)
		return
	}
	sum := sha256.Sum256(doc)
	digest := hex.EncodeToString(sum[:])

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), digest) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	id, err := h.deps.Submit(r.Context(), r.URL.Query().Get("name"), digest, doc)
	if err != nil {
		// Rollback the "seen" status so the document can be retried
		h.deps.Unrecord(r.Context(), digest)
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{ID: id, Status: "accepted"})
}

func (h *ScriptsHandler) list(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_scripts"
	raw := r.URL.Query().Get("limit")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		writeError(w, WrapKind(op, ErrBadRequest, fmt.Errorf("invalid limit %q", raw)))
		return
	}
	if n > h.maxLimit {
		writeError(w, WrapKind(op, ErrBadRequest, fmt.Errorf("limit exceeds %d", h.maxLimit)))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleItem handles GET /scripts/{id} and GET /scripts/{id}/preview.png.
func (h *ScriptsHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_script"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/scripts/")
	if id, ok := strings.CutSuffix(path, previewSuffix); ok {
		h.preview(w, r, id)
		return
	}
	if path == "" || strings.Contains(path, "/") {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.Get(r.Context(), path)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *ScriptsHandler) preview(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.script_preview"
	if id == "" || strings.Contains(id, "/") {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("missing id")))
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
	data, err := h.deps.StoredPreview(r.Context(), id, width, height)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writePNG(w, data)
}
