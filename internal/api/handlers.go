// Package api exposes the REST handlers for the pose coach service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"example.com/posecoach/internal/auth"
	"example.com/posecoach/internal/keypoint"
	"example.com/posecoach/internal/pose"
	"example.com/posecoach/internal/recorder"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 50
)

// SessionHistory reads the caller's recorded holds from the Session API.
type SessionHistory interface {
	List(ctx context.Context) ([]recorder.SessionRecord, error)
	Stats(ctx context.Context) (recorder.Stats, error)
}

// HistoryFactory returns a SessionHistory acting on behalf of the bearer token.
type HistoryFactory func(token string) SessionHistory

// Handler serves pose metadata, one-shot classification and the practice dashboard.
type Handler struct {
	catalog *pose.Catalog
	history HistoryFactory
}

// NewHandler builds a Handler.
func NewHandler(catalog *pose.Catalog, history HistoryFactory) *Handler {
	return &Handler{catalog: catalog, history: history}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/poses", h.poses)
	mux.HandleFunc("/v1/poses/", h.poseByID)
	mux.HandleFunc("/v1/classify", h.classify)
	mux.HandleFunc("/v1/dashboard", h.dashboard)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) poses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	writeJSON(w, http.StatusOK, PoseListResponse{
		Version: h.catalog.Version(),
		Items:   h.catalog.Entries(),
	})
}

func (h *Handler) poseByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/poses/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing pose id")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	t, err := pose.ParseType(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	entry, ok := h.catalog.Lookup(t)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "pose not in catalog")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	t, err := pose.ParseType(req.Pose)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	frame := keypoint.Ingest(req.Keypoints)
	verdict := pose.Classify(frame, t)
	writeJSON(w, http.StatusOK, ClassifyResponse{
		Pose:          t,
		Verdict:       verdict,
		BodyDetected:  frame.Detected(),
		MissingJoints: frame.Missing(pose.RequiredJoints(t)...),
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > maxRecentLimit {
				parsed = maxRecentLimit
			}
			limit = parsed
		}
	}

	history := h.history(token)
	stats, err := history.Stats(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	sessions, err := history.List(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}

	writeJSON(w, http.StatusOK, DashboardResponse{
		Stats:  stats,
		Recent: sessions,
		Limit:  limit,
	})
}

// PoseListResponse packages the catalog.
type PoseListResponse struct {
	Version int          `json:"version"`
	Items   []pose.Entry `json:"items"`
}

// ClassifyRequest is the payload for POST /v1/classify.
type ClassifyRequest struct {
	Pose      string              `json:"pose"`
	Keypoints []keypoint.Keypoint `json:"keypoints"`
}

// ClassifyResponse reports the verdict for a single frame.
type ClassifyResponse struct {
	Pose          pose.Type       `json:"pose"`
	Verdict       pose.Verdict    `json:"verdict"`
	BodyDetected  bool            `json:"bodyDetected"`
	MissingJoints []keypoint.Name `json:"missingJoints,omitempty"`
}

// DashboardResponse merges the caller's statistics with their most recent holds.
type DashboardResponse struct {
	Stats  recorder.Stats           `json:"stats"`
	Recent []recorder.SessionRecord `json:"recent"`
	Limit  int                      `json:"limit"`
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, recorder.ErrNotAuthenticated) {
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, "upstream_error", err.Error())
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
