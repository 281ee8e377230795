package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/posecoach/internal/auth"
	"example.com/posecoach/internal/keypoint"
	"example.com/posecoach/internal/pose"
	"example.com/posecoach/internal/recorder"
)

func newTestHandler(history *mockHistory) (*Handler, *http.ServeMux) {
	handler := NewHandler(pose.DefaultCatalog(), func(token string) SessionHistory {
		history.token = token
		return history
	})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return handler, mux
}

func TestPosesListsCatalog(t *testing.T) {
	_, mux := newTestHandler(&mockHistory{})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/poses", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp PoseListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Version)
	require.Len(t, resp.Items, 2)
	require.Equal(t, "tree", resp.Items[0].ID)
	require.Equal(t, "Warrior Pose", resp.Items[1].Name)
}

func TestPoseByID(t *testing.T) {
	_, mux := newTestHandler(&mockHistory{})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/poses/Warrior", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var entry pose.Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entry))
	require.Equal(t, "warrior", entry.ID)
	require.NotEmpty(t, entry.Instructions)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/poses/lotus", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/v1/poses/tree", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestClassifyCorrectTree(t *testing.T) {
	_, mux := newTestHandler(&mockHistory{})

	body := `{"pose":"tree","keypoints":[
		{"name":"left_hip","x":300,"y":100,"score":0.9},
		{"name":"left_knee","x":300,"y":200,"score":0.9},
		{"name":"left_ankle","x":400,"y":150,"score":0.9},
		{"name":"right_hip","x":200,"y":100,"score":0.9},
		{"name":"right_knee","x":200,"y":200,"score":0.9},
		{"name":"right_ankle","x":200,"y":300,"score":0.9}
	]}`
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/classify", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, pose.Tree, resp.Pose)
	require.True(t, resp.Verdict.Correct)
	require.Equal(t, pose.MessageCorrect, resp.Verdict.Message)
	require.True(t, resp.BodyDetected)
	require.Empty(t, resp.MissingJoints)
}

func TestClassifyReportsMissingJoints(t *testing.T) {
	_, mux := newTestHandler(&mockHistory{})

	body := `{"pose":"warrior","keypoints":[{"name":"left_shoulder","x":1,"y":1,"score":0.9}]}`
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/classify", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.False(t, resp.Verdict.Correct)
	require.Equal(t, "Show your arms clearly", resp.Verdict.Message)
	require.NotContains(t, resp.MissingJoints, keypoint.LeftShoulder)
	require.Contains(t, resp.MissingJoints, keypoint.RightElbow)
}

func TestClassifyRejectsBadInput(t *testing.T) {
	_, mux := newTestHandler(&mockHistory{})

	cases := map[string]string{
		"unknown pose": `{"pose":"lotus","keypoints":[]}`,
		"bad json":     `{"pose":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/classify", strings.NewReader(body)))
			require.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/classify", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestDashboardAggregatesHistory(t *testing.T) {
	now := time.Date(2026, time.May, 1, 7, 0, 0, 0, time.UTC)
	history := &mockHistory{
		stats: recorder.Stats{TotalSessions: 3, BestHoldTime: 12, AverageAccuracy: 100},
	}
	for i := 0; i < 3; i++ {
		history.sessions = append(history.sessions, recorder.SessionRecord{
			ID:              fmt.Sprintf("s-%d", i),
			PoseName:        "Tree Pose",
			HoldTimeSeconds: 4 + i,
			AccuracyScore:   100,
			CreatedAt:       now.Add(-time.Duration(i) * time.Hour),
		})
	}
	handler, _ := newTestHandler(history)

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard?limit=2", nil)
	req = req.WithContext(auth.WithToken(req.Context(), "tok-1"))
	rr := httptest.NewRecorder()
	handler.dashboard(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp DashboardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "tok-1", history.token)
	require.Equal(t, 12, resp.Stats.BestHoldTime)
	require.Equal(t, 2, resp.Limit)
	require.Len(t, resp.Recent, 2)
	require.Equal(t, "s-0", resp.Recent[0].ID)
}

func TestDashboardErrors(t *testing.T) {
	handler, _ := newTestHandler(&mockHistory{})
	rr := httptest.NewRecorder()
	handler.dashboard(rr, httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	handler, _ = newTestHandler(&mockHistory{err: fmt.Errorf("stats: %w", recorder.ErrNotAuthenticated)})
	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil)
	req = req.WithContext(auth.WithToken(req.Context(), "expired"))
	rr = httptest.NewRecorder()
	handler.dashboard(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	handler, _ = newTestHandler(&mockHistory{err: &recorder.StatusError{Status: http.StatusInternalServerError}})
	req = httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil)
	req = req.WithContext(auth.WithToken(req.Context(), "tok"))
	rr = httptest.NewRecorder()
	handler.dashboard(rr, req)
	require.Equal(t, http.StatusBadGateway, rr.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.Equal(t, "upstream_error", payload["type"])
}

func TestHealthz(t *testing.T) {
	_, mux := newTestHandler(&mockHistory{})
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

type mockHistory struct {
	token    string
	stats    recorder.Stats
	sessions []recorder.SessionRecord
	err      error
}

func (m *mockHistory) List(context.Context) ([]recorder.SessionRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sessions, nil
}

func (m *mockHistory) Stats(context.Context) (recorder.Stats, error) {
	if m.err != nil {
		return recorder.Stats{}, m.err
	}
	return m.stats, nil
}
