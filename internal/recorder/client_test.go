package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientSubmitPostsSession(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/sessions", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, map[string]any{
			"poseName":        "Tree Pose",
			"holdTimeSeconds": float64(12),
			"accuracyScore":   float64(100),
		}, body)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"abc","poseName":"Tree Pose"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/", time.Second).WithToken("tok-1")
	err := client.Submit(context.Background(), Submission{PoseName: "Tree Pose", HoldTimeSeconds: 12, AccuracyScore: 100})
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load())
}

func TestClientSubmitRejectsInvalidSubmissionLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	for _, s := range []Submission{
		{PoseName: "", HoldTimeSeconds: 3, AccuracyScore: 100},
		{PoseName: "Tree Pose", HoldTimeSeconds: 0, AccuracyScore: 100},
		{PoseName: "Tree Pose", HoldTimeSeconds: 3, AccuracyScore: 101},
		{PoseName: "Tree Pose", HoldTimeSeconds: 3, AccuracyScore: -1},
	} {
		err := client.Submit(context.Background(), s)
		require.ErrorIs(t, err, ErrInvalidSubmission)
	}
}

func TestClientMapsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	err := client.Submit(context.Background(), Submission{PoseName: "Tree Pose", HoldTimeSeconds: 1, AccuracyScore: 100})
	require.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = client.Stats(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestClientReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).List(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusServiceUnavailable, statusErr.Status)
	require.Equal(t, "/sessions", statusErr.Path)
	require.Contains(t, statusErr.Error(), "database unavailable")
}

func TestClientListAndStats(t *testing.T) {
	created := time.Date(2026, time.March, 4, 9, 30, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode([]SessionRecord{
			{ID: "s-2", PoseName: "Warrior Pose", HoldTimeSeconds: 8, AccuracyScore: 100, CreatedAt: created},
			{ID: "s-1", PoseName: "Tree Pose", HoldTimeSeconds: 21, AccuracyScore: 100, CreatedAt: created.Add(-time.Hour)},
		})
	})
	mux.HandleFunc("/sessions/stats", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalSessions":2,"bestHoldTime":21,"averageAccuracy":100}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)

	records, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "s-2", records[0].ID)
	require.True(t, records[0].CreatedAt.Equal(created))

	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, Stats{TotalSessions: 2, BestHoldTime: 21, AverageAccuracy: 100}, stats)
}

func TestClientListNullBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	records, err := NewClient(srv.URL, time.Second).List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)
}

func TestWithTokenDoesNotMutateParent(t *testing.T) {
	parent := NewClient("http://example.invalid", time.Second)
	child := parent.WithToken(" abc ")
	require.Empty(t, parent.token)
	require.Equal(t, "abc", child.token)
}
