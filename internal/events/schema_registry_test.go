package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnsureSchemaReturnsLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/subjects/pose_hold_events-value/versions/latest" {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(`{"id":12,"version":3}`))
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL, time.Second).EnsureSchema(context.Background(), "pose_hold_events-value", holdCompletedSchema)
	require.NoError(t, err)
	require.Equal(t, 12, id)
}

func TestEnsureSchemaRegistersMissingSubject(t *testing.T) {
	var registered string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPost:
			var body struct {
				SchemaType string `json:"schemaType"`
				Schema     string `json:"schema"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SchemaType != "JSON" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			registered = body.Schema
			_, _ = w.Write([]byte(`{"id":31}`))
		}
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL+"/", time.Second).EnsureSchema(context.Background(), "s-value", holdCompletedSchema)
	require.NoError(t, err)
	require.Equal(t, 31, id)
	require.JSONEq(t, holdCompletedSchema, registered)
}

func TestEnsureSchemaDoesNotRegisterOnServerError(t *testing.T) {
	posts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts++
		}
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewSchemaRegistryClient(srv.URL, time.Second).EnsureSchema(context.Background(), "s-value", holdCompletedSchema)
	require.ErrorContains(t, err, "status 503")
	require.Zero(t, posts)
}
