package updater

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUpdateSendsAuthorizedRequest(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/update", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"success": true, "message": "record updated"}`))
	}))
	defer server.Close()

	c := NewUpdateClient(server.URL)
	message, err := c.Update(context.Background(), "test-secret-key-123", "test.example.com", "10.0.0.100")
	require.NoError(t, err)
	require.Equal(t, "record updated", message)
	require.Equal(t, "Bearer test-secret-key-123", gotAuth)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, map[string]string{"domain": "test.example.com", "ip": "10.0.0.100"}, gotBody)
}

func TestUpdateOmitsEmptyIP(t *testing.T) {
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"success": true, "message": "auto-detected"}`))
	}))
	defer server.Close()

	c := NewUpdateClient(server.URL)
	_, err := c.Update(context.Background(), "auto-secret-key-789", "auto.example.com", "")
	require.NoError(t, err)

	_, hasIP := gotBody["ip"]
	require.False(t, hasIP, "empty ip must be omitted so the server auto-detects")
	require.Equal(t, "auto.example.com", gotBody["domain"])
}

func TestUpdateRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "unknown domain"}`))
	}))
	defer server.Close()

	c := NewUpdateClient(server.URL)
	message, err := c.Update(context.Background(), "key", "nope.example.com", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown domain")
	require.Equal(t, "unknown domain", message)
}

func TestUpdateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewUpdateClient(server.URL)
	_, err := c.Update(context.Background(), "key", "test.example.com", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}

func TestUpdateUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	c := NewUpdateClient(server.URL)
	_, err := c.Update(context.Background(), "key", "test.example.com", "")
	require.Error(t, err)
}

func TestWaitForServiceUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A 404 still proves the service is listening.
		http.NotFound(w, r)
	}))
	defer server.Close()

	require.True(t, WaitForService(server.URL, 5*time.Second))
}

func TestWaitForServiceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	start := time.Now()
	require.False(t, WaitForService(server.URL, 500*time.Millisecond))
	require.Less(t, time.Since(start), 5*time.Second)
}
