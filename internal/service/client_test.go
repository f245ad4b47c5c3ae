package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lazyvibe/axial/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientStartSendsConfig(t *testing.T) {
	var got model.SessionConfig
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/start", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessionId":"s-1","startTime":"2026-10-19T09:00:00Z"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	resp, err := c.Start(context.Background(), model.SessionConfig{Posture: true, EyeStrain: true})
	require.NoError(t, err)

	assert.Equal(t, model.SessionConfig{Posture: true, EyeStrain: true}, got)
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), resp.StartTime.UTC())
}

func TestClientStartToleratesBareStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"recording started"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	resp, err := c.Start(context.Background(), model.DefaultSessionConfig())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.False(t, resp.StartTime.IsZero())
}

func TestClientNon2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "camera busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Start(context.Background(), model.DefaultSessionConfig())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Status)
	assert.Equal(t, "camera busy", statusErr.Body)

	_, err = c.Stop(context.Background(), "s-1")
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "stop session", statusErr.Op)
}

func TestClientStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stop", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "s-1", body["sessionId"])
		_, _ = w.Write([]byte(`{"sessionId":"s-1","endTime":"2026-10-19T09:30:00Z","duration":1800}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	resp, err := c.Stop(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", resp.SessionID)
	assert.InDelta(t, 1800, resp.Duration, 0.001)
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second)
	_, err := c.Stop(context.Background(), "")
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}
