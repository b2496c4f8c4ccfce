package sender

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/cenkalti/backoff.v1"

	"github.com/go-tangra/go-tangra-osinfo/internal/collector"
	"github.com/go-tangra/go-tangra-osinfo/internal/convert"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, apiKey string) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	c, err := New(context.Background(), srv.URL, apiKey, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxTries(&backoff.ZeroBackOff{}, 3)
	}
	return c
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSend(t *testing.T) {
	t.Parallel()

	storedAt := time.Date(2024, time.March, 2, 20, 5, 12, 0, time.UTC)
	var got collector.Inventory

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/inventories", r.URL.Path)
		assert.Equal(t, "s3cret", r.Header.Get("X-API-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, convert.SubmitReply{ID: "abc", StoredAt: storedAt})
	}, "s3cret")

	reply, err := c.Send(context.Background(), &collector.Inventory{Hostname: "web-01"})
	require.NoError(t, err)
	assert.Equal(t, "abc", reply.ID)
	assert.True(t, storedAt.Equal(reply.StoredAt))
	assert.Equal(t, "web-01", got.Hostname)
}

func TestSendRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"code": 503, "reason": "UNAVAILABLE"})
			return
		}
		writeJSON(w, http.StatusOK, convert.SubmitReply{ID: "second"})
	}, "")

	reply, err := c.Send(context.Background(), &collector.Inventory{Hostname: "web-01"})
	require.NoError(t, err)
	assert.Equal(t, "second", reply.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"code": 401, "reason": "API_KEY_MISSING", "message": "missing X-API-Key header"})
	}, "")

	_, err := c.Send(context.Background(), &collector.Inventory{Hostname: "web-01"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendGivesUp(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"code": 500})
	}, "")

	_, err := c.Send(context.Background(), &collector.Inventory{Hostname: "web-01"})
	require.Error(t, err)
	assert.Equal(t, int32(4), calls.Load())
}

func TestPoll(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/agents/web-01/commands", r.URL.Path)
		assert.Equal(t, "1.2.0", r.URL.Query().Get("version"))
		assert.Equal(t, "25s", r.URL.Query().Get("wait"))
		writeJSON(w, http.StatusOK, convert.PollReply{Commands: []convert.Command{{ID: "c1", Type: convert.CommandRefresh}}})
	}, "")

	cmds, err := c.Poll(context.Background(), "web-01", "1.2.0", 25*time.Second)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, convert.CommandRefresh, cmds[0].Type)
}
