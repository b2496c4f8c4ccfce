package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tangra/go-tangra-osinfo/internal/convert"
)

func TestAgentRegistryPollTimeout(t *testing.T) {
	t.Parallel()

	r := NewAgentRegistry()
	cmds := r.Poll(context.Background(), "web-01", "1.0.0", 5*time.Millisecond)
	assert.NotNil(t, cmds)
	assert.Empty(t, cmds)
	assert.True(t, r.IsConnected("web-01"))
}

func TestAgentRegistrySendThenPoll(t *testing.T) {
	t.Parallel()

	r := NewAgentRegistry()
	require.Error(t, r.Send("web-01", convert.Command{ID: "early"}))

	r.Poll(context.Background(), "web-01", "1.0.0", 0)
	require.NoError(t, r.Send("web-01", convert.Command{ID: "1", Type: convert.CommandRefresh}))
	require.NoError(t, r.Send("web-01", convert.Command{ID: "2", Type: convert.CommandRefresh}))

	cmds := r.Poll(context.Background(), "web-01", "1.0.0", time.Second)
	require.Len(t, cmds, 2)
	assert.Equal(t, "1", cmds[0].ID)
	assert.Equal(t, "2", cmds[1].ID)
}

func TestAgentRegistryPollWakesOnSend(t *testing.T) {
	t.Parallel()

	r := NewAgentRegistry()
	r.Poll(context.Background(), "web-01", "1.0.0", 0)

	done := make(chan []convert.Command, 1)
	go func() {
		done <- r.Poll(context.Background(), "web-01", "1.0.0", 10*time.Second)
	}()

	require.NoError(t, r.Send("web-01", convert.Command{ID: "wake"}))

	select {
	case cmds := <-done:
		require.Len(t, cmds, 1)
		assert.Equal(t, "wake", cmds[0].ID)
	case <-time.After(5 * time.Second):
		t.Fatal("poll did not return after send")
	}
}

func TestAgentRegistryPollHonoursContext(t *testing.T) {
	t.Parallel()

	r := NewAgentRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	cmds := r.Poll(ctx, "web-01", "1.0.0", 10*time.Second)
	assert.Empty(t, cmds)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAgentRegistryStaleAgents(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 2, 20, 0, 0, 0, time.UTC)
	r := NewAgentRegistry()
	r.now = func() time.Time { return now }

	r.Poll(context.Background(), "web-02", "1.0.0", 0)
	r.Poll(context.Background(), "web-01", "1.1.0", 0)

	agents := r.ListConnected()
	require.Len(t, agents, 2)
	assert.Equal(t, "web-01", agents[0].ClientID)
	assert.Equal(t, "1.1.0", agents[0].Version)
	assert.Equal(t, "web-02", agents[1].ClientID)

	now = now.Add(staleAfter + time.Second)
	assert.False(t, r.IsConnected("web-01"))
	assert.Empty(t, r.ListConnected())
	assert.Error(t, r.Send("web-01", convert.Command{ID: "late"}))

	r.Poll(context.Background(), "web-01", "1.1.0", 0)
	assert.True(t, r.IsConnected("web-01"))

	r.mu.RLock()
	_, kept := r.agents["web-02"]
	r.mu.RUnlock()
	assert.False(t, kept)
}
