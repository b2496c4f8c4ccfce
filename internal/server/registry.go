package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-tangra/go-tangra-osinfo/internal/convert"
)

const (
	commandChannelBufferSize = 16
	sendTimeout              = 5 * time.Second

	// MaxPollWait caps how long a poll request may block.
	MaxPollWait = 30 * time.Second
	staleAfter  = 3 * MaxPollWait
)

type polledAgent struct {
	ch        chan convert.Command
	version   string
	firstSeen time.Time
	lastSeen  time.Time
}

// AgentRegistry holds the command queues of agents that poll the collector.
// An agent counts as connected while it has polled within staleAfter.
type AgentRegistry struct {
	mu     sync.RWMutex
	agents map[string]*polledAgent
	now    func() time.Time
}

func NewAgentRegistry() *AgentRegistry {
	return &AgentRegistry{
		agents: make(map[string]*polledAgent),
		now:    time.Now,
	}
}

// touch records a poll from clientID and returns its queue. Stale agents
// are dropped on the way.
func (r *AgentRegistry) touch(clientID, version string) *polledAgent {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, a := range r.agents {
		if id != clientID && now.Sub(a.lastSeen) > staleAfter {
			delete(r.agents, id)
		}
	}

	a, ok := r.agents[clientID]
	if !ok {
		a = &polledAgent{
			ch:        make(chan convert.Command, commandChannelBufferSize),
			firstSeen: now,
		}
		r.agents[clientID] = a
	}
	a.version = version
	a.lastSeen = now
	return a
}

// Poll waits up to wait for commands queued for clientID. It returns as
// soon as one command is available, together with anything else already
// queued. The result is empty, never nil, on timeout.
func (r *AgentRegistry) Poll(ctx context.Context, clientID, version string, wait time.Duration) []convert.Command {
	a := r.touch(clientID, version)
	cmds := make([]convert.Command, 0)

	if wait > MaxPollWait {
		wait = MaxPollWait
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case cmd := <-a.ch:
		cmds = append(cmds, cmd)
	case <-timer.C:
		return cmds
	case <-ctx.Done():
		return cmds
	}

	for {
		select {
		case cmd := <-a.ch:
			cmds = append(cmds, cmd)
		default:
			return cmds
		}
	}
}

// Send queues cmd for a connected agent.
func (r *AgentRegistry) Send(clientID string, cmd convert.Command) error {
	r.mu.RLock()
	a, ok := r.agents[clientID]
	live := ok && r.now().Sub(a.lastSeen) <= staleAfter
	r.mu.RUnlock()

	if !live {
		return fmt.Errorf("agent %s not connected", clientID)
	}

	select {
	case a.ch <- cmd:
		return nil
	case <-time.After(sendTimeout):
		return fmt.Errorf("timeout sending command to agent %s", clientID)
	}
}

func (r *AgentRegistry) IsConnected(clientID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[clientID]
	return ok && r.now().Sub(a.lastSeen) <= staleAfter
}

// ListConnected returns the live agents ordered by client ID.
func (r *AgentRegistry) ListConnected() []convert.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	result := make([]convert.Agent, 0, len(r.agents))
	for id, a := range r.agents {
		if now.Sub(a.lastSeen) > staleAfter {
			continue
		}
		result = append(result, convert.Agent{
			ClientID:  id,
			Version:   a.version,
			FirstSeen: a.firstSeen,
			LastSeen:  a.lastSeen,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClientID < result[j].ClientID })
	return result
}
