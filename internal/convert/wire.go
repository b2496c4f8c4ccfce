package convert

import (
	"time"

	"github.com/go-tangra/go-tangra-osinfo/internal/collector"
	"github.com/go-tangra/go-tangra-osinfo/internal/systeminfo"
)

// SubmitReply is returned after an inventory is stored.
type SubmitReply struct {
	ID       string    `json:"id"`
	StoredAt time.Time `json:"stored_at"`
}

// InventoryReply carries one stored inventory.
type InventoryReply struct {
	ID        string               `json:"id"`
	StoredAt  time.Time            `json:"stored_at"`
	Inventory *collector.Inventory `json:"inventory"`
}

type ListReply struct {
	Inventories []Summary `json:"inventories"`
	TotalCount  int       `json:"total_count"`
}

// ParseReply is the result of parsing raw systeminfo output.
type ParseReply struct {
	SystemInfo *systeminfo.Info   `json:"systeminfo"`
	Edition    systeminfo.Edition `json:"edition,omitempty"`
}

// CommandType names an instruction queued for an agent.
type CommandType string

const CommandRefresh CommandType = "refresh"

// Command is queued by the collector and picked up by a polling agent.
type Command struct {
	ID       string      `json:"id"`
	Type     CommandType `json:"type"`
	IssuedAt time.Time   `json:"issued_at"`
}

type PollReply struct {
	Commands []Command `json:"commands"`
}

type RefreshReply struct {
	Sent      bool   `json:"sent"`
	CommandID string `json:"command_id"`
}

// Agent describes an agent that has polled recently.
type Agent struct {
	ClientID  string    `json:"client_id"`
	Version   string    `json:"version"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

type AgentsReply struct {
	Agents []Agent `json:"agents"`
}
