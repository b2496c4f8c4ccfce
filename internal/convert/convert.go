package convert

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-tangra/go-tangra-osinfo/internal/collector"
	"github.com/go-tangra/go-tangra-osinfo/internal/store"
)

// Summary is the list view of a stored snapshot.
type Summary struct {
	ID          string    `json:"id"`
	Hostname    string    `json:"hostname"`
	Family      string    `json:"family"`
	OSName      string    `json:"os_name"`
	OSVersion   string    `json:"os_version"`
	SystemUUID  string    `json:"system_uuid,omitempty"`
	CollectedAt time.Time `json:"collected_at"`
	StoredAt    time.Time `json:"stored_at"`
}

// InventoryToRecord converts an Inventory to a store record.
func InventoryToRecord(inv *collector.Inventory) (*store.SnapshotRecord, error) {
	jsonBytes, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("marshal inventory to JSON: %w", err)
	}

	collectedAt := inv.CollectedAt
	if collectedAt.IsZero() {
		collectedAt = time.Now().UTC()
	}

	return &store.SnapshotRecord{
		Hostname:      inv.Hostname,
		Family:        string(inv.OS.Family),
		OSName:        inv.OS.Name,
		OSVersion:     inv.OS.Version,
		SystemUUID:    inv.Hardware.System.UUID,
		CollectedAt:   collectedAt,
		InventoryJSON: string(jsonBytes),
	}, nil
}

// RecordToInventory converts a store record back to an Inventory.
func RecordToInventory(rec *store.SnapshotRecord) (*collector.Inventory, error) {
	var inv collector.Inventory
	if err := json.Unmarshal([]byte(rec.InventoryJSON), &inv); err != nil {
		return nil, fmt.Errorf("unmarshal inventory JSON: %w", err)
	}
	return &inv, nil
}

// RecordToSummary converts a store record to its list view.
func RecordToSummary(rec *store.SnapshotRecord) Summary {
	return Summary{
		ID:          rec.ID,
		Hostname:    rec.Hostname,
		Family:      rec.Family,
		OSName:      rec.OSName,
		OSVersion:   rec.OSVersion,
		SystemUUID:  rec.SystemUUID,
		CollectedAt: rec.CollectedAt,
		StoredAt:    rec.StoredAt,
	}
}
