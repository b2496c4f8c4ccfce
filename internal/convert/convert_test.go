package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tangra/go-tangra-osinfo/internal/collector"
	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
	"github.com/go-tangra/go-tangra-osinfo/internal/store"
	"github.com/go-tangra/go-tangra-osinfo/internal/systeminfo"
)

func TestInventoryToRecord(t *testing.T) {
	t.Parallel()

	inv := &collector.Inventory{
		CollectedAt: time.Date(2024, time.March, 2, 20, 5, 12, 0, time.UTC),
		Hostname:    "DESKTOP-7Q2K9LM",
		OS: collector.OperatingSystemInfo{
			Name:        "Windows 11 Pro",
			Version:     "10.0.22631",
			Family:      platform.WindowsNT,
			BuildNumber: "22631.3296",
		},
		Hardware: collector.HardwareInfo{
			System: collector.SystemInfo{UUID: "4c4c4544-0042-3510-8052-b4c04f4e4a32"},
		},
		Windows: &collector.WindowsInfo{
			SystemInfo: &systeminfo.Info{
				HostName: "DESKTOP-7Q2K9LM",
				NetworkAdapters: []systeminfo.NetworkAdapter{
					{Name: "Intel(R) Ethernet", IPAddresses: []string{"192.168.1.42"}},
				},
			},
			Edition: systeminfo.EditionProfessional,
		},
	}

	rec, err := InventoryToRecord(inv)
	require.NoError(t, err)
	assert.Equal(t, "DESKTOP-7Q2K9LM", rec.Hostname)
	assert.Equal(t, "windows_nt", rec.Family)
	assert.Equal(t, "Windows 11 Pro", rec.OSName)
	assert.Equal(t, "4c4c4544-0042-3510-8052-b4c04f4e4a32", rec.SystemUUID)
	assert.Equal(t, inv.CollectedAt, rec.CollectedAt)

	back, err := RecordToInventory(rec)
	require.NoError(t, err)
	assert.Equal(t, inv.OS, back.OS)
	require.NotNil(t, back.Windows)
	assert.Equal(t, systeminfo.EditionProfessional, back.Windows.Edition)
	assert.Equal(t, []string{"192.168.1.42"}, back.Windows.SystemInfo.NetworkAdapters[0].IPAddresses)
}

func TestInventoryToRecordDefaultsCollectedAt(t *testing.T) {
	t.Parallel()

	rec, err := InventoryToRecord(&collector.Inventory{Hostname: "h"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), rec.CollectedAt, time.Minute)
}

func TestRecordToInventoryBadJSON(t *testing.T) {
	t.Parallel()

	_, err := RecordToInventory(&store.SnapshotRecord{InventoryJSON: "{"})
	require.Error(t, err)
}

func TestRecordToSummary(t *testing.T) {
	t.Parallel()

	rec := &store.SnapshotRecord{ID: "abc", Hostname: "h", Family: "linux", InventoryJSON: "{}"}
	assert.Equal(t, Summary{ID: "abc", Hostname: "h", Family: "linux"}, RecordToSummary(rec))
}
