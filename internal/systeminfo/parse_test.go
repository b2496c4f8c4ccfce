package systeminfo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestParseSingleAdapter(t *testing.T) {
	t.Parallel()

	info, err := Parse(loadFixture(t, "en_us_single.txt"))
	require.NoError(t, err)

	assert.Equal(t, "DESKTOP-7Q2K9LM", info.HostName)
	assert.Equal(t, "Microsoft Windows 11 Pro", info.OSName)
	assert.Equal(t, "10.0.22631 N/A Build 22631", info.OSVersion)
	assert.Equal(t, "Microsoft Corporation", info.OSManufacturer)
	assert.Equal(t, "Standalone Workstation", info.OSConfiguration)
	assert.Equal(t, "Multiprocessor Free", info.OSBuildType)
	assert.Equal(t, "dev@example.com", info.RegisteredOwner)
	assert.Equal(t, "N/A", info.RegisteredOrganization)
	assert.Equal(t, "00330-80000-00000-AA123", info.ProductID)
	assert.Equal(t, time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC), info.OriginalInstallDate)
	assert.Equal(t, time.Date(2024, time.March, 2, 20, 5, 12, 0, time.UTC), info.SystemBootTime)
	assert.Equal(t, "Dell Inc.", info.SystemManufacturer)
	assert.Equal(t, "XPS 15 9520", info.SystemModel)
	assert.Equal(t, "x64-based PC", info.SystemType)
	assert.Equal(t, []string{"Intel64 Family 6 Model 154 Stepping 3 GenuineIntel ~2300 Mhz"}, info.Processors)
	assert.Equal(t, "Dell Inc. 1.18.0, 11/9/2023", info.BIOSVersion)
	assert.Equal(t, `C:\WINDOWS`, info.WindowsDirectory)
	assert.Equal(t, `C:\WINDOWS\system32`, info.SystemDirectory)
	assert.Equal(t, `\Device\HarddiskVolume1`, info.BootDevice)
	assert.Equal(t, "en-us;English (United States)", info.SystemLocale)
	assert.Equal(t, "en-us;English (United States)", info.InputLocale)
	assert.Equal(t, "(UTC-05:00) Eastern Time (US & Canada)", info.TimeZone)

	assert.Equal(t, int64(32491), info.TotalPhysicalMemoryMB)
	assert.Equal(t, int64(18204), info.AvailablePhysicalMemoryMB)
	assert.Equal(t, int64(37355), info.VirtualMemoryMaxSizeMB)
	assert.Equal(t, int64(20110), info.VirtualMemoryAvailableMB)
	assert.Equal(t, int64(17245), info.VirtualMemoryInUseMB)

	assert.Equal(t, []string{`C:\pagefile.sys`}, info.PageFileLocations)
	assert.Equal(t, "WORKGROUP", info.Domain)
	assert.Equal(t, `\\DESKTOP-7Q2K9LM`, info.LogonServer)
	assert.Equal(t, []string{"KB5034467", "KB5027397", "KB5034765"}, info.Hotfixes)

	require.Len(t, info.NetworkAdapters, 1)
	nic := info.NetworkAdapters[0]
	assert.Equal(t, "Intel(R) Ethernet Connection (16) I219-LM", nic.Name)
	assert.Equal(t, "Ethernet", nic.ConnectionName)
	assert.True(t, nic.DHCPEnabled)
	assert.Equal(t, "192.168.1.1", nic.DHCPServer)
	assert.Equal(t, []string{"192.168.1.42"}, nic.IPAddresses)

	assert.Equal(t, HyperVRequirements{
		VMMonitorModeExtensions:          true,
		VirtualizationEnabledInFirmware:  true,
		SecondLevelAddressTranslation:    true,
		DataExecutionPreventionAvailable: true,
	}, info.HyperV)
}

func TestParseMultipleAdapters(t *testing.T) {
	t.Parallel()

	info, err := Parse(loadFixture(t, "multi_adapter.txt"))
	require.NoError(t, err)

	assert.Len(t, info.Processors, 2)
	assert.Equal(t, []string{`C:\pagefile.sys`, `D:\pagefile.sys`}, info.PageFileLocations)
	assert.Equal(t, "corp.contoso.com", info.Domain)
	assert.Equal(t, []string{"KB5034439", "KB5034129"}, info.Hotfixes)

	require.Len(t, info.NetworkAdapters, 3)

	first := info.NetworkAdapters[0]
	assert.Equal(t, "Microsoft Hyper-V Network Adapter", first.Name)
	assert.Equal(t, "Ethernet", first.ConnectionName)
	assert.False(t, first.DHCPEnabled)
	assert.Empty(t, first.DHCPServer)
	assert.Equal(t, []string{"10.20.0.14", "fe80::5d1c:2b3a:9e44:17f0"}, first.IPAddresses)

	second := info.NetworkAdapters[1]
	assert.Equal(t, "Microsoft Hyper-V Network Adapter", second.Name)
	assert.Equal(t, "Ethernet 2", second.ConnectionName)
	assert.True(t, second.DHCPEnabled)
	assert.Equal(t, "10.30.0.1", second.DHCPServer)
	assert.Equal(t, []string{"10.30.0.77"}, second.IPAddresses)

	third := info.NetworkAdapters[2]
	assert.Equal(t, "Intel(R) Wi-Fi 6 AX201 160MHz", third.Name)
	assert.Equal(t, "Wi-Fi", third.ConnectionName)
	assert.Equal(t, "Media disconnected", third.Status)
	assert.Empty(t, third.IPAddresses)
	assert.NotNil(t, third.IPAddresses)

	assert.True(t, info.HyperV.HypervisorDetected)
	assert.False(t, info.HyperV.VMMonitorModeExtensions)
	assert.False(t, info.HyperV.DataExecutionPreventionAvailable)
}

func TestParseDigitRunLocale(t *testing.T) {
	t.Parallel()

	info, err := Parse(loadFixture(t, "de_de_digit_run.txt"))
	require.NoError(t, err)

	assert.Equal(t, time.Time{}.Add(10*time.Hour+30*time.Minute), info.OriginalInstallDate)
	assert.Equal(t, time.Time{}.Add(7*time.Hour+45*time.Minute+9*time.Second), info.SystemBootTime)
	assert.Equal(t, int64(16067), info.TotalPhysicalMemoryMB)
	assert.Equal(t, []string{"KB5034441"}, info.Hotfixes)
	assert.Empty(t, info.NetworkAdapters)
	assert.NotNil(t, info.NetworkAdapters)

	assert.False(t, info.HyperV.VMMonitorModeExtensions)
	assert.False(t, info.HyperV.VirtualizationEnabledInFirmware)
	assert.True(t, info.HyperV.SecondLevelAddressTranslation)
	assert.True(t, info.HyperV.DataExecutionPreventionAvailable)
}

func TestParseCRLF(t *testing.T) {
	t.Parallel()

	lf := loadFixture(t, "en_us_single.txt")
	want, err := Parse(lf)
	require.NoError(t, err)

	got, err := Parse(strings.ReplaceAll(lf, "\n", "\r\n"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseStopsAtDataExecutionPrevention(t *testing.T) {
	t.Parallel()

	out := loadFixture(t, "en_us_single.txt") + "Host Name: SHOULD-NOT-WIN\n"

	info, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "DESKTOP-7Q2K9LM", info.HostName)
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	info, err := Parse("")
	require.NoError(t, err)

	assert.Empty(t, info.HostName)
	assert.NotNil(t, info.Processors)
	assert.NotNil(t, info.Hotfixes)
	assert.NotNil(t, info.PageFileLocations)
	assert.NotNil(t, info.NetworkAdapters)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	t.Run("adapter field without adapter", func(t *testing.T) {
		t.Parallel()

		_, err := Parse(loadFixture(t, "orphan_connection.txt"))
		var lookup *LookupError
		require.ErrorAs(t, err, &lookup)
		assert.Equal(t, "connection name:", lookup.Label)
		assert.Equal(t, 3, lookup.Line)
	})

	t.Run("bad memory value", func(t *testing.T) {
		t.Parallel()

		_, err := Parse(loadFixture(t, "bad_memory.txt"))
		var format *FormatError
		require.ErrorAs(t, err, &format)
		assert.Equal(t, "total physical memory", format.Field)
		assert.Equal(t, "lots", format.Value)
	})

	t.Run("bad install date", func(t *testing.T) {
		t.Parallel()

		_, err := Parse("\nOriginal Install Date: 1/15/2024, 25:99:00 AM\n")
		var format *FormatError
		require.ErrorAs(t, err, &format)
		assert.Equal(t, "original install date", format.Field)
	})

	t.Run("unterminated hotfix list", func(t *testing.T) {
		t.Parallel()

		_, err := Parse("\nHotfix(s): 2 Hotfix(s) Installed.\n[01]: KB5034441\n[02]: KB5034122")
		var oor *OutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, "hotfix", oor.List)
	})

	t.Run("unterminated page file list", func(t *testing.T) {
		t.Parallel()

		_, err := Parse("\nPage File Location(s): C:\\pagefile.sys\nD:\\pagefile.sys\n")
		var oor *OutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, "page file location", oor.List)
	})

	t.Run("network block without adapter entry", func(t *testing.T) {
		t.Parallel()

		_, err := Parse("\nNetwork Card(s): 1 NIC(s) Installed.\nConnection Name: Ethernet\n")
		var layout *UnsupportedLayoutError
		require.ErrorAs(t, err, &layout)
		assert.Equal(t, 1, layout.Line)
	})

	t.Run("messages use one-based lines", func(t *testing.T) {
		t.Parallel()

		_, err := Parse(loadFixture(t, "orphan_connection.txt"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 4")
	})
}

func TestParseIsReentrant(t *testing.T) {
	t.Parallel()

	out := loadFixture(t, "multi_adapter.txt")
	want, err := Parse(out)
	require.NoError(t, err)

	done := make(chan *Info, 8)
	for range 8 {
		go func() {
			info, err := Parse(out)
			if err != nil {
				done <- nil
				return
			}
			done <- info
		}()
	}
	for range 8 {
		assert.Equal(t, want, <-done)
	}
}
