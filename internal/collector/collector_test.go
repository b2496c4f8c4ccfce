package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
	"github.com/go-tangra/go-tangra-osinfo/internal/runner"
)

func TestCollectDarwin(t *testing.T) {
	t.Parallel()

	fake := &runner.Fake{Outputs: map[string]string{
		"sw_vers":  swVersOutput,
		"uname -r": "23.4.0\n",
		"uname -v": unameV,
	}}

	c := NewForFamily(platform.Darwin, fake, testLogger())
	c.darwin.host = platform.Darwin
	c.hostname = func(context.Context) (string, error) { return "mbp.local", nil }
	c.hardware = func() (HardwareInfo, error) {
		return HardwareInfo{System: SystemInfo{Manufacturer: "Apple Inc."}}, nil
	}

	inv, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mbp.local", inv.Hostname)
	assert.Equal(t, "14.4.1", inv.OS.Version)
	require.NotNil(t, inv.Darwin)
	assert.Equal(t, "10063.101.17.1", inv.Darwin.XNUVersion)
	assert.Equal(t, "Apple Inc.", inv.Hardware.System.Manufacturer)
	assert.Nil(t, inv.Windows)
	assert.False(t, inv.CollectedAt.IsZero())
}

func TestCollectReturnsPartialResults(t *testing.T) {
	t.Parallel()

	fake := &runner.Fake{Outputs: map[string]string{
		"cmd /c systeminfo": readFixture(t, "systeminfo_en_us.txt"),
	}}

	c := NewForFamily(platform.WindowsNT, fake, testLogger())
	c.windows.host = platform.WindowsNT
	c.windows.readRegistry = func() (*currentVersion, error) {
		return &currentVersion{ProductName: "Windows 10 Pro", Major: 10, Build: "22631"}, nil
	}
	c.hostname = func(context.Context) (string, error) { return "DESKTOP-7Q2K9LM", nil }
	c.hardware = func() (HardwareInfo, error) {
		return HardwareInfo{BIOS: BIOSInfo{Vendor: "Dell Inc."}}, errors.New("smbios: permission denied")
	}

	inv, err := c.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hardware")

	assert.Equal(t, "Windows 11 Pro", inv.OS.Name)
	require.NotNil(t, inv.Windows)
	assert.Equal(t, "DESKTOP-7Q2K9LM", inv.Windows.SystemInfo.HostName)
	assert.Equal(t, "Dell Inc.", inv.Hardware.BIOS.Vendor)
}

func TestCollectKeepsFamilyWhenProviderFails(t *testing.T) {
	t.Parallel()

	c := NewForFamily(platform.Linux, &runner.Fake{}, testLogger())
	c.provider.(*Linux).host = platform.Darwin
	c.hostname = func(context.Context) (string, error) { return "box", nil }
	c.hardware = func() (HardwareInfo, error) { return HardwareInfo{}, nil }

	inv, err := c.Collect(context.Background())
	require.ErrorIs(t, err, platform.ErrUnsupportedPlatform)
	assert.Equal(t, platform.Linux, inv.OS.Family)
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	log := testLogger()
	fake := &runner.Fake{}

	assert.IsType(t, &Windows{}, NewProvider(platform.WindowsNT, fake, log))
	assert.IsType(t, &Darwin{}, NewProvider(platform.Darwin, fake, log))
	assert.IsType(t, &Linux{}, NewProvider(platform.Linux, fake, log))
	assert.IsType(t, &Android{}, NewProvider(platform.Android, fake, log))
	assert.IsType(t, &Generic{}, NewProvider(platform.BSD, fake, log))
}

func TestGenericOperatingSystemInfo(t *testing.T) {
	t.Parallel()

	g := NewGeneric(testLogger())
	g.info = func(context.Context) (*host.InfoStat, error) {
		return &host.InfoStat{
			OS:              "freebsd",
			Platform:        "freebsd",
			PlatformVersion: "14.0-RELEASE",
			KernelVersion:   "14.0-RELEASE",
		}, nil
	}

	info, err := g.OperatingSystemInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, platform.BSD, info.Family)
	assert.Equal(t, "14.0-RELEASE", info.Version)
}

func TestCollectRemoteLinux(t *testing.T) {
	t.Parallel()

	fake := &runner.Fake{Outputs: map[string]string{
		"cat /etc/os-release": ubuntuOSRelease,
		"uname -r":            "6.5.0-27-generic\n",
		"hostname":            "db-02\n",
	}}

	c, err := NewRemote(platform.Linux, fake, testLogger())
	require.NoError(t, err)

	inv, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "db-02", inv.Hostname)
	assert.Equal(t, "Ubuntu 22.04.4 LTS", inv.OS.Name)
	assert.Equal(t, "6.5.0-27-generic", inv.OS.KernelVersion)
	assert.Equal(t, HardwareInfo{}, inv.Hardware)
}

func TestCollectRemoteDarwin(t *testing.T) {
	t.Parallel()

	fake := &runner.Fake{Outputs: map[string]string{
		"sw_vers":  swVersOutput,
		"uname -r": "23.4.0\n",
		"uname -v": unameV,
		"uname -m": "arm64\n",
		"hostname": "mbp.local\n",
	}}

	c, err := NewRemote(platform.Darwin, fake, testLogger())
	require.NoError(t, err)

	inv, err := c.Collect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, inv.Darwin)
	assert.True(t, inv.Darwin.AppleSilicon)
	assert.Equal(t, "mbp.local", inv.Hostname)
}

func TestNewRemoteUnsupported(t *testing.T) {
	t.Parallel()

	for _, family := range []platform.Family{platform.WindowsNT, platform.Android, platform.BSD} {
		_, err := NewRemote(family, &runner.Fake{}, testLogger())
		assert.ErrorIs(t, err, ErrRemoteUnsupported, "family %s", family)
	}
}
