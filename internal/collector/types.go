package collector

import (
	"time"

	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
	"github.com/go-tangra/go-tangra-osinfo/internal/systeminfo"
)

// Inventory holds the operating-system facts and hardware roster of a host.
type Inventory struct {
	CollectedAt time.Time           `json:"collected_at"`
	Hostname    string              `json:"hostname"`
	OS          OperatingSystemInfo `json:"os"`
	Hardware    HardwareInfo        `json:"hardware"`

	// Platform extras; at most one is set.
	Windows *WindowsInfo `json:"windows,omitempty"`
	Darwin  *DarwinInfo  `json:"darwin,omitempty"`
	Android *AndroidInfo `json:"android,omitempty"`
}

// OperatingSystemInfo is the common description every provider returns.
type OperatingSystemInfo struct {
	Name          string          `json:"name"`
	Version       string          `json:"version"`
	KernelVersion string          `json:"kernel_version"`
	Family        platform.Family `json:"family"`
	BuildNumber   string          `json:"build_number"`
}

// WindowsInfo is the parsed systeminfo report plus the derived edition.
type WindowsInfo struct {
	SystemInfo *systeminfo.Info   `json:"systeminfo"`
	Edition    systeminfo.Edition `json:"edition,omitempty"`
}

// DarwinInfo holds macOS-specific versions.
type DarwinInfo struct {
	ProductName   string `json:"product_name"`
	MacOSVersion  string `json:"macos_version"`
	BuildNumber   string `json:"build_number"`
	DarwinVersion string `json:"darwin_version"`
	XNUVersion    string `json:"xnu_version"`
	AppleSilicon  bool   `json:"apple_silicon"`
}

// AndroidInfo holds build properties that have no place in
// OperatingSystemInfo.
type AndroidInfo struct {
	Codename    string `json:"codename,omitempty"`
	SDKLevel    string `json:"sdk_level,omitempty"`
	DeviceModel string `json:"device_model,omitempty"`
}

// HardwareInfo is assembled from SMBIOS tables, WMI on Windows and
// sysfs on Linux. Sources fill in what they know; nothing is required.
type HardwareInfo struct {
	BIOS      BIOSInfo   `json:"bios"`
	System    SystemInfo `json:"system"`
	Baseboard BoardInfo  `json:"baseboard"`
	CPU       []CPUInfo  `json:"cpu"`
	Memory    MemoryInfo `json:"memory"`
	Node      NodeInfo   `json:"node"`
}

type BIOSInfo struct {
	Vendor      string `json:"vendor,omitempty"`
	Version     string `json:"version,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// SystemInfo holds computer manufacturer, model, and serial number.
type SystemInfo struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
	UUID         string `json:"uuid,omitempty"`
	Family       string `json:"family,omitempty"`
}

type BoardInfo struct {
	Manufacturer string `json:"manufacturer,omitempty"`
	Product      string `json:"product,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// CPUInfo holds processor details.
type CPUInfo struct {
	Socket                    string `json:"socket,omitempty"`
	Name                      string `json:"name"`
	Manufacturer              string `json:"manufacturer"`
	NumberOfCores             uint32 `json:"cores,omitempty"`
	NumberOfLogicalProcessors uint32 `json:"logical_processors,omitempty"`
	MaxClockSpeedMHz          uint32 `json:"max_clock_speed_mhz,omitempty"`
}

// MemoryInfo holds total physical memory and per-module details.
type MemoryInfo struct {
	TotalPhysicalBytes uint64         `json:"total_physical_bytes"`
	Type               string         `json:"type,omitempty"`
	SpeedMTs           uint           `json:"speed_mts,omitempty"`
	Modules            []MemoryModule `json:"modules,omitempty"`
}

// MemoryModule holds details for a single physical memory DIMM.
type MemoryModule struct {
	CapacityBytes uint64 `json:"capacity_bytes"`
	SpeedMHz      uint32 `json:"speed_mhz"`
	Manufacturer  string `json:"manufacturer"`
	PartNumber    string `json:"part_number"`
	SerialNumber  string `json:"serial_number"`
	DeviceLocator string `json:"device_locator"`
}

// NodeInfo is the Linux node view: hypervisor, timezone and architecture.
type NodeInfo struct {
	Hypervisor   string `json:"hypervisor,omitempty"`
	Timezone     string `json:"timezone,omitempty"`
	Architecture string `json:"architecture,omitempty"`
}
