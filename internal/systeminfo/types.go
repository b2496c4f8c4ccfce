package systeminfo

import "time"

// Info holds the fields recovered from Windows systeminfo output.
type Info struct {
	HostName               string    `json:"host_name"`
	OSName                 string    `json:"os_name"`
	OSVersion              string    `json:"os_version"`
	OSManufacturer         string    `json:"os_manufacturer"`
	OSConfiguration        string    `json:"os_configuration"`
	OSBuildType            string    `json:"os_build_type"`
	RegisteredOwner        string    `json:"registered_owner"`
	RegisteredOrganization string    `json:"registered_organization"`
	ProductID              string    `json:"product_id"`
	OriginalInstallDate    time.Time `json:"original_install_date"`
	SystemBootTime         time.Time `json:"system_boot_time"`
	SystemManufacturer     string    `json:"system_manufacturer"`
	SystemModel            string    `json:"system_model"`
	SystemType             string    `json:"system_type"`
	Processors             []string  `json:"processors"`
	BIOSVersion            string    `json:"bios_version"`
	WindowsDirectory       string    `json:"windows_directory"`
	SystemDirectory        string    `json:"system_directory"`
	BootDevice             string    `json:"boot_device"`
	SystemLocale           string    `json:"system_locale"`
	InputLocale            string    `json:"input_locale"`
	TimeZone               string    `json:"time_zone"`

	TotalPhysicalMemoryMB     int64 `json:"total_physical_memory_mb"`
	AvailablePhysicalMemoryMB int64 `json:"available_physical_memory_mb"`
	VirtualMemoryMaxSizeMB    int64 `json:"virtual_memory_max_size_mb"`
	VirtualMemoryAvailableMB  int64 `json:"virtual_memory_available_mb"`
	VirtualMemoryInUseMB      int64 `json:"virtual_memory_in_use_mb"`

	PageFileLocations []string           `json:"page_file_locations"`
	Domain            string             `json:"domain"`
	LogonServer       string             `json:"logon_server"`
	Hotfixes          []string           `json:"hotfixes"`
	NetworkAdapters   []NetworkAdapter   `json:"network_adapters"`
	HyperV            HyperVRequirements `json:"hyperv_requirements"`
}

// NetworkAdapter is one entry of the "Network Card(s)" block.
type NetworkAdapter struct {
	Name           string   `json:"name"`
	ConnectionName string   `json:"connection_name"`
	DHCPEnabled    bool     `json:"dhcp_enabled"`
	DHCPServer     string   `json:"dhcp_server,omitempty"`
	Status         string   `json:"status,omitempty"`
	IPAddresses    []string `json:"ip_addresses"`
}

// HyperVRequirements mirrors the trailing "Hyper-V Requirements" block.
// HypervisorDetected is set instead of the four checks when Windows is
// already running under a hypervisor.
type HyperVRequirements struct {
	VMMonitorModeExtensions          bool `json:"vm_monitor_mode_extensions"`
	VirtualizationEnabledInFirmware  bool `json:"virtualization_enabled_in_firmware"`
	SecondLevelAddressTranslation    bool `json:"second_level_address_translation"`
	DataExecutionPreventionAvailable bool `json:"data_execution_prevention_available"`
	HypervisorDetected               bool `json:"hypervisor_detected"`
}
