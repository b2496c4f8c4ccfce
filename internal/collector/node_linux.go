//go:build linux

package collector

import "github.com/zcalusic/sysinfo"

// readNode fills node details and any hardware fields SMBIOS left empty
// from sysfs.
func readNode(hw *HardwareInfo) {
	var si sysinfo.SysInfo
	si.GetSysInfo()

	hw.Node = NodeInfo{
		Hypervisor:   si.Node.Hypervisor,
		Timezone:     si.Node.Timezone,
		Architecture: si.OS.Architecture,
	}

	setIfEmpty(&hw.BIOS.Vendor, si.BIOS.Vendor)
	setIfEmpty(&hw.BIOS.Version, si.BIOS.Version)
	setIfEmpty(&hw.BIOS.ReleaseDate, si.BIOS.Date)
	setIfEmpty(&hw.System.Manufacturer, si.Product.Vendor)
	setIfEmpty(&hw.System.Model, si.Product.Name)
	setIfEmpty(&hw.System.SerialNumber, si.Product.Serial)
	setIfEmpty(&hw.Baseboard.Manufacturer, si.Board.Vendor)
	setIfEmpty(&hw.Baseboard.Product, si.Board.Name)
	setIfEmpty(&hw.Baseboard.SerialNumber, si.Board.Serial)

	if hw.Memory.TotalPhysicalBytes == 0 {
		hw.Memory.TotalPhysicalBytes = uint64(si.Memory.Size) * 1024 * 1024
	}
	hw.Memory.Type = si.Memory.Type
	hw.Memory.SpeedMTs = si.Memory.Speed

	if len(hw.CPU) == 0 && si.CPU.Model != "" {
		hw.CPU = []CPUInfo{{
			Name:                      si.CPU.Model,
			Manufacturer:              si.CPU.Vendor,
			NumberOfCores:             uint32(si.CPU.Cores),
			NumberOfLogicalProcessors: uint32(si.CPU.Threads),
			MaxClockSpeedMHz:          uint32(si.CPU.Speed),
		}}
	}
}
