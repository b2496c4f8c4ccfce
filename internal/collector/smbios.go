//go:build linux || windows

package collector

import "github.com/siderolabs/go-smbios/smbios"

func readSMBIOS(hw *HardwareInfo) error {
	s, err := smbios.New()
	if err != nil {
		return err
	}

	hw.BIOS = BIOSInfo{
		Vendor:      s.BIOSInformation.Vendor,
		Version:     s.BIOSInformation.Version,
		ReleaseDate: s.BIOSInformation.ReleaseDate,
	}
	hw.System = SystemInfo{
		Manufacturer: s.SystemInformation.Manufacturer,
		Model:        s.SystemInformation.ProductName,
		SerialNumber: s.SystemInformation.SerialNumber,
		UUID:         s.SystemInformation.UUID,
		Family:       s.SystemInformation.Family,
	}
	hw.Baseboard = BoardInfo{
		Manufacturer: s.BaseboardInformation.Manufacturer,
		Product:      s.BaseboardInformation.Product,
		SerialNumber: s.BaseboardInformation.SerialNumber,
	}

	for _, p := range s.ProcessorInformation {
		if p.ProcessorVersion == "" {
			continue // empty socket
		}
		hw.CPU = append(hw.CPU, CPUInfo{
			Socket:                    p.SocketDesignation,
			Name:                      p.ProcessorVersion,
			Manufacturer:              p.ProcessorManufacturer,
			NumberOfCores:             uint32(p.CoreCount),
			NumberOfLogicalProcessors: uint32(p.ThreadCount),
			MaxClockSpeedMHz:          uint32(p.MaxSpeed),
		})
	}
	return nil
}
