//go:build windows

package collector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yusufpapurcu/wmi"
)

type win32Processor struct {
	Name                      string
	Manufacturer              string
	NumberOfCores             uint32
	NumberOfLogicalProcessors uint32
	MaxClockSpeed             uint32
}

type win32ComputerSystem struct {
	Manufacturer        string
	Model               string
	TotalPhysicalMemory uint64
}

type win32BIOS struct {
	SerialNumber string
}

type win32PhysicalMemory struct {
	Capacity      uint64
	Speed         uint32
	Manufacturer  string
	PartNumber    string
	SerialNumber  string
	DeviceLocator string
}

func queryOperatingSystem() (*win32OperatingSystem, error) {
	var dst []win32OperatingSystem
	if err := wmi.Query("SELECT Caption, Version, BuildNumber FROM Win32_OperatingSystem", &dst); err != nil {
		return nil, fmt.Errorf("Win32_OperatingSystem: %w", err)
	}
	if len(dst) == 0 {
		return nil, errors.New("Win32_OperatingSystem: no rows")
	}
	return &dst[0], nil
}

// windowsHardware fills the fields SMBIOS leaves empty from
// Win32_ComputerSystem, Win32_BIOS, Win32_Processor and
// Win32_PhysicalMemory.
func windowsHardware(hw *HardwareInfo) error {
	var errs []error

	var cs []win32ComputerSystem
	if err := wmi.Query("SELECT Manufacturer, Model, TotalPhysicalMemory FROM Win32_ComputerSystem", &cs); err != nil {
		errs = append(errs, fmt.Errorf("Win32_ComputerSystem: %w", err))
	} else if len(cs) > 0 {
		setIfEmpty(&hw.System.Manufacturer, cs[0].Manufacturer)
		setIfEmpty(&hw.System.Model, cs[0].Model)
		if hw.Memory.TotalPhysicalBytes == 0 {
			hw.Memory.TotalPhysicalBytes = cs[0].TotalPhysicalMemory
		}
	}

	var bios []win32BIOS
	if err := wmi.Query("SELECT SerialNumber FROM Win32_BIOS", &bios); err != nil {
		errs = append(errs, fmt.Errorf("Win32_BIOS: %w", err))
	} else if len(bios) > 0 {
		setIfEmpty(&hw.System.SerialNumber, bios[0].SerialNumber)
	}

	var procs []win32Processor
	q := "SELECT Name, Manufacturer, NumberOfCores, NumberOfLogicalProcessors, MaxClockSpeed FROM Win32_Processor"
	if err := wmi.Query(q, &procs); err != nil {
		errs = append(errs, fmt.Errorf("Win32_Processor: %w", err))
	} else {
		for i, p := range procs {
			if i >= len(hw.CPU) {
				hw.CPU = append(hw.CPU, CPUInfo{})
			}
			c := &hw.CPU[i]
			setIfEmpty(&c.Name, strings.TrimSpace(p.Name))
			setIfEmpty(&c.Manufacturer, p.Manufacturer)
			c.NumberOfCores = p.NumberOfCores
			c.NumberOfLogicalProcessors = p.NumberOfLogicalProcessors
			c.MaxClockSpeedMHz = p.MaxClockSpeed
		}
	}

	var pm []win32PhysicalMemory
	if err := wmi.Query("SELECT Capacity, Speed, Manufacturer, PartNumber, SerialNumber, DeviceLocator FROM Win32_PhysicalMemory", &pm); err != nil {
		errs = append(errs, fmt.Errorf("Win32_PhysicalMemory: %w", err))
	} else {
		hw.Memory.Modules = make([]MemoryModule, len(pm))
		for i, m := range pm {
			hw.Memory.Modules[i] = MemoryModule{
				CapacityBytes: m.Capacity,
				SpeedMHz:      m.Speed,
				Manufacturer:  strings.TrimSpace(m.Manufacturer),
				PartNumber:    strings.TrimSpace(m.PartNumber),
				SerialNumber:  strings.TrimSpace(m.SerialNumber),
				DeviceLocator: m.DeviceLocator,
			}
		}
	}

	return errors.Join(errs...)
}
