package collector

import (
	"errors"
	"fmt"
	"strings"
)

// collectHardware merges SMBIOS tables with the platform sources: sysfs
// on Linux and WMI on Windows. A failing source leaves its fields empty.
func collectHardware() (HardwareInfo, error) {
	var hw HardwareInfo
	var errs []error

	if err := readSMBIOS(&hw); err != nil {
		errs = append(errs, fmt.Errorf("smbios: %w", err))
	}
	readNode(&hw)
	if err := windowsHardware(&hw); err != nil {
		errs = append(errs, fmt.Errorf("wmi: %w", err))
	}

	return hw, errors.Join(errs...)
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}
