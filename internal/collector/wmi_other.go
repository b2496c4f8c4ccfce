//go:build !windows

package collector

import "errors"

var errWMIUnavailable = errors.New("WMI is not available on this platform")

func queryOperatingSystem() (*win32OperatingSystem, error) {
	return nil, errWMIUnavailable
}

func windowsHardware(*HardwareInfo) error {
	return nil
}
