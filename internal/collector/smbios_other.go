//go:build !linux && !windows

package collector

import "errors"

var errSMBIOSUnavailable = errors.New("SMBIOS tables are not readable on this platform")

func readSMBIOS(*HardwareInfo) error {
	return errSMBIOSUnavailable
}
