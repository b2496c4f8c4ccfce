//go:build windows

package collector

import (
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const currentVersionKey = `SOFTWARE\Microsoft\Windows NT\CurrentVersion`

func readCurrentVersion() (*currentVersion, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, currentVersionKey, registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", currentVersionKey, err)
	}
	defer k.Close()

	cv := &currentVersion{}
	if cv.ProductName, _, err = k.GetStringValue("ProductName"); err != nil {
		return nil, fmt.Errorf("ProductName: %w", err)
	}
	if cv.Major, _, err = k.GetIntegerValue("CurrentMajorVersionNumber"); err != nil {
		return nil, fmt.Errorf("CurrentMajorVersionNumber: %w", err)
	}
	if cv.Minor, _, err = k.GetIntegerValue("CurrentMinorVersionNumber"); err != nil {
		return nil, fmt.Errorf("CurrentMinorVersionNumber: %w", err)
	}
	if cv.Build, _, err = k.GetStringValue("CurrentBuild"); err != nil {
		return nil, fmt.Errorf("CurrentBuild: %w", err)
	}
	// UBR is absent on older releases.
	cv.UBR, _, _ = k.GetIntegerValue("UBR")

	return cv, nil
}
