//go:build !windows

package collector

import "errors"

var errRegistryUnavailable = errors.New("windows registry is not available on this platform")

func readCurrentVersion() (*currentVersion, error) {
	return nil, errRegistryUnavailable
}
