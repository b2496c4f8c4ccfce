// Package platform identifies the operating-system family of the running
// host and guards code that only works on one of them.
package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// Family is a coarse operating-system family.
type Family string

const (
	WindowsNT Family = "windows_nt"
	Darwin    Family = "darwin"
	Linux     Family = "linux"
	BSD       Family = "bsd"
	Unix      Family = "unix"
	Android   Family = "android"
	Other     Family = "other"
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

// UnsupportedPlatformError reports a provider invoked on the wrong host.
type UnsupportedPlatformError struct {
	Want Family
	Got  Family
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("%s: requires %s, running on %s", ErrUnsupportedPlatform, e.Want, e.Got)
}

func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// Current returns the family of the running host.
func Current() Family {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a GOOS value to its family.
func FromGOOS(goos string) Family {
	switch goos {
	case "windows":
		return WindowsNT
	case "darwin", "ios":
		return Darwin
	case "linux":
		return Linux
	case "android":
		return Android
	case "freebsd", "openbsd", "netbsd", "dragonfly":
		return BSD
	case "solaris", "illumos", "aix":
		return Unix
	default:
		return Other
	}
}

// Require returns an *UnsupportedPlatformError unless got is want.
func Require(want, got Family) error {
	if want != got {
		return &UnsupportedPlatformError{Want: want, Got: got}
	}
	return nil
}
