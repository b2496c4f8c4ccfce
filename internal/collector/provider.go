package collector

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
	"github.com/go-tangra/go-tangra-osinfo/internal/runner"
)

// Provider describes the operating system of the running host.
type Provider interface {
	OperatingSystemInfo(ctx context.Context) (*OperatingSystemInfo, error)
}

// NewProvider returns the provider for family. Families without a
// dedicated provider fall back to the gopsutil host view.
func NewProvider(family platform.Family, run runner.Runner, log logrus.FieldLogger) Provider {
	switch family {
	case platform.WindowsNT:
		return NewWindows(run, log)
	case platform.Darwin:
		return NewDarwin(run, log)
	case platform.Linux:
		return NewLinux(run, log)
	case platform.Android:
		return NewAndroid(run, log)
	default:
		return NewGeneric(log)
	}
}
