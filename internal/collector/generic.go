package collector

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/sirupsen/logrus"

	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
)

// Generic describes hosts without a dedicated provider through gopsutil.
type Generic struct {
	log  logrus.FieldLogger
	info func(context.Context) (*host.InfoStat, error)
}

func NewGeneric(log logrus.FieldLogger) *Generic {
	return &Generic{
		log:  log.WithField("provider", "generic"),
		info: host.InfoWithContext,
	}
}

func (g *Generic) OperatingSystemInfo(ctx context.Context) (*OperatingSystemInfo, error) {
	h, err := g.info(ctx)
	if err != nil {
		return nil, fmt.Errorf("host info: %w", err)
	}

	name := h.Platform
	if name == "" {
		name = h.OS
	}
	return &OperatingSystemInfo{
		Name:          name,
		Version:       h.PlatformVersion,
		KernelVersion: h.KernelVersion,
		Family:        platform.FromGOOS(h.OS),
		BuildNumber:   h.PlatformVersion,
	}, nil
}
