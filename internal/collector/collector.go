// Package collector gathers operating-system facts and a hardware roster
// from the local host, or operating-system facts alone from a remote one.
package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
	"github.com/go-tangra/go-tangra-osinfo/internal/runner"
)

// Collector builds an Inventory for one platform family.
type Collector struct {
	log    logrus.FieldLogger
	family platform.Family

	provider Provider
	windows  *Windows
	darwin   *Darwin
	android  *Android

	hardware func() (HardwareInfo, error)
	hostname func(ctx context.Context) (string, error)
}

// ErrRemoteUnsupported is returned by NewRemote for families whose
// providers read local APIs such as the registry or WMI.
var ErrRemoteUnsupported = errors.New("remote collection not supported")

// New returns a Collector for the running host.
func New(run runner.Runner, log logrus.FieldLogger) *Collector {
	return NewForFamily(platform.Current(), run, log)
}

// NewForFamily returns a Collector whose providers target family.
func NewForFamily(family platform.Family, run runner.Runner, log logrus.FieldLogger) *Collector {
	log = log.WithField("package", "collector")

	c := &Collector{
		log:      log,
		family:   family,
		provider: NewProvider(family, run, log),
		hardware: collectHardware,
		hostname: func(context.Context) (string, error) { return os.Hostname() },
	}
	switch p := c.provider.(type) {
	case *Windows:
		c.windows = p
	case *Darwin:
		c.darwin = p
	case *Android:
		c.android = p
	}
	return c
}

// NewRemote returns a Collector for a family-typed host reached through
// run, typically an SSH runner. Only Linux and Darwin are supported. The
// hardware roster is left empty since it reads local firmware tables.
func NewRemote(family platform.Family, run runner.Runner, log logrus.FieldLogger) (*Collector, error) {
	c := NewForFamily(family, run, log)
	switch p := c.provider.(type) {
	case *Linux:
		p.host, p.remote = family, true
	case *Darwin:
		p.host, p.remote = family, true
	default:
		return nil, fmt.Errorf("%s: %w", family, ErrRemoteUnsupported)
	}

	c.hardware = func() (HardwareInfo, error) { return HardwareInfo{}, nil }
	c.hostname = func(ctx context.Context) (string, error) {
		out, err := run.Run(ctx, "hostname")
		return strings.TrimSpace(out), err
	}
	return c, nil
}

// Collect runs the OS provider, the platform extras and the hardware
// sources concurrently. It attempts all of them and returns partial
// results alongside any errors.
func (c *Collector) Collect(ctx context.Context) (*Inventory, error) {
	hostname, err := c.hostname(ctx)
	if err != nil {
		c.log.WithError(err).Warn("Hostname unavailable")
	}

	inv := &Inventory{
		CollectedAt: time.Now().UTC(),
		Hostname:    hostname,
		OS:          OperatingSystemInfo{Family: c.family},
	}

	var osErr, extrasErr, hwErr error
	var g errgroup.Group

	g.Go(func() error {
		info, err := c.provider.OperatingSystemInfo(ctx)
		if err != nil {
			osErr = fmt.Errorf("os: %w", err)
			return nil
		}
		inv.OS = *info
		return nil
	})

	g.Go(func() error {
		extrasErr = c.collectExtras(ctx, inv)
		return nil
	})

	g.Go(func() error {
		hw, err := c.hardware()
		inv.Hardware = hw
		if err != nil {
			hwErr = fmt.Errorf("hardware: %w", err)
		}
		return nil
	})

	_ = g.Wait()

	if err := errors.Join(osErr, extrasErr, hwErr); err != nil {
		c.log.WithError(err).Warn("Collection finished with errors")
		return inv, fmt.Errorf("collection errors: %w", err)
	}

	c.log.WithField("hostname", inv.Hostname).Debug("Collection finished")
	return inv, nil
}

func (c *Collector) collectExtras(ctx context.Context, inv *Inventory) error {
	switch {
	case c.windows != nil:
		info, err := c.windows.Extras(ctx)
		if err != nil {
			return fmt.Errorf("windows: %w", err)
		}
		inv.Windows = info
	case c.darwin != nil:
		info, err := c.darwin.SystemInfo(ctx)
		if err != nil {
			return fmt.Errorf("darwin: %w", err)
		}
		inv.Darwin = info
	case c.android != nil:
		info, err := c.android.Extras(ctx)
		if err != nil {
			return fmt.Errorf("android: %w", err)
		}
		inv.Android = info
	}
	return nil
}
