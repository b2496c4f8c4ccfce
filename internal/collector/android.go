package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
	"github.com/go-tangra/go-tangra-osinfo/internal/runner"
)

// Android describes an Android device from getprop and uname.
type Android struct {
	run  runner.Runner
	log  logrus.FieldLogger
	host platform.Family
}

func NewAndroid(run runner.Runner, log logrus.FieldLogger) *Android {
	return &Android{
		run:  run,
		log:  log.WithField("provider", "android"),
		host: platform.Current(),
	}
}

func (a *Android) OperatingSystemInfo(ctx context.Context) (*OperatingSystemInfo, error) {
	if err := platform.Require(platform.Android, a.host); err != nil {
		return nil, err
	}

	name, err := a.output(ctx, "uname", "-o")
	if err != nil {
		return nil, err
	}
	kernel, err := a.output(ctx, "uname", "-r")
	if err != nil {
		return nil, err
	}
	version, err := a.prop(ctx, "ro.build.version.release")
	if err != nil {
		return nil, err
	}
	description, err := a.prop(ctx, "ro.build.description")
	if err != nil {
		return nil, err
	}

	// e.g. "panther-user 14 UQ1A.240105.004 11206848 release-keys"
	build := ""
	if fields := strings.Fields(description); len(fields) > 3 {
		build = fields[3]
	}

	return &OperatingSystemInfo{
		Name:          name,
		Version:       version,
		KernelVersion: kernel,
		Family:        platform.Android,
		BuildNumber:   build,
	}, nil
}

// Extras reads the codename, SDK level and device model. Missing
// properties are left empty.
func (a *Android) Extras(ctx context.Context) (*AndroidInfo, error) {
	if err := platform.Require(platform.Android, a.host); err != nil {
		return nil, err
	}

	info := &AndroidInfo{}
	for prop, dst := range map[string]*string{
		"ro.build.version.codename": &info.Codename,
		"ro.build.version.sdk":      &info.SDKLevel,
		"ro.product.model":          &info.DeviceModel,
	} {
		v, err := a.prop(ctx, prop)
		if err != nil {
			a.log.WithError(err).WithField("property", prop).Debug("getprop failed")
			continue
		}
		*dst = v
	}
	return info, nil
}

func (a *Android) prop(ctx context.Context, name string) (string, error) {
	return a.output(ctx, "getprop", name)
}

func (a *Android) output(ctx context.Context, name string, args ...string) (string, error) {
	out, err := a.run.Run(ctx, name, args...)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return strings.TrimSpace(out), nil
}
