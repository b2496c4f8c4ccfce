package collector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
	"github.com/go-tangra/go-tangra-osinfo/internal/runner"
)

// ErrKeyNotFound is returned when a system_profiler report has no line for
// the requested key.
var ErrKeyNotFound = errors.New("key not found")

// Darwin describes a macOS host from sw_vers, uname and system_profiler.
type Darwin struct {
	run  runner.Runner
	log  logrus.FieldLogger
	host   platform.Family
	arch   string
	remote bool
}

func NewDarwin(run runner.Runner, log logrus.FieldLogger) *Darwin {
	return &Darwin{
		run:  run,
		log:  log.WithField("provider", "darwin"),
		host: platform.Current(),
		arch: runtime.GOARCH,
	}
}

func (d *Darwin) OperatingSystemInfo(ctx context.Context) (*OperatingSystemInfo, error) {
	info, err := d.SystemInfo(ctx)
	if err != nil {
		return nil, err
	}
	return &OperatingSystemInfo{
		Name:          info.ProductName,
		Version:       info.MacOSVersion,
		KernelVersion: info.DarwinVersion,
		Family:        platform.Darwin,
		BuildNumber:   info.BuildNumber,
	}, nil
}

// SystemInfo collects the macOS, Darwin and XNU versions.
func (d *Darwin) SystemInfo(ctx context.Context) (*DarwinInfo, error) {
	if err := platform.Require(platform.Darwin, d.host); err != nil {
		return nil, err
	}

	out, err := d.run.Run(ctx, "sw_vers")
	if err != nil {
		return nil, fmt.Errorf("sw_vers: %w", err)
	}
	vers := parseColonPairs(out)

	release, err := d.run.Run(ctx, "uname", "-r")
	if err != nil {
		return nil, fmt.Errorf("uname -r: %w", err)
	}

	kernel, err := d.run.Run(ctx, "uname", "-v")
	if err != nil {
		return nil, fmt.Errorf("uname -v: %w", err)
	}
	xnu, err := parseXNUVersion(kernel)
	if err != nil {
		return nil, err
	}

	arch := d.arch
	if d.remote {
		machine, err := d.run.Run(ctx, "uname", "-m")
		if err != nil {
			return nil, fmt.Errorf("uname -m: %w", err)
		}
		arch = strings.TrimSpace(machine)
	}

	return &DarwinInfo{
		ProductName:   vers["ProductName"],
		MacOSVersion:  vers["ProductVersion"],
		BuildNumber:   vers["BuildVersion"],
		DarwinVersion: strings.TrimSpace(release),
		XNUVersion:    xnu,
		AppleSilicon:  arch == "arm64",
	}, nil
}

// SystemProfilerValue runs system_profiler for dataType and returns the
// value of the first line whose key matches, case-insensitively. The "SP"
// prefix of the data type is optional.
func (d *Darwin) SystemProfilerValue(ctx context.Context, dataType, key string) (string, error) {
	if err := platform.Require(platform.Darwin, d.host); err != nil {
		return "", err
	}
	if !strings.HasPrefix(dataType, "SP") {
		dataType = "SP" + dataType
	}

	out, err := d.run.Run(ctx, "system_profiler", dataType)
	if err != nil {
		return "", fmt.Errorf("system_profiler %s: %w", dataType, err)
	}

	want := strings.ToLower(key)
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		k, v, ok := strings.Cut(sc.Text(), ":")
		if ok && strings.ToLower(strings.TrimSpace(k)) == want {
			return strings.TrimSpace(v), nil
		}
	}
	return "", fmt.Errorf("system_profiler %s %q: %w", dataType, key, ErrKeyNotFound)
}

// parseXNUVersion extracts "10063.101.17.1" from a kernel version string
// such as "... root:xnu-10063.101.17~1/RELEASE_ARM64_T6000".
func parseXNUVersion(kernel string) (string, error) {
	for _, field := range strings.Fields(kernel) {
		rest, ok := strings.CutPrefix(strings.ToLower(field), "root:xnu-")
		if !ok {
			continue
		}
		rest, _, _ = strings.Cut(rest, "/")
		return strings.ReplaceAll(rest, "~", "."), nil
	}
	return "", fmt.Errorf("no xnu version in %q", strings.TrimSpace(kernel))
}

// parseColonPairs reads "Key: value" lines, the format of sw_vers.
func parseColonPairs(out string) map[string]string {
	pairs := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		k, v, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		pairs[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return pairs
}
