package collector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
	"github.com/go-tangra/go-tangra-osinfo/internal/runner"
)

const defaultOSReleasePath = "/etc/os-release"

var versionNumber = regexp.MustCompile(`\d+(\.\d+)*`)

// Linux describes a Linux host from os-release and uname.
type Linux struct {
	run           runner.Runner
	log           logrus.FieldLogger
	host          platform.Family
	osReleasePath string
	remote        bool
}

func NewLinux(run runner.Runner, log logrus.FieldLogger) *Linux {
	return &Linux{
		run:           run,
		log:           log.WithField("provider", "linux"),
		host:          platform.Current(),
		osReleasePath: defaultOSReleasePath,
	}
}

func (l *Linux) OperatingSystemInfo(ctx context.Context) (*OperatingSystemInfo, error) {
	if err := platform.Require(platform.Linux, l.host); err != nil {
		return nil, err
	}

	release, err := l.osRelease(ctx)
	if err != nil {
		return nil, err
	}

	kernel, err := l.run.Run(ctx, "uname", "-r")
	if err != nil {
		return nil, fmt.Errorf("uname -r: %w", err)
	}

	name := release["PRETTY_NAME"]
	if name == "" {
		name = release["NAME"]
	}

	version := versionNumber.FindString(release["VERSION"])
	if version == "" {
		version = release["VERSION_ID"]
	}

	return &OperatingSystemInfo{
		Name:          name,
		Version:       version,
		KernelVersion: strings.TrimSpace(kernel),
		Family:        platform.Linux,
		BuildNumber:   release["VERSION_ID"],
	}, nil
}

// osRelease reads the os-release file directly, or through the runner
// when the runner is bound to another machine.
func (l *Linux) osRelease(ctx context.Context) (map[string]string, error) {
	if l.remote {
		out, err := l.run.Run(ctx, "cat", l.osReleasePath)
		if err != nil {
			return nil, fmt.Errorf("cat os-release: %w", err)
		}
		return parseOSRelease(strings.NewReader(out))
	}

	f, err := os.Open(l.osReleasePath)
	if err != nil {
		return nil, fmt.Errorf("open os-release: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			l.log.WithError(closeErr).Warn("Failed to close os-release")
		}
	}()

	release, err := parseOSRelease(f)
	if err != nil {
		return nil, fmt.Errorf("read os-release: %w", err)
	}
	return release, nil
}

// parseOSRelease reads KEY=value pairs, unquoting values and skipping
// comments.
func parseOSRelease(r io.Reader) (map[string]string, error) {
	fields := make(map[string]string)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[k] = strings.Trim(v, `"'`)
	}
	return fields, sc.Err()
}
