package collector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
	"github.com/go-tangra/go-tangra-osinfo/internal/runner"
	"github.com/go-tangra/go-tangra-osinfo/internal/systeminfo"
)

const windows11FirstBuild = 22000

// currentVersion mirrors the values read from
// HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion.
type currentVersion struct {
	ProductName string
	Major       uint64
	Minor       uint64
	Build       string
	UBR         uint64
}

// win32OperatingSystem is the subset of Win32_OperatingSystem we read.
type win32OperatingSystem struct {
	Caption     string
	Version     string
	BuildNumber string
}

// Windows describes a Windows host from the registry, WMI and the
// systeminfo command.
type Windows struct {
	run  runner.Runner
	log  logrus.FieldLogger
	host platform.Family

	readRegistry func() (*currentVersion, error)
	queryOS      func() (*win32OperatingSystem, error)
}

func NewWindows(run runner.Runner, log logrus.FieldLogger) *Windows {
	return &Windows{
		run:          run,
		log:          log.WithField("provider", "windows"),
		host:         platform.Current(),
		readRegistry: readCurrentVersion,
		queryOS:      queryOperatingSystem,
	}
}

// SystemInfo runs systeminfo and parses its output.
func (w *Windows) SystemInfo(ctx context.Context) (*systeminfo.Info, error) {
	if err := platform.Require(platform.WindowsNT, w.host); err != nil {
		return nil, err
	}

	out, err := w.run.Run(ctx, "cmd", "/c", "systeminfo")
	if err != nil {
		return nil, fmt.Errorf("systeminfo: %w", err)
	}
	return systeminfo.Parse(systeminfo.Decode([]byte(out)))
}

// Extras returns the parsed systeminfo report and its edition. An unknown
// edition is logged and left empty.
func (w *Windows) Extras(ctx context.Context) (*WindowsInfo, error) {
	info, err := w.SystemInfo(ctx)
	if err != nil {
		return nil, err
	}

	edition, err := info.Edition()
	if err != nil {
		w.log.WithField("os_name", info.OSName).Debug("Unrecognized Windows edition")
	}
	return &WindowsInfo{SystemInfo: info, Edition: edition}, nil
}

// OperatingSystemInfo reads the registry first, then WMI, then the
// systeminfo report.
func (w *Windows) OperatingSystemInfo(ctx context.Context) (*OperatingSystemInfo, error) {
	if err := platform.Require(platform.WindowsNT, w.host); err != nil {
		return nil, err
	}

	cv, err := w.readRegistry()
	if err == nil {
		return cv.operatingSystemInfo(), nil
	}
	w.log.WithError(err).Debug("Registry lookup failed, trying WMI")

	wos, err := w.queryOS()
	if err == nil {
		return wos.operatingSystemInfo(), nil
	}
	w.log.WithError(err).Debug("WMI lookup failed, falling back to systeminfo")

	info, err := w.SystemInfo(ctx)
	if err != nil {
		return nil, err
	}
	return windowsInfoFromSystemInfo(info), nil
}

func (cv *currentVersion) operatingSystemInfo() *OperatingSystemInfo {
	version := fmt.Sprintf("%d.%d.%s", cv.Major, cv.Minor, cv.Build)
	build := cv.Build
	if cv.UBR > 0 {
		build = fmt.Sprintf("%s.%d", cv.Build, cv.UBR)
	}
	return &OperatingSystemInfo{
		Name:          windowsProductName(cv.ProductName, cv.Build),
		Version:       version,
		KernelVersion: version,
		Family:        platform.WindowsNT,
		BuildNumber:   build,
	}
}

func (o *win32OperatingSystem) operatingSystemInfo() *OperatingSystemInfo {
	return &OperatingSystemInfo{
		Name:          strings.TrimSpace(o.Caption),
		Version:       o.Version,
		KernelVersion: o.Version,
		Family:        platform.WindowsNT,
		BuildNumber:   o.BuildNumber,
	}
}

func windowsInfoFromSystemInfo(info *systeminfo.Info) *OperatingSystemInfo {
	version := ""
	if fields := strings.Fields(info.OSVersion); len(fields) > 0 {
		version = fields[0]
	}
	build := ""
	if b := info.Build(); b > 0 {
		build = strconv.Itoa(b)
	}
	name := info.OSName
	if info.IsWindows11() {
		name = strings.Replace(name, "Windows 10", "Windows 11", 1)
	}
	return &OperatingSystemInfo{
		Name:          name,
		Version:       version,
		KernelVersion: version,
		Family:        platform.WindowsNT,
		BuildNumber:   build,
	}
}

// windowsProductName corrects the registry ProductName, which still reads
// "Windows 10" on Windows 11 builds.
func windowsProductName(name, build string) string {
	b, err := strconv.Atoi(build)
	if err != nil || b < windows11FirstBuild {
		return name
	}
	return strings.Replace(name, "Windows 10", "Windows 11", 1)
}
