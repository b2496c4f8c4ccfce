package systeminfo

import (
	"errors"
	"strconv"
	"strings"
)

// Edition is the Windows product edition derived from the OS name.
type Edition string

const (
	EditionHome                        Edition = "Home"
	EditionProfessional                Edition = "Professional"
	EditionProfessionalForWorkstations Edition = "ProfessionalForWorkstations"
	EditionProfessionalForEducation    Edition = "ProfessionalForEducation"
	EditionEducation                   Edition = "Education"
	EditionServer                      Edition = "Server"
	EditionEnterpriseLTSC              Edition = "EnterpriseLTSC"
	EditionEnterpriseSemiAnnualChannel Edition = "EnterpriseSemiAnnualChannel"
	EditionIoTEnterpriseLTSC           Edition = "IoTEnterpriseLTSC"
	EditionIoTEnterprise               Edition = "IoTEnterprise"
	EditionIoTCore                     Edition = "IoTCore"
	EditionTeam                        Edition = "Team"
	EditionSE                          Edition = "SE"
)

// ErrEditionUnknown is returned when the OS name matches no known edition.
var ErrEditionUnknown = errors.New("systeminfo: unknown windows edition")

const (
	windows11FirstBuild = 22000
	windows11LastBuild  = 29000
)

// Edition classifies OSName. Rules are checked in order, so "Pro" editions
// are recognized before the enterprise families.
func (in *Info) Edition() (Edition, error) {
	name := strings.ToLower(in.OSName)
	has := func(s string) bool { return strings.Contains(name, s) }

	switch {
	case has("home"):
		return EditionHome, nil
	case has("pro") && has("workstation"):
		return EditionProfessionalForWorkstations, nil
	case has("pro") && !has("education"):
		return EditionProfessional, nil
	case has("pro") && has("education"):
		return EditionProfessionalForEducation, nil
	case has("education"):
		return EditionEducation, nil
	case has("server"):
		return EditionServer, nil
	case has("enterprise") && has("ltsc") && !has("iot"):
		return EditionEnterpriseLTSC, nil
	case has("enterprise") && !has("ltsc") && !has("iot"):
		return EditionEnterpriseSemiAnnualChannel, nil
	case has("enterprise") && has("ltsc") && has("iot"):
		return EditionIoTEnterpriseLTSC, nil
	case has("enterprise") && has("iot"):
		return EditionIoTEnterprise, nil
	case has("iot") && has("core"):
		return EditionIoTCore, nil
	case has("team"):
		return EditionTeam, nil
	case in.Build() >= windows11FirstBuild && has("se"):
		return EditionSE, nil
	}
	return "", ErrEditionUnknown
}

// Build returns the build number from OSVersion, e.g. 22631 for
// "10.0.22631 N/A Build 22631", or 0 when it cannot be read.
func (in *Info) Build() int {
	fields := strings.Fields(in.OSVersion)
	if len(fields) == 0 {
		return 0
	}
	parts := strings.Split(fields[0], ".")
	if len(parts) < 3 {
		return 0
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return n
}

// IsWindows11 reports whether the build falls in the Windows 11 range.
func (in *Info) IsWindows11() bool {
	b := in.Build()
	return b >= windows11FirstBuild && b < windows11LastBuild
}
