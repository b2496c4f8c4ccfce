// Package systeminfo parses the text printed by the Windows systeminfo
// command into a typed record.
//
// The output is a list of indented "Label: value" lines. Some values continue
// on later lines as "[nn]: value" entries with no label of their own, and
// their meaning depends on the section they follow. Parse runs one forward
// pass that tracks the current section and assembles processors, hotfixes,
// page-file locations and network adapters as it goes.
//
// Scanning stops at the "Data Execution Prevention Available" line, the last
// field of the known layout. Anything printed after it is ignored.
package systeminfo

import (
	"strconv"
	"strings"
)

type section int

const (
	sectionNone section = iota
	sectionProcessors
	sectionNetworkAdapter
)

// Fixed offsets into the known layout, relative to the scanner index. The
// label being classified sits at index+1, so its first continuation line
// sits at index+2:
//
//	Network Card(s):      2 NIC(s) Installed.
//	                      [01]: Intel(R) Ethernet Connection I219-V
//
//	Hotfix(s):            3 Hotfix(s) Installed.
//	                      [01]: KB5030219
const (
	adapterNameOffset = 2
	hotfixOffset      = 2
	pageFileOffset    = 2
)

type handler func(s *scanner, i, n int, label string) (stop bool, err error)

type rule struct {
	label   string
	exclude string
	handle  handler
}

// rules are evaluated in order and the first match wins. Bracketed
// continuation lines are matched between the adapter fields and the
// Hyper-V block.
var rules = []rule{
	{label: "host name:", handle: text(func(in *Info, v string) { in.HostName = v })},
	{label: "os name:", handle: text(func(in *Info, v string) { in.OSName = v })},
	{label: "os version:", exclude: "bios", handle: text(func(in *Info, v string) { in.OSVersion = v })},
	{label: "os manufacturer:", handle: text(func(in *Info, v string) { in.OSManufacturer = v })},
	{label: "os configuration:", handle: text(func(in *Info, v string) { in.OSConfiguration = v })},
	{label: "os build type:", handle: text(func(in *Info, v string) { in.OSBuildType = v })},
	{label: "registered owner:", handle: text(func(in *Info, v string) { in.RegisteredOwner = v })},
	{label: "registered organization:", handle: text(func(in *Info, v string) { in.RegisteredOrganization = v })},
	{label: "product id:", handle: text(func(in *Info, v string) { in.ProductID = v })},
	{label: "original install date:", handle: handleInstallDate},
	{label: "system boot time:", handle: handleBootTime},
	{label: "system manufacturer:", handle: text(func(in *Info, v string) { in.SystemManufacturer = v })},
	{label: "system model:", handle: text(func(in *Info, v string) { in.SystemModel = v })},
	{label: "system type:", handle: text(func(in *Info, v string) { in.SystemType = v })},
	{label: "processor(s):", handle: handleProcessors},
	{label: "bios version:", handle: text(func(in *Info, v string) { in.BIOSVersion = v })},
	{label: "windows directory:", handle: text(func(in *Info, v string) { in.WindowsDirectory = v })},
	{label: "system directory:", handle: text(func(in *Info, v string) { in.SystemDirectory = v })},
	{label: "boot device:", handle: text(func(in *Info, v string) { in.BootDevice = v })},
	{label: "system locale:", handle: text(func(in *Info, v string) { in.SystemLocale = v })},
	{label: "input locale:", handle: text(func(in *Info, v string) { in.InputLocale = v })},
	{label: "time zone:", handle: text(func(in *Info, v string) { in.TimeZone = v })},
	{label: "memory:", handle: handleMemory},
	{label: "page file location(s):", handle: handlePageFiles},
	{label: "domain:", handle: text(func(in *Info, v string) { in.Domain = v })},
	{label: "logon server:", handle: text(func(in *Info, v string) { in.LogonServer = v })},
	{label: "hotfix(s):", handle: handleHotfixes},
	{label: "network card(s):", handle: handleNetworkCards},
	{label: "connection name:", handle: adapterField(func(a *NetworkAdapter, v string) { a.ConnectionName = v })},
	// Read from its own line; no fixed offset from the adapter label.
	{label: "dhcp enabled:", handle: adapterField(func(a *NetworkAdapter, v string) { a.DHCPEnabled = strings.Contains(strings.ToLower(v), "yes") })},
	{label: "dhcp server:", handle: adapterField(func(a *NetworkAdapter, v string) { a.DHCPServer = v })},
	{label: "status:", handle: adapterField(func(a *NetworkAdapter, v string) { a.Status = v })},
	{label: "[", handle: handleBracket},
	{label: "hyper-v requirements:", handle: handleHyperV},
	{label: "virtualization enabled in firmware:", handle: flag(func(h *HyperVRequirements, b bool) { h.VirtualizationEnabledInFirmware = b })},
	{label: "second level address translation:", handle: flag(func(h *HyperVRequirements, b bool) { h.SecondLevelAddressTranslation = b })},
	{label: "data execution prevention available:", handle: handleDEP},
}

type scanner struct {
	lines      []string
	info       *Info
	section    section
	processors []string
	adapters   *adapterAccumulator
}

// Parse parses the complete standard output of systeminfo. It returns a
// fresh record or the first error met; there is no partial result.
func Parse(output string) (*Info, error) {
	s := &scanner{
		lines:      normalizeLines(output),
		info:       &Info{PageFileLocations: []string{}, Hotfixes: []string{}},
		processors: []string{},
		adapters:   newAdapterAccumulator(),
	}

	for i := range s.lines {
		// Each step classifies the line after i; the last line is
		// compared against itself.
		n := i + 1
		if n == len(s.lines) {
			n = i
		}

		stop, err := s.classify(i, n)
		if err != nil {
			return nil, err
		}
		if stop {
			break
		}
	}

	return s.assemble(), nil
}

func (s *scanner) classify(i, n int) (bool, error) {
	line := s.lines[n]
	lower := strings.ToLower(line)

	for _, r := range rules {
		if r.label == "[" {
			if !isBracketLine(line) {
				continue
			}
		} else if !strings.Contains(lower, r.label) || (r.exclude != "" && strings.Contains(lower, r.exclude)) {
			continue
		}
		return r.handle(s, i, n, r.label)
	}
	return false, nil
}

func (s *scanner) assemble() *Info {
	s.info.Processors = s.processors
	s.info.NetworkAdapters = s.adapters.finish()
	return s.info
}

func text(set func(*Info, string)) handler {
	return func(s *scanner, _, n int, label string) (bool, error) {
		set(s.info, valueAfter(s.lines[n], label))
		s.section = sectionNone
		return false, nil
	}
}

func handleInstallDate(s *scanner, _, n int, label string) (bool, error) {
	t, err := parseDate("original install date", valueAfter(s.lines[n], label))
	if err != nil {
		return false, err
	}
	s.info.OriginalInstallDate = t
	s.section = sectionNone
	return false, nil
}

func handleBootTime(s *scanner, _, n int, label string) (bool, error) {
	t, err := parseDate("system boot time", valueAfter(s.lines[n], label))
	if err != nil {
		return false, err
	}
	s.info.SystemBootTime = t
	s.section = sectionNone
	return false, nil
}

// handleProcessors only enters the section. The "N Processor(s) Installed."
// summary is a count, not a processor, so it is not listed.
func handleProcessors(s *scanner, _, _ int, _ string) (bool, error) {
	s.section = sectionProcessors
	return false, nil
}

var memoryFields = []struct {
	label string
	field func(*Info) *int64
}{
	{"total physical memory:", func(in *Info) *int64 { return &in.TotalPhysicalMemoryMB }},
	{"available physical memory:", func(in *Info) *int64 { return &in.AvailablePhysicalMemoryMB }},
	{"virtual memory: max size:", func(in *Info) *int64 { return &in.VirtualMemoryMaxSizeMB }},
	{"virtual memory: available:", func(in *Info) *int64 { return &in.VirtualMemoryAvailableMB }},
	{"virtual memory: in use:", func(in *Info) *int64 { return &in.VirtualMemoryInUseMB }},
}

var memoryCleaner = strings.NewReplacer(",", "", "MB", "", " ", "")

func handleMemory(s *scanner, _, n int, _ string) (bool, error) {
	s.section = sectionNone
	line := s.lines[n]
	lower := strings.ToLower(line)

	for _, f := range memoryFields {
		if !strings.Contains(lower, f.label) {
			continue
		}
		raw := valueAfter(line, f.label)
		v, err := strconv.ParseInt(memoryCleaner.Replace(raw), 10, 64)
		if err != nil {
			return false, &FormatError{Field: strings.TrimSuffix(f.label, ":"), Value: raw, Err: err}
		}
		*f.field(s.info) = v
		return false, nil
	}
	return false, nil
}

func handlePageFiles(s *scanner, i, n int, label string) (bool, error) {
	s.section = sectionNone

	rest, err := collectUntil(s.lines, i+pageFileOffset, "page file location",
		func(l string) bool { return strings.TrimSpace(l) != "" },
		func(l string) bool { return containsFold(l, "domain:") })
	if err != nil {
		return false, err
	}

	locations := []string{}
	if first := valueAfter(s.lines[n], label); first != "" {
		locations = append(locations, first)
	}
	for _, l := range rest {
		locations = append(locations, strings.TrimSpace(l))
	}
	s.info.PageFileLocations = locations
	return false, nil
}

func handleHotfixes(s *scanner, i, _ int, _ string) (bool, error) {
	s.section = sectionNone

	items, err := collectUntil(s.lines, i+hotfixOffset, "hotfix", anyLine,
		func(l string) bool { return !isBracketItem(l) })
	if err != nil {
		return false, err
	}

	hotfixes := make([]string, len(items))
	for k, l := range items {
		hotfixes[k] = bracketValue(l)
	}
	s.info.Hotfixes = hotfixes
	return false, nil
}

func handleNetworkCards(s *scanner, i, n int, label string) (bool, error) {
	s.section = sectionNone
	if noAdapters(valueAfter(s.lines[n], label)) {
		return false, nil
	}

	at := i + adapterNameOffset
	if at >= len(s.lines) || !isBracketItem(s.lines[at]) {
		return false, &UnsupportedLayoutError{Reason: "network card block without an adapter entry", Line: n}
	}

	s.adapters.open(bracketValue(s.lines[at]), at)
	s.section = sectionNetworkAdapter
	return false, nil
}

// noAdapters reports whether the "Network Card(s)" summary announces an
// empty block, e.g. "N/A" or "0 NIC(s) Installed.".
func noAdapters(summary string) bool {
	if strings.EqualFold(summary, "n/a") {
		return true
	}
	fields := strings.Fields(summary)
	return len(fields) > 0 && fields[0] == "0"
}

func adapterField(set func(*NetworkAdapter, string)) handler {
	return func(s *scanner, _, n int, label string) (bool, error) {
		a, err := s.adapters.currentAdapter(label, n)
		if err != nil {
			return false, err
		}
		set(a, valueAfter(s.lines[n], label))
		s.section = sectionNetworkAdapter
		return false, nil
	}
}

// handleBracket classifies an unlabeled "[nn]: value" line from the section
// it follows: an adapter heading, an adapter address or a processor.
func handleBracket(s *scanner, _, n int, _ string) (bool, error) {
	value := bracketValue(s.lines[n])

	switch s.section {
	case sectionNetworkAdapter:
		if n != s.adapters.nameLine && n+1 < len(s.lines) && containsFold(s.lines[n+1], "connection name:") {
			s.adapters.open(value, n)
			return false, nil
		}
		if looksLikeIP(value) {
			s.adapters.addIP(value)
		}
	case sectionProcessors:
		s.processors = append(s.processors, value)
	}
	return false, nil
}

func handleHyperV(s *scanner, _, n int, label string) (bool, error) {
	s.section = sectionNone
	value := strings.ToLower(valueAfter(s.lines[n], label))
	if strings.Contains(value, "hypervisor has been detected") {
		s.info.HyperV.HypervisorDetected = true
		return false, nil
	}
	s.info.HyperV.VMMonitorModeExtensions = strings.Contains(value, "yes")
	return false, nil
}

func flag(set func(*HyperVRequirements, bool)) handler {
	return func(s *scanner, _, n int, label string) (bool, error) {
		s.section = sectionNone
		set(&s.info.HyperV, containsFold(valueAfter(s.lines[n], label), "yes"))
		return false, nil
	}
}

func handleDEP(s *scanner, _, n int, label string) (bool, error) {
	s.section = sectionNone
	s.info.HyperV.DataExecutionPreventionAvailable = containsFold(valueAfter(s.lines[n], label), "yes")
	return true, nil
}
