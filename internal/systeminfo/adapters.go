package systeminfo

// adapterAccumulator assembles network adapters from non-adjacent lines.
// The current adapter is tracked by index so identical adapters stay
// distinct entries.
type adapterAccumulator struct {
	adapters   []NetworkAdapter
	current    int
	nameLine   int
	pendingIPs []string
}

func newAdapterAccumulator() *adapterAccumulator {
	return &adapterAccumulator{
		adapters: []NetworkAdapter{},
		current:  -1,
		nameLine: -1,
	}
}

// open flushes the pending addresses into the current adapter and starts
// a new one named by the line at nameLine.
func (a *adapterAccumulator) open(name string, nameLine int) {
	a.flush()
	a.adapters = append(a.adapters, NetworkAdapter{Name: name, IPAddresses: []string{}})
	a.current = len(a.adapters) - 1
	a.nameLine = nameLine
}

func (a *adapterAccumulator) flush() {
	if a.current < 0 {
		return
	}
	a.adapters[a.current].IPAddresses = append(a.adapters[a.current].IPAddresses, a.pendingIPs...)
	a.pendingIPs = nil
}

// currentAdapter returns the open adapter or a LookupError for label.
func (a *adapterAccumulator) currentAdapter(label string, line int) (*NetworkAdapter, error) {
	if a.current < 0 || a.current >= len(a.adapters) {
		return nil, &LookupError{Label: label, Line: line}
	}
	return &a.adapters[a.current], nil
}

func (a *adapterAccumulator) addIP(ip string) {
	a.pendingIPs = append(a.pendingIPs, ip)
}

func (a *adapterAccumulator) finish() []NetworkAdapter {
	a.flush()
	return a.adapters
}
