package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fake replays canned output keyed by the full command line. It is used by
// tests of packages that shell out.
type Fake struct {
	mu      sync.Mutex
	Outputs map[string]string
	Errors  map[string]error
	Calls   []string
}

func (f *Fake) Run(_ context.Context, name string, args ...string) (string, error) {
	command := strings.TrimSpace(name + " " + strings.Join(args, " "))

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, command)

	if err, ok := f.Errors[command]; ok {
		return "", err
	}
	if out, ok := f.Outputs[command]; ok {
		return out, nil
	}
	return "", fmt.Errorf("fake runner: unexpected command %q", command)
}
