//go:build !windows

package winsvc

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestUnsupportedOffWindows(t *testing.T) {
	t.Parallel()

	log := logrus.New()

	assert.False(t, IsWindowsService())
	assert.ErrorIs(t, RunService(Agent.Name, log, func(context.Context) error { return nil }), ErrUnsupported)
	assert.ErrorIs(t, Install(Collector, "/usr/local/bin/osinfo-collector", log), ErrUnsupported)
	assert.ErrorIs(t, Uninstall(Collector.Name, log), ErrUnsupported)

	_, err := ExePath()
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestServiceDefinitions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"daemon"}, Agent.Args)
	assert.Equal(t, []string{"serve"}, Collector.Args)
	assert.NotEqual(t, Agent.Name, Collector.Name)
}
