package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGOOS(t *testing.T) {
	t.Parallel()

	tests := map[string]Family{
		"windows":   WindowsNT,
		"darwin":    Darwin,
		"linux":     Linux,
		"android":   Android,
		"freebsd":   BSD,
		"openbsd":   BSD,
		"solaris":   Unix,
		"illumos":   Unix,
		"js":        Other,
		"plan9":     Other,
		"something": Other,
	}

	for goos, want := range tests {
		assert.Equal(t, want, FromGOOS(goos), goos)
	}
}

func TestCurrent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FromGOOS(runtime.GOOS), Current())
}

func TestRequire(t *testing.T) {
	t.Parallel()

	require.NoError(t, Require(Linux, Linux))

	err := Require(WindowsNT, Darwin)
	require.ErrorIs(t, err, ErrUnsupportedPlatform)

	var upe *UnsupportedPlatformError
	require.ErrorAs(t, err, &upe)
	assert.Equal(t, WindowsNT, upe.Want)
	assert.Equal(t, Darwin, upe.Got)
	assert.Equal(t, "unsupported platform: requires windows_nt, running on darwin", err.Error())
}
