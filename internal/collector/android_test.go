package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
	"github.com/go-tangra/go-tangra-osinfo/internal/runner"
)

func newTestAndroid(fake *runner.Fake) *Android {
	a := NewAndroid(fake, testLogger())
	a.host = platform.Android
	return a
}

func TestAndroidOperatingSystemInfo(t *testing.T) {
	t.Parallel()

	fake := &runner.Fake{Outputs: map[string]string{
		"uname -o":                         "Android\n",
		"uname -r":                         "5.10.157-android13-4-00001-g5c8c2e0\n",
		"getprop ro.build.version.release": "14\n",
		"getprop ro.build.description":     "panther-user 14 UQ1A.240105.004 11206848 release-keys\n",
	}}

	info, err := newTestAndroid(fake).OperatingSystemInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &OperatingSystemInfo{
		Name:          "Android",
		Version:       "14",
		KernelVersion: "5.10.157-android13-4-00001-g5c8c2e0",
		Family:        platform.Android,
		BuildNumber:   "11206848",
	}, info)
}

func TestAndroidExtras(t *testing.T) {
	t.Parallel()

	fake := &runner.Fake{
		Outputs: map[string]string{
			"getprop ro.build.version.codename": "REL\n",
			"getprop ro.build.version.sdk":      "34\n",
		},
		Errors: map[string]error{
			"getprop ro.product.model": errors.New("no such property"),
		},
	}

	info, err := newTestAndroid(fake).Extras(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &AndroidInfo{Codename: "REL", SDKLevel: "34"}, info)
}

func TestAndroidShortDescription(t *testing.T) {
	t.Parallel()

	fake := &runner.Fake{Outputs: map[string]string{
		"uname -o":                         "Android\n",
		"uname -r":                         "4.19.0\n",
		"getprop ro.build.version.release": "11\n",
		"getprop ro.build.description":     "custom-build\n",
	}}

	info, err := newTestAndroid(fake).OperatingSystemInfo(context.Background())
	require.NoError(t, err)
	assert.Empty(t, info.BuildNumber)
}
