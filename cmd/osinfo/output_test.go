package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/go-tangra/go-tangra-osinfo/internal/collector"
	"github.com/go-tangra/go-tangra-osinfo/internal/platform"
)

func TestWriteOutput(t *testing.T) {
	t.Parallel()

	inv := &collector.Inventory{
		Hostname: "web-01",
		OS:       collector.OperatingSystemInfo{Name: "Ubuntu 24.04 LTS", Family: platform.Linux},
	}

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, formatJSON, inv))
		assert.Contains(t, buf.String(), `"hostname": "web-01"`)
	})

	t.Run("yaml uses json field names", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, formatYAML, inv))

		var got map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "web-01", got["hostname"])
		os, ok := got["os"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "linux", os["family"])
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, writeOutput(&bytes.Buffer{}, "xml", inv))
	})
}
