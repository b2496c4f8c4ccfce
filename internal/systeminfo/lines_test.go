package systeminfo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLines(t *testing.T) {
	t.Parallel()

	lines := normalizeLines("Host Name:    PC\r\nOS Name:  Windows\r\n")
	assert.Equal(t, []string{"Host Name:PC", "OS Name:Windows", ""}, lines)
}

func TestCollectUntil(t *testing.T) {
	t.Parallel()

	isItem := func(l string) bool { return strings.HasPrefix(l, "[") }
	isStop := func(l string) bool { return strings.HasPrefix(l, "Stop") }

	tests := []struct {
		name  string
		lines []string
		start int
		want  []string
	}{
		{
			name:  "stop right away",
			lines: []string{"Stop"},
			want:  []string{},
		},
		{
			name:  "items before stop",
			lines: []string{"[01]: a", "[02]: b", "Stop", "[03]: c"},
			want:  []string{"[01]: a", "[02]: b"},
		},
		{
			name:  "non items are skipped",
			lines: []string{"[01]: a", "noise", "[02]: b", "Stop"},
			want:  []string{"[01]: a", "[02]: b"},
		},
		{
			name:  "start offset",
			lines: []string{"[01]: a", "[02]: b", "Stop"},
			start: 1,
			want:  []string{"[02]: b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := collectUntil(tt.lines, tt.start, "test", isItem, isStop)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectUntilOutOfRange(t *testing.T) {
	t.Parallel()

	got, err := collectUntil([]string{"[01]: a", "[02]: b"}, 0, "test", anyLine,
		func(string) bool { return false })

	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, "test", oor.List)
	assert.Equal(t, 0, oor.Line)
	assert.Nil(t, got)
}

func TestBracketValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "KB5034441", bracketValue("  [01]: KB5034441"))
	assert.Equal(t, "no index", bracketValue(" no index "))
	assert.Equal(t, "[x] kept", bracketValue("[x] kept"))
}

func TestLooksLikeIP(t *testing.T) {
	t.Parallel()

	assert.True(t, looksLikeIP("192.168.1.10"))
	assert.True(t, looksLikeIP("fe80::1"))
	assert.True(t, looksLikeIP("2001:db8::42"))
	assert.False(t, looksLikeIP("Intel(R) Ethernet Connection I219-V"))
	assert.False(t, looksLikeIP("10.0"))
}

func TestAdapterAccumulator(t *testing.T) {
	t.Parallel()

	acc := newAdapterAccumulator()

	_, err := acc.currentAdapter("status:", 7)
	var lookup *LookupError
	require.ErrorAs(t, err, &lookup)
	assert.Equal(t, 7, lookup.Line)

	acc.open("nic", 1)
	acc.addIP("10.0.0.1")
	acc.open("nic", 5)
	acc.addIP("10.0.0.2")
	acc.addIP("fe80::2")

	a, err := acc.currentAdapter("status:", 8)
	require.NoError(t, err)
	a.Status = "Up"

	adapters := acc.finish()
	require.Len(t, adapters, 2)
	assert.Equal(t, []string{"10.0.0.1"}, adapters[0].IPAddresses)
	assert.Equal(t, []string{"10.0.0.2", "fe80::2"}, adapters[1].IPAddresses)
	assert.Empty(t, adapters[0].Status)
	assert.Equal(t, "Up", adapters[1].Status)
}
