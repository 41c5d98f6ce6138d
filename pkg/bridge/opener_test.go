package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserOpenerResolvesPathAgainstBase(t *testing.T) {
	var launched [][]string
	o := NewBrowserOpener("http://localhost:1930/")
	o.launch = func(name string, args ...string) error {
		launched = append(launched, append([]string{name}, args...))
		return nil
	}

	require.NoError(t, o.OpenWindow("/settings/profile"))

	require.Len(t, launched, 1)
	cmd := launched[0]
	require.NotEmpty(t, cmd)
	// The URL is always the last argument, whatever the platform launcher.
	assert.Equal(t, "http://localhost:1930/settings/profile", cmd[len(cmd)-1])
}

func TestBrowserOpenerPassesAbsoluteURLThrough(t *testing.T) {
	var gotURL string
	o := NewBrowserOpener("http://localhost:1930")
	o.launch = func(name string, args ...string) error {
		gotURL = args[len(args)-1]
		return nil
	}

	require.NoError(t, o.OpenWindow("https://example.com/page"))
	assert.Equal(t, "https://example.com/page", gotURL)
}
