package adapter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type startCall struct {
	name string
	args []string
}

func recordStarts(calls *[]startCall, err error) startFunc {
	return func(name string, args ...string) error {
		*calls = append(*calls, startCall{name: name, args: args})
		return err
	}
}

func TestOpenerUsesSystemDefault(t *testing.T) {
	tests := []struct {
		goos string
		want startCall
	}{
		{"linux", startCall{"xdg-open", []string{"https://x.test/a?b=1&c=2"}}},
		{"darwin", startCall{"open", []string{"https://x.test/a?b=1&c=2"}}},
		{"windows", startCall{"rundll32", []string{"url.dll,FileProtocolHandler", "https://x.test/a?b=1&c=2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			var calls []startCall
			o := NewOpener("", NullLogger())
			o.goos = tt.goos
			o.start = recordStarts(&calls, nil)

			require.NoError(t, o.Open("https://x.test/a?b=1&c=2"))
			assert.Equal(t, []startCall{tt.want}, calls)
		})
	}
}

func TestOpenerUsesConfiguredCommand(t *testing.T) {
	var calls []startCall
	o := NewOpener("firefox --new-tab", NullLogger())
	o.start = recordStarts(&calls, nil)

	require.NoError(t, o.Open("https://x.test"))
	assert.Equal(t, []startCall{{"firefox", []string{"--new-tab", "https://x.test"}}}, calls)
}

func TestOpenerRejectsNonWebLinks(t *testing.T) {
	var calls []startCall
	o := NewOpener("", NullLogger())
	o.start = recordStarts(&calls, nil)

	assert.Error(t, o.Open("file:///etc/passwd"))
	assert.Error(t, o.Open("not a url"))
	assert.Empty(t, calls)
}

func TestOpenerReportsStartFailure(t *testing.T) {
	var calls []startCall
	o := NewOpener("", NullLogger())
	o.start = recordStarts(&calls, errors.New("exec: not found"))

	assert.Error(t, o.Open("https://x.test"))
}
