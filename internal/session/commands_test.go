package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want command
	}{
		{"a https://x.test/f.bin", command{op: opAdd, url: "https://x.test/f.bin"}},
		{"https://x.test/f.bin", command{op: opAdd, url: "https://x.test/f.bin"}},
		{"p 3", command{op: opToggle, id: 3}},
		{"p", command{op: opToggle}},
		{"S 2", command{op: opPause, id: 2}},
		{"resume 7", command{op: opResume, id: 7}},
		{"c 1", command{op: opCancel, id: 1}},
		{"j", command{op: opNext}},
		{"k", command{op: opPrev}},
		{"q", command{op: opQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, line := range []string{"", "x", "p abc", "p 0", "p 1 2", "a"} {
		t.Run(line, func(t *testing.T) {
			_, err := parseCommand(line)
			assert.Error(t, err)
		})
	}
	_, err := parseCommand("zzz")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}
