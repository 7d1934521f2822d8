package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanDetachHotkey(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		forward int
		found   bool
	}{
		{"plain input", []byte("hello"), 5, false},
		{"hotkey alone", []byte{0x1b, '\\'}, 0, true},
		{"hotkey after input", []byte{'a', 'b', 0x1b, '\\'}, 2, true},
		{"esc without backslash", []byte{0x1b, '['}, 2, false},
		{"bare esc at end", []byte{'x', 0x1b}, 2, false},
		{"backslash alone", []byte{'\\'}, 1, false},
		{"empty", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forward, found := scanDetachHotkey(tt.in)
			assert.Equal(t, tt.forward, forward)
			assert.Equal(t, tt.found, found)
		})
	}
}
