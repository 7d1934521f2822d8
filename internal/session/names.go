package session

import (
	"fmt"
	"path/filepath"
	"unicode"

	"github.com/willothy/sesh/internal/protocol"
)

// validateName rejects empty names and names containing non-printable
// runes. Purely numeric names are allowed; id matches win over them at
// selector resolution.
func validateName(name string) error {
	if name == "" {
		return protocol.Errorf(protocol.KindProtocolError, "session name must not be empty")
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return protocol.Errorf(protocol.KindProtocolError, "session name contains non-printable character %q", r)
		}
	}
	return nil
}

// synthesizeName builds the default session name <basename(program)>-<k>,
// where k is the smallest non-negative integer that makes it unique among
// taken names.
func synthesizeName(program string, taken func(string) bool) string {
	base := filepath.Base(program)
	for k := 0; ; k++ {
		name := fmt.Sprintf("%s-%d", base, k)
		if !taken(name) {
			return name
		}
	}
}
