package protocol

import "strconv"

// Selector identifies a session by id or by name. When the string parses as
// a non-negative integer it is tried as an id first; a live id always wins
// over a name that happens to be numeric.
type Selector struct {
	ID   int
	Name string
	IsID bool
}

// ParseSelector interprets a raw selector string.
func ParseSelector(s string) Selector {
	if id, err := strconv.Atoi(s); err == nil && id >= 0 {
		return Selector{ID: id, Name: s, IsID: true}
	}
	return Selector{Name: s}
}

func (s Selector) String() string { return s.Name }
