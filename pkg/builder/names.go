package builder

import (
	"strings"

	"github.com/google/uuid"
)

// NameFunc generates a variable name for an output port of a node type.
// Implementations must never return the same name twice.
type NameFunc func(nodeType, portKey string) string

// RandomName is the default NameFunc.
// It yields __io_N_<type>_O<port>_<suffix>, where the suffix joins the first
// two groups of a random v4 UUID.
func RandomName(nodeType, portKey string) string {
	parts := strings.SplitN(uuid.NewString(), "-", 3)
	return "__io_N_" + Sanitize(nodeType) + "_O" + Sanitize(portKey) + "_" + parts[0] + parts[1]
}

// Sanitize replaces every rune that is not valid in an identifier with '_'.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
