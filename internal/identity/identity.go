// Package identity turns raw scanner payloads into canonical student ids.
package identity

import "strings"

// Normalize keeps only the ASCII digits of raw. Scanners in keyboard-wedge
// mode deliver ids with prefixes, separators and control characters mixed
// in; what remains is the student id. An empty result means the payload
// carried no id at all.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
