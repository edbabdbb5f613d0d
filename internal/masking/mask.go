package masking

import "strings"

// Redacted replaces values too short to mask positionally.
const Redacted = "[REDACTED]"

// maxMaskRunes caps the asterisk run so masked output does not leak the
// length of long secrets.
const maxMaskRunes = 20

// MaskValue masks a single secret value: the first four characters stay
// visible for identification, the rest collapses to at most twenty
// asterisks. Values shorter than four characters are replaced entirely,
// since a visible prefix would be most of the secret.
func MaskValue(v string) string {
	runes := []rune(v)
	if len(runes) < 4 {
		return Redacted
	}
	n := len(runes) - 4
	if n > maxMaskRunes {
		n = maxMaskRunes
	}
	return string(runes[:4]) + strings.Repeat("*", n)
}
