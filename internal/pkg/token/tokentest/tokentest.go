// Package tokentest provides helpers for tests that handle session tokens.
package tokentest

import "strings"

const b64url = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// Tamper returns raw with its last character replaced. The new character
// differs in the high bit of the base64url digit, so the decoded signature
// changes even though the low bits of the final digit are padding.
func Tamper(raw string) string {
	if raw == "" {
		return "x"
	}
	last := raw[len(raw)-1]
	i := strings.IndexByte(b64url, last)
	if i < 0 {
		return raw[:len(raw)-1] + "A"
	}
	return raw[:len(raw)-1] + string(b64url[i^0x20])
}
