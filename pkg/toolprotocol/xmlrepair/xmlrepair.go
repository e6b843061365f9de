// Package xmlrepair holds the small, regex-based text transforms shared
// between the heuristic pipeline's preParse phase and the schema coercer's
// string-to-object rescue path, so both apply exactly the same
// close-tag/invalid-`<` normalization rather than two subtly different
// copies of it.
package xmlrepair

import "regexp"

var closeTagPattern = regexp.MustCompile(`</\s*([A-Za-z_][\w.-]*)\s*>`)

// NormalizeCloseTags rewrites any "</  name  >" (whitespace tolerated around
// the name) into the canonical "</name>".
func NormalizeCloseTags(s string) string {
	return closeTagPattern.ReplaceAllString(s, "</$1>")
}

var invalidLTPattern = regexp.MustCompile(`<([^A-Za-z0-9_:\-/!?]|$)`)

// EscapeInvalidLT replaces every '<' whose next character is not one of
// [A-Za-z0-9_:-], '/', '!', '?' with "&lt;", leaving real tags untouched.
func EscapeInvalidLT(s string) string {
	// A match consumes the character after '<', so the second '<' of "<<" is
	// not examined in the same pass; repeat until nothing changes.
	for {
		escaped := invalidLTPattern.ReplaceAllString(s, "&lt;$1")
		if escaped == s {
			return escaped
		}
		s = escaped
	}
}
