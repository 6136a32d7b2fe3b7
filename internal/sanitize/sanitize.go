// Package sanitize escapes markup-significant characters in user supplied
// text before it is sent to an inference provider or stored.
package sanitize

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// unsafe matches a markup-significant character. An ampersand that already
// begins a character reference is not matched, which keeps String idempotent.
var unsafe = regexp2.MustCompile(
	`[<>"']|&(?!(?:[A-Za-z][A-Za-z0-9]{1,31}|#[0-9]{1,7}|#[xX][0-9A-Fa-f]{1,6});)`,
	regexp2.None,
)

var replacements = map[string]string{
	"&": "&amp;",
	"<": "&lt;",
	">": "&gt;",
	`"`: "&#34;",
	"'": "&#39;",
}

// fallback escapes without the reference check. It is only used if the
// matcher returns an error, which cannot happen without a match timeout.
var fallback = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;", "'", "&#39;")

// String returns raw with & < > " and ' replaced by character references.
// All other valid content and its order are preserved. Each run of invalid
// UTF-8 bytes becomes a single U+FFFD, so the result is always valid UTF-8.
func String(raw string) string {
	if raw == "" {
		return ""
	}
	raw = strings.ToValidUTF8(raw, "\uFFFD")

	out, err := unsafe.ReplaceFunc(raw, func(m regexp2.Match) string {
		return replacements[m.String()]
	}, -1, -1)
	if err != nil {
		return fallback.Replace(raw)
	}
	return out
}

// IsBlank reports whether s contains nothing but whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
