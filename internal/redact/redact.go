// Package redact removes credentials and other sensitive fragments from
// strings before they are logged or echoed to API callers. Error messages
// from the inference provider, the payment gateway and the database can all
// carry tokens, connection strings or customer e-mails.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
)

// rule pairs a pattern with its replacement. Rules are applied in order, so
// specific token shapes come before the generic key=value pattern.
type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

var rules = []rule{
	// Database connection strings
	{regexp.MustCompile(`(?i)(postgres|postgresql|sqlite|file|db|database)://[^@\s]+@`), RedactedCredentialPlaceholder},
	// Provider tokens: Hugging Face, Paystack, Google API keys
	{regexp.MustCompile(`\bhf_[A-Za-z0-9]{8,}\b`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`\b(sk|pk)_(live|test)_[A-Za-z0-9]{8,}\b`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{20,}\b`), RedactedKeyPlaceholder},
	// JWTs, before bearer so the token shape is recognisable in logs
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), "[REDACTED_JWT]"},
	{regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9_\-.~+/]{8,}=*`), "Bearer " + RedactedCredentialPlaceholder},
	// Generic credentials
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`), RedactedCredentialPlaceholder},
	{
		regexp.MustCompile(`(?i)(api[_-]?key|token|secret|key|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		RedactedKeyPlaceholder,
	},
	// File paths
	{regexp.MustCompile(`(/[\w.-]+){2,}`), RedactedPathPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`), RedactedPathPlaceholder},
	// Stack trace fragments
	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), "[STACK_TRACE_REDACTED]"},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), RedactedEmailPlaceholder},
	// SQL statements
	{
		regexp.MustCompile(
			`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()$]+(?:FROM|INTO|SET|TABLE)(?:[\s\w,*()='"$]+)?`,
		),
		"[REDACTED_SQL]",
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
