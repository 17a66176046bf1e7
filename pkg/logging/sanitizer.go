package logging

import "regexp"

// Redacted replaces sensitive values in sanitized output.
const Redacted = "[REDACTED]"

var (
	// password=..., pwd=..., pass=... in key=value connection strings.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Bearer tokens echoed back by HTTP backends.
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_.]+`)

	// API keys in key=value form or the provider "sk-..." shape that LLM
	// backends include verbatim in auth error bodies.
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{16,}`)
	skKeyPattern  = regexp.MustCompile(`\bsk-[A-Za-z0-9-_]{8,}`)

	// user:pass@host credentials in URL-style connection strings.
	urlCredsPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// Sanitize redacts credentials from a string before it reaches a log line or
// an API response body.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	s = passwordPattern.ReplaceAllString(s, "${1}="+Redacted)
	s = bearerPattern.ReplaceAllString(s, "Bearer "+Redacted)
	s = apiKeyPattern.ReplaceAllString(s, "${1}="+Redacted)
	s = skKeyPattern.ReplaceAllString(s, Redacted)
	s = urlCredsPattern.ReplaceAllString(s, "://"+Redacted+"@"+Redacted)
	return s
}

// SanitizeError renders an error with credentials redacted. Database errors
// can echo the connection string and backend auth errors can echo the API
// key, so nothing error-shaped leaves the process unsanitized.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return Sanitize(err.Error())
}
