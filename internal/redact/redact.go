// Package redact masks sensitive substrings — credentials, tokens, private
// keys — out of text before it is written to a log or the audit store.
package redact

import "regexp"

// Mask is the placeholder substituted for a matched sensitive span.
const Mask = "[REDACTED]"

// patterns mirrors the source project's SENSITIVE_PATTERNS table: generic
// key=value secrets, bearer/authorization headers, cloud credentials, and
// PEM private-key blocks.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(token)\s*[:=]\s*['"]?[\w\-\.]{8,}['"]?`),
	regexp.MustCompile(`(?i)bearer\s+[\w\-\.]+`),
	regexp.MustCompile(`(?i)(password|passwd)\s*[:=]\s*['"]?[^\s'"]{4,}['"]?`),
	regexp.MustCompile(`(?i)(secret)\s*[:=]\s*['"]?[\w\-\.]{8,}['"]?`),
	regexp.MustCompile(`(?i)(api[_-]?key)\s*[:=]\s*['"]?[\w\-]{16,}['"]?`),
	regexp.MustCompile(`(?i)authorization\s*[:=]\s*['"]?[\w\-\. ]{8,}['"]?`),
	regexp.MustCompile(`(?i)AKIA[0-9A-Z]{16}`),                                   // AWS access key ID
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*['"]?[A-Za-z0-9/+=]{40}['"]?`),
	regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----[\s\S]*?-----END (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
	regexp.MustCompile(`sk-[a-zA-Z0-9]{32,}`),  // OpenAI-style API key
	regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`), // Google API key
}

// sensitiveKeys are field names that are always fully masked regardless of
// their value, since the value is the entire secret.
var sensitiveKeys = map[string]bool{
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"private_key":   true,
	"ssh_key":       true,
	"authorization": true,
}

// String applies every pattern in turn and returns the masked text.
func String(s string) string {
	for _, re := range patterns {
		s = re.ReplaceAllString(s, Mask)
	}
	return s
}

// IsSensitive reports whether s contains any recognized sensitive pattern.
func IsSensitive(s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Map masks the values of known-sensitive keys outright and applies String
// to every other string value, recursing into nested maps.
func Map(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sensitiveKeys[normalizeKey(k)] {
			out[k] = Mask
			continue
		}
		switch val := v.(type) {
		case string:
			out[k] = String(val)
		case map[string]any:
			out[k] = Map(val)
		default:
			out[k] = v
		}
	}
	return out
}

func normalizeKey(k string) string {
	out := make([]rune, 0, len(k))
	for _, r := range k {
		if r == '-' {
			r = '_'
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
