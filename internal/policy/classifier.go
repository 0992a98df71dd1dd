// Package policy classifies shell commands by risk and gates tool execution
// through an ordered rule table, mirroring the source project's
// policy/action_classifier.py and policy/engine.py.
package policy

import "regexp"

// ActionClass is the coarse risk bucket a shell command falls into.
type ActionClass string

const (
	ActionRead        ActionClass = "read"
	ActionWrite       ActionClass = "write"
	ActionDestructive ActionClass = "destructive"
)

// destructivePatterns and writePatterns are checked in order; the first
// pattern family to match a command wins. Case-insensitive: operators type
// commands in whatever case is convenient.
var destructivePatterns = compileAll([]string{
	`\brm\s+(-[a-zA-Z]*r[a-zA-Z]*f|-[a-zA-Z]*f[a-zA-Z]*r|--recursive.*--force|--force.*--recursive)\b`,
	`\brm\s+-rf\b`,
	`\bdd\s+if=`,
	`\bmkfs\b`,
	`\bshutdown\b`,
	`\breboot\b`,
	`\bhalt\b`,
	`\bpoweroff\b`,
	`\bdrop\s+(table|database|schema|index)\b`,
	`\btruncate\s+table\b`,
	`\biptables\s+-F\b`,
	`\bkill\s+-9\s+1\b`,
	`\bdelete\s+from\b.*\bwhere\b.*\b1\s*=\s*1\b`,
	`>\s*/dev/sd[a-z]\b`,
	`\bfdisk\b`,
	`\bformat\s+[a-zA-Z]:`,
	`\bchmod\s+-R\s+000\b`,
	`\bkubectl\s+delete\s+namespace\b`,
	`\bdocker\s+system\s+prune\s+(-a|--all)\b`,
	`\bgit\s+push\s+.*--force\b`,
	`\bgit\s+push\s+.*-f\b`,
})

var writePatterns = compileAll([]string{
	`\brm\b`,
	`\bmv\b`,
	`\bcp\b`,
	`\bchmod\b`,
	`\bchown\b`,
	`\btouch\b`,
	`\bmkdir\b`,
	`\brmdir\b`,
	`\bln\b`,
	`\bsed\s+-i\b`,
	`\btee\b`,
	`>>?\s*[^&|]`,
	`\bsystemctl\s+(start|stop|restart|reload|enable|disable)\b`,
	`\bservice\s+\S+\s+(start|stop|restart|reload)\b`,
	`\bkill\b`,
	`\bpkill\b`,
	`\bapt(-get)?\s+(install|remove|purge|upgrade)\b`,
	`\byum\s+(install|remove|update)\b`,
	`\bdocker\s+(rm|rmi|stop|kill|restart)\b`,
	`\bkubectl\s+(apply|delete|patch|edit|scale|rollout)\b`,
	`\bgit\s+(commit|push|merge|rebase|reset|checkout\s+-b)\b`,
	`\bcrontab\s+-[re]\b`,
	`\buseradd\b`,
	`\buserdel\b`,
	`\bpasswd\b`,
	`\biptables\b`,
	`\bufw\b`,
})

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// Classify buckets a shell command as destructive, write, or read. It is a
// heuristic pattern match over the command text, not a shell parser:
// destructive patterns are checked first, then write patterns, and anything
// that matches neither is classified as read.
func Classify(command string) ActionClass {
	for _, re := range destructivePatterns {
		if re.MatchString(command) {
			return ActionDestructive
		}
	}
	for _, re := range writePatterns {
		if re.MatchString(command) {
			return ActionWrite
		}
	}
	return ActionRead
}

// RiskLevel derives an operator-facing risk label from a command's action
// class and the target environment. Production write and destructive
// actions are always escalated one notch over their non-production
// equivalent, since the blast radius of a mistake is higher there.
func RiskLevel(command, env string) string {
	class := Classify(command)
	prod := env == "prod" || env == "production"

	switch class {
	case ActionDestructive:
		if prod {
			return "critical"
		}
		return "high"
	case ActionWrite:
		if prod {
			return "high"
		}
		return "medium"
	default:
		return "low"
	}
}
