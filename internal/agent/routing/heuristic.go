package routing

import (
	"regexp"
	"strings"

	"github.com/opsctl/agentcore/internal/agent"
	"github.com/opsctl/agentcore/internal/policy"
)

var (
	multiHostRegex = regexp.MustCompile(`(?i)\b(all hosts|every host|fleet|each server|across (the )?fleet|all servers)\b`)
	quickRegex     = regexp.MustCompile(`(?i)\b(what is|check|status|quick|show me)\b`)
)

// HeuristicClassifier tags a completion request using the same destructive
// vs. write vs. read command heuristics the policy engine gates tool calls
// with, plus a couple of prompt-shape heuristics. Rules can route
// destructive-sounding or fleet-wide requests to a stronger model while
// quick status checks go to whatever's cheapest.
type HeuristicClassifier struct{}

// Classify returns a list of tags for the request.
func (c *HeuristicClassifier) Classify(req *agent.CompletionRequest) []string {
	content := strings.TrimSpace(lastUserContent(req))
	if content == "" {
		return nil
	}

	var tags []string
	switch policy.Classify(content) {
	case policy.ActionDestructive:
		tags = append(tags, "destructive")
	case policy.ActionWrite:
		tags = append(tags, "write")
	default:
		tags = append(tags, "diagnostic")
	}

	if multiHostRegex.MatchString(content) {
		tags = append(tags, "multi_host")
	}
	if quickRegex.MatchString(content) || len(content) < 80 {
		tags = append(tags, "quick")
	}

	return tags
}
