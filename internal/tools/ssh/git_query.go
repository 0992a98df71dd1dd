package ssh

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/opsctl/agentcore/internal/agent"
	argsafety "github.com/opsctl/agentcore/internal/exec"
)

// GitQueryTool runs a read-only git query (status, log, or diff --stat)
// against a repository, either on the local machine or on a remote host
// via ExecTool. Grounded in the source project's tools/git.py
// GitStatusTool/GitLogTool, folded into a single tool keyed by a "query"
// field rather than one Go type per subcommand.
type GitQueryTool struct {
	exec *ExecTool
}

// NewGitQueryTool builds the git_query tool. exec may be nil if only local
// repository queries are needed; Execute returns an error result for any
// call naming a host in that case.
func NewGitQueryTool(exec *ExecTool) *GitQueryTool {
	return &GitQueryTool{exec: exec}
}

func (t *GitQueryTool) Name() string { return "git_query" }

func (t *GitQueryTool) Description() string {
	return "Run a read-only git query (status, log, or diff summary) against a local or remote repository."
}

func (t *GitQueryTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Repository path.",
			},
			"query": map[string]any{
				"type":        "string",
				"enum":        []string{"status", "log", "diffstat"},
				"default":     "status",
				"description": "Which read-only git query to run.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"default":     20,
				"description": "Commit count for the log query.",
			},
			"host": map[string]any{
				"type":        "string",
				"description": "Host alias from the inventory; omit for a local repository.",
			},
		},
		"required": []string{"path"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

type gitQueryParams struct {
	Path  string `json:"path"`
	Query string `json:"query"`
	Limit int    `json:"limit"`
	Host  string `json:"host"`
}

func (t *GitQueryTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in gitQueryParams
	if err := json.Unmarshal(params, &in); err != nil {
		return errorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if in.Path == "" {
		return errorResult("path is required"), nil
	}
	if _, err := argsafety.SanitizeArgument(in.Path); err != nil {
		return errorResult(fmt.Sprintf("unsafe path: %v", err)), nil
	}
	if in.Query == "" {
		in.Query = "status"
	}
	if in.Limit <= 0 {
		in.Limit = 20
	}

	command, err := gitCommand(in.Query, in.Path, in.Limit)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	if in.Host != "" {
		if t.exec == nil {
			return errorResult("no SSH execution configured; cannot query a remote repository"), nil
		}
		execParams, err := json.Marshal(map[string]any{"host": in.Host, "command": command})
		if err != nil {
			return errorResult(fmt.Sprintf("build command: %v", err)), nil
		}
		return t.exec.Execute(ctx, execParams)
	}

	return runLocal(ctx, command)
}

func gitCommand(query, path string, limit int) (string, error) {
	dir := shellQuote(path)
	switch query {
	case "status":
		return fmt.Sprintf("cd %s && git status --short && echo --- && git branch -v", dir), nil
	case "log":
		return fmt.Sprintf("cd %s && git log -n %d --oneline --decorate", dir, limit), nil
	case "diffstat":
		return fmt.Sprintf("cd %s && git diff --stat", dir), nil
	default:
		return "", fmt.Errorf("unsupported query %q", query)
	}
}

func runLocal(ctx context.Context, command string) (*agent.ToolResult, error) {
	execCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "/bin/sh", "-c", command)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start).Seconds()

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return errorResult(fmt.Sprintf("local git query failed: %s", runErr.Error())), nil
		}
	}

	if exitCode == 0 {
		return &agent.ToolResult{
			Status:      agent.ToolResultSuccess,
			Output:      stdout.String(),
			Error:       stderr.String(),
			ExitCode:    &exitCode,
			DurationSec: duration,
		}, nil
	}
	return &agent.ToolResult{
		Status:      agent.ToolResultError,
		Output:      stdout.String(),
		Error:       stderr.String(),
		ExitCode:    &exitCode,
		DurationSec: duration,
	}, nil
}
