package ssh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opsctl/agentcore/internal/agent"
	argsafety "github.com/opsctl/agentcore/internal/exec"
)

// LogTailTool views the tail of a log file on a remote host, optionally
// filtered by a keyword, by delegating to ExecTool. Grounded in the source
// project's tools/logs.py LogTailTool.
type LogTailTool struct {
	exec *ExecTool
}

// NewLogTailTool builds the log_tail tool over an existing ExecTool.
func NewLogTailTool(exec *ExecTool) *LogTailTool {
	return &LogTailTool{exec: exec}
}

func (t *LogTailTool) Name() string { return "log_tail" }

func (t *LogTailTool) Description() string {
	return "View the last N lines of a log file on a remote host, optionally filtered by a keyword."
}

func (t *LogTailTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"host": map[string]any{
				"type":        "string",
				"description": "Host alias from the inventory.",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Log file path, e.g. /var/log/nginx/error.log.",
			},
			"lines": map[string]any{
				"type":        "integer",
				"default":     50,
				"description": "Number of trailing lines to return.",
			},
			"grep": map[string]any{
				"type":        "string",
				"description": "Optional keyword filter.",
			},
		},
		"required": []string{"host", "path"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

type logTailParams struct {
	Host  string `json:"host"`
	Path  string `json:"path"`
	Lines int    `json:"lines"`
	Grep  string `json:"grep"`
}

func (t *LogTailTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in logTailParams
	if err := json.Unmarshal(params, &in); err != nil {
		return errorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if in.Host == "" || in.Path == "" {
		return errorResult("host and path are required"), nil
	}
	if _, err := argsafety.SanitizeArgument(in.Path); err != nil {
		return errorResult(fmt.Sprintf("unsafe path: %v", err)), nil
	}
	if in.Grep != "" {
		if _, err := argsafety.SanitizeArgument(in.Grep); err != nil {
			return errorResult(fmt.Sprintf("unsafe grep filter: %v", err)), nil
		}
	}
	if in.Lines <= 0 {
		in.Lines = 50
	}

	var command string
	if in.Grep != "" {
		command = fmt.Sprintf("tail -n %d %s | grep -i %s | tail -n %d",
			in.Lines*2, shellQuote(in.Path), shellQuote(in.Grep), in.Lines)
	} else {
		command = fmt.Sprintf("tail -n %d %s", in.Lines, shellQuote(in.Path))
	}

	execParams, err := json.Marshal(map[string]any{"host": in.Host, "command": command})
	if err != nil {
		return errorResult(fmt.Sprintf("build command: %v", err)), nil
	}

	result, err := t.exec.Execute(ctx, execParams)
	if err != nil {
		return result, err
	}

	if result.Status == agent.ToolResultSuccess {
		lineCount := 0
		if result.Output != "" {
			lineCount = len(strings.Split(strings.TrimSpace(result.Output), "\n"))
		}
		if result.Metadata == nil {
			result.Metadata = map[string]any{}
		}
		result.Metadata["line_count"] = lineCount
		result.Metadata["path"] = in.Path
		if in.Grep != "" {
			result.Metadata["grep"] = in.Grep
		}
	}
	return result, nil
}

// shellQuote wraps a value in single quotes for inclusion in a remote
// command string, escaping any embedded single quote. Arguments here come
// from configuration and model-supplied tool calls, never raw end-user
// text, but the remote shell still needs well-formed quoting.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
