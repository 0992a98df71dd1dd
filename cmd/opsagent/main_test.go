package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/opsctl/agentcore/internal/agent"
)

func TestBuildRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := buildRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "audit", "policy", "config"} {
		if !names[want] {
			t.Errorf("expected a %q subcommand, got %v", want, names)
		}
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"cancelled", context.Canceled, exitCancelled},
		{"wrapped cancelled", errors.New("run cancelled: context canceled"), exitUserError},
		{"policy denied", errPolicyDenied, exitPolicyDenied},
		{"tool failure", errToolFailure, exitToolFailure},
		{"iteration capped", errIterationCapped, exitIterationCapped},
		{"provider error", agent.ErrProvider, exitToolFailure},
		{"generic", errors.New("boom"), exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestConfigValidateCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opsagent.yaml")
	body := `
llm:
  default_provider: anthropic
  providers:
    anthropic:
      model: claude-3-5-sonnet-20241022
      api_key_env: ANTHROPIC_API_KEY
hosts:
  web-01:
    env: prod
    user: ops
    addr: 10.0.0.1
    port: 22
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := buildRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "validate", path})

	if err := root.Execute(); err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if out.Len() == 0 {
		t.Error("expected config validate to print a summary")
	}
}

func TestConfigValidateCommand_MissingFile(t *testing.T) {
	root := buildRootCmd()
	root.SetArgs([]string{"config", "validate", "/nonexistent/opsagent.yaml"})
	root.SetOut(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestPolicyCheckCommand_DenyExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opsagent.yaml")
	body := `
llm:
  default_provider: anthropic
  providers:
    anthropic:
      model: claude-3-5-sonnet-20241022
      api_key_env: ANTHROPIC_API_KEY
policies:
  - name: block-destructive
    condition:
      action_type: destructive
    effect: deny
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := buildRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"policy", "check", "ssh_exec", `{"command":"rm -rf /data"}`, "--config", path})

	err := root.Execute()
	if err == nil {
		t.Fatal("expected the deny decision to surface as an error")
	}
	if exitCodeFor(err) != exitPolicyDenied {
		t.Errorf("exitCodeFor(%v) = %d, want %d", err, exitCodeFor(err), exitPolicyDenied)
	}
}
