package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "opsagent.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
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
policies:
  - name: allow-reads
    condition:
      action_type: read
    effect: allow
`

func TestLoad_MinimalConfig(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.DefaultProvider != "anthropic" {
		t.Errorf("DefaultProvider = %q, want %q", cfg.LLM.DefaultProvider, "anthropic")
	}
	if cfg.Audit.Backend != "" {
		t.Errorf("Audit.Backend = %q, want empty (defaulted downstream)", cfg.Audit.Backend)
	}
}

func TestValidate_UnknownJumpReference(t *testing.T) {
	cfg := &Config{
		Hosts: map[string]HostConfig{
			"web-01": {Jump: "bastion"},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unresolved jump reference")
	}
}

func TestValidate_UnknownServiceHostReference(t *testing.T) {
	cfg := &Config{
		Hosts: map[string]HostConfig{},
		Services: map[string]ServiceConfig{
			"api": {Hosts: []string{"web-01"}},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unresolved service host reference")
	}
}

func TestValidate_UnrecognizedPolicyEffect(t *testing.T) {
	cfg := &Config{
		Policies: []PolicyRule{{Name: "bad", Effect: "maybe"}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unrecognized policy effect")
	}
}

func TestValidate_AuditBackend(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"", false},
		{"memory", false},
		{"sqlite", false},
		{"postgres", false},
		{"mongo", true},
	}
	for _, tt := range tests {
		cfg := &Config{Audit: AuditConfig{Backend: tt.backend}}
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Audit.Backend = %q: error = %v, wantErr %v", tt.backend, err, tt.wantErr)
		}
	}
}

func TestLoad_RejectsUnrecognizedAuditBackend(t *testing.T) {
	path := writeConfig(t, minimalConfig+"\naudit:\n  backend: mongo\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected Load() to reject an unrecognized audit backend")
	}
}

func TestLoad_AuditBackendConfigured(t *testing.T) {
	path := writeConfig(t, minimalConfig+"\naudit:\n  backend: postgres\n  dsn: postgres://localhost/opsagent\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Audit.Backend != "postgres" {
		t.Errorf("Audit.Backend = %q, want %q", cfg.Audit.Backend, "postgres")
	}
	if cfg.Audit.DSN != "postgres://localhost/opsagent" {
		t.Errorf("Audit.DSN = %q, want the configured DSN", cfg.Audit.DSN)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, minimalConfig+"\nbogus_top_level_key: true\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected Load() to reject an unrecognized top-level field")
	}
}
