// Package main provides the CLI entry point for opsagent, an LLM-driven
// operations agent that executes read/write/destructive actions against a
// fleet of SSH hosts under policy control.
//
// # Basic Usage
//
// Run one prompt through the agent loop:
//
//	opsagent run "check disk usage on web-01" --config opsagent.yaml
//
// Inspect past runs:
//
//	opsagent audit list --limit 20
//	opsagent audit show <session-id>
//
// Dry-run a tool invocation against the loaded policy without executing it:
//
//	opsagent policy check ssh_exec '{"host":"web-01","command":"rm -rf /tmp/x"}'
//
// Validate a configuration file:
//
//	opsagent config validate opsagent.yaml
//
// # Environment Variables
//
//   - ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY: LLM provider
//     credentials, named indirectly via each provider's api_key_env setting.
//   - OTEL_ENDPOINT: OTLP gRPC collector address for distributed tracing.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(exitCodeFor(err))
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main so tests can exercise it without calling os.Exit.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "opsagent",
		Short: "opsagent - an LLM-driven operations agent for SSH fleets",
		Long: `opsagent drives an LLM through a bounded tool-calling loop to execute
operations tasks (shell commands, log tailing, git queries) against a
configured fleet of hosts, gated by a policy engine that can require
operator confirmation or deny an action outright.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildRunCmd(),
		buildAuditCmd(),
		buildPolicyCmd(),
		buildConfigCmd(),
	)

	return rootCmd
}
