package main

import (
	"encoding/json"
	"fmt"

	"github.com/opsctl/agentcore/internal/config"
	"github.com/opsctl/agentcore/internal/policy"
	"github.com/spf13/cobra"
)

func buildPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect and dry-run policy decisions",
	}
	cmd.AddCommand(buildPolicyCheckCmd())
	return cmd
}

// policyCheckArgs is the shape policy check expects its args-json argument
// to decode into: enough to classify and evaluate a request without
// actually running anything.
type policyCheckArgs struct {
	Command string `json:"command"`
}

func buildPolicyCheckCmd() *cobra.Command {
	var configPath string
	var env string
	var targetCount int
	var confirmToken string

	cmd := &cobra.Command{
		Use:   "check <tool> <args-json>",
		Short: "Evaluate a tool invocation against policy without executing it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolName := args[0]

			var parsed policyCheckArgs
			if err := json.Unmarshal([]byte(args[1]), &parsed); err != nil {
				return fmt.Errorf("parse args-json: %w", err)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			engine, err := policy.NewEngine(cfg.Policies, nil)
			if err != nil {
				return fmt.Errorf("build policy engine: %w", err)
			}
			decision, err := engine.Check(policy.Request{
				ToolName:    toolName,
				Command:     parsed.Command,
				Env:         env,
				TargetCount: targetCount,
				ConfirmKey:  confirmToken,
			})
			if err != nil {
				return fmt.Errorf("policy check: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "effect:     %s\n", decision.Effect)
			fmt.Fprintf(out, "risk:       %s\n", decision.RiskLevel)
			if decision.Rule != "" {
				fmt.Fprintf(out, "rule:       %s\n", decision.Rule)
			}
			if decision.Message != "" {
				fmt.Fprintf(out, "message:    %s\n", decision.Message)
			}
			if decision.ConfirmToken != "" {
				fmt.Fprintf(out, "confirm:    %s (valid %s)\n", decision.ConfirmToken, policy.TokenTTL)
			}

			if decision.Effect == policy.EffectDeny {
				return fmt.Errorf("%w", errPolicyDenied)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "opsagent.yaml", "path to the configuration file")
	cmd.Flags().StringVar(&env, "env", "", "environment override for policy evaluation (dev, staging, prod)")
	cmd.Flags().IntVar(&targetCount, "target-count", 1, "number of hosts/targets this invocation touches")
	cmd.Flags().StringVar(&confirmToken, "confirm-token", "", "previously minted confirm token to re-check against")

	return cmd
}
