package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/opsctl/agentcore/internal/agent"
	"github.com/opsctl/agentcore/internal/audit"
	"github.com/spf13/cobra"
)

func buildRunCmd() *cobra.Command {
	var configPath string
	var providerName string
	var model string
	var sessionID string
	var maxIterations int

	cmd := &cobra.Command{
		Use:   "run <prompt>",
		Short: "Run a prompt through the agent loop once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := args[0]

			dep, err := buildDeployment(configPath, providerName)
			if err != nil {
				return err
			}
			defer dep.store.Close()
			defer dep.shutdown(context.Background())

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			if model == "" {
				model = defaultModelFor(dep, providerName)
			}

			executor := agent.NewExecutor(dep.registry, dep.store, 0, dep.logger, dep.metrics, dep.tracer)
			loop := agent.NewLoop(dep.provider, dep.registry, executor, dep.store, maxIterations, dep.logger, dep.metrics, dep.tracer)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			resp, err := loop.Run(ctx, sessionID, model, prompt)
			if err != nil {
				if ctx.Err() == context.Canceled {
					return fmt.Errorf("run cancelled: %w", ctx.Err())
				}
				return fmt.Errorf("%w: %s", errToolFailure, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
			fmt.Fprintf(cmd.OutOrStdout(), "\nsession: %s  tokens: %d in / %d out\n",
				sessionID, resp.Usage.InputTokens, resp.Usage.OutputTokens)

			return classifyRunOutcome(cmd.Context(), dep.store, sessionID, resp)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "opsagent.yaml", "path to the configuration file")
	cmd.Flags().StringVar(&providerName, "provider", "", "force a specific provider, bypassing routing")
	cmd.Flags().StringVar(&model, "model", "", "model override; defaults to the selected provider's configured model")
	cmd.Flags().StringVar(&sessionID, "session", "", "session ID to record this run under; generated when omitted")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", agent.DefaultMaxIterations, "iteration cap for this run")

	return cmd
}

// classifyRunOutcome inspects the tool calls this session made to decide
// which non-zero exit code, if any, best summarizes the run: a denied
// tool call outranks a failed one, which outranks a capped-but-otherwise-
// clean run.
func classifyRunOutcome(ctx context.Context, store audit.Store, sessionID string, resp *agent.ProviderResponse) error {
	calls, err := store.ListToolCalls(ctx, sessionID)
	if err != nil {
		// Audit lookups are best-effort; a failure here should not mask a
		// successful run.
		if resp.Capped {
			return fmt.Errorf("%w", errIterationCapped)
		}
		return nil
	}

	sawError := false
	for _, call := range calls {
		if call.PolicyEffect == "deny" {
			return fmt.Errorf("%w", errPolicyDenied)
		}
		if call.Status == audit.ToolCallError {
			sawError = true
		}
	}
	if sawError {
		return fmt.Errorf("%w", errToolFailure)
	}
	if resp.Capped {
		return fmt.Errorf("%w", errIterationCapped)
	}
	return nil
}

func defaultModelFor(dep *deployment, providerName string) string {
	if providerName != "" {
		if pc, ok := dep.cfg.LLM.Providers[providerName]; ok && pc.Model != "" {
			return pc.Model
		}
	}
	if pc, ok := dep.cfg.LLM.Providers[dep.cfg.LLM.DefaultProvider]; ok && pc.Model != "" {
		return pc.Model
	}
	return ""
}
