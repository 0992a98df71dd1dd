package main

import (
	"fmt"

	"github.com/opsctl/agentcore/internal/audit"
	"github.com/opsctl/agentcore/internal/config"
	"github.com/spf13/cobra"
)

func buildAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect recorded agent sessions and their tool calls",
	}
	cmd.AddCommand(buildAuditListCmd(), buildAuditShowCmd())
	return cmd
}

func buildAuditListCmd() *cobra.Command {
	var configPath string
	var limit int
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openAuditStore(configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.ListSessions(cmd.Context(), limit, audit.SessionStatus(status))
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "no sessions recorded")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(out, "%s  %-9s  %-9s  %-8s  iterations=%d  %q\n",
					s.ID, s.Status, s.Provider, s.Model, s.IterationCount, truncate(s.UserPrompt, 60))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "opsagent.yaml", "path to the configuration file")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of sessions to list")
	cmd.Flags().StringVar(&status, "status", "", "filter by session status (running, completed, failed, capped)")

	return cmd
}

func buildAuditShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session and its tool calls in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]

			_, store, err := openAuditStore(configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			session, err := store.GetSession(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("get session %q: %w", sessionID, err)
			}
			calls, err := store.ListToolCalls(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("list tool calls for %q: %w", sessionID, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session %s\n", session.ID)
			fmt.Fprintf(out, "  status:     %s\n", session.Status)
			fmt.Fprintf(out, "  provider:   %s / %s\n", session.Provider, session.Model)
			fmt.Fprintf(out, "  prompt:     %s\n", session.UserPrompt)
			fmt.Fprintf(out, "  iterations: %d\n", session.IterationCount)
			if session.Error != "" {
				fmt.Fprintf(out, "  error:      %s\n", session.Error)
			}
			if session.FinalResponse != "" {
				fmt.Fprintf(out, "  response:   %s\n", truncate(session.FinalResponse, 200))
			}

			if len(calls) == 0 {
				fmt.Fprintln(out, "  tool calls: none")
				return nil
			}
			fmt.Fprintf(out, "  tool calls: %d\n", len(calls))
			for _, c := range calls {
				fmt.Fprintf(out, "    - %-8s %-10s effect=%-15s risk=%-8s\n", c.ToolName, c.Status, c.PolicyEffect, c.RiskLevel)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "opsagent.yaml", "path to the configuration file")
	return cmd
}

func openAuditStore(configPath string) (*config.Config, audit.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	store, err := buildAuditStore(cfg.Audit)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
