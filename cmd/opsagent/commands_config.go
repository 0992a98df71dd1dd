package main

import (
	"fmt"

	"github.com/opsctl/agentcore/internal/config"
	"github.com/spf13/cobra"
)

func buildConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Work with opsagent configuration files",
	}
	cmd.AddCommand(buildConfigValidateCmd())
	return cmd
}

func buildConfigValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Load and validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ok: %d hosts, %d jumps, %d services, %d policy rules\n",
				len(cfg.Hosts), len(cfg.Jumps), len(cfg.Services), len(cfg.Policies))
			return nil
		},
	}
	return cmd
}
