package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/autoloop/agents"
	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/persistence"
	"github.com/lexcodex/autoloop/tools"
)

func newCommandsCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "Print the COMMANDS list sent to the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := &framework.LocalCommandRunner{Workspace: s.cfg.Workspace}
			registry, err := tools.BuildRegistry(tools.Options{
				Workspace: &tools.Workspace{Root: s.cfg.Workspace},
				Runner:    runner,
				Memory:    persistence.NoMemory{},
				Agents:    agents.NewManager(nil),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), framework.RenderCommandsToPrompt(registry.All()))
			return nil
		},
	}
}
