package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/lexcodex/autoloop/agents/pattern"
	"github.com/lexcodex/autoloop/internal/logger"
	"github.com/lexcodex/autoloop/llm"
)

type repairOutput struct {
	Strategy      string            `json:"strategy,omitempty"`
	DoubleEncoded bool              `json:"double_encoded,omitempty"`
	Directive     pattern.Directive `json:"directive"`
}

func newRepairCmd(s *settings) *cobra.Command {
	var useAI bool
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Repair a model reply read from stdin and print the interpreted directive",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			repairer := &pattern.Repairer{Logger: logger.Logger}
			if useAI {
				provider, err := llm.NewProvider(cmd.Context(), providerSettings(s.cfg))
				if err != nil {
					return err
				}
				defer provider.Shutdown()
				repairer = pattern.NewRepairer(provider.Opener())
				repairer.Logger = logger.Logger
			}
			var out repairOutput
			repaired, err := repairer.Repair(cmd.Context(), string(raw))
			if err != nil {
				// Local passes only, so the model is not asked twice.
				out.Directive = pattern.ParseReply(cmd.Context(), &pattern.Repairer{Logger: logger.Logger}, string(raw))
			} else {
				out.Strategy = repaired.Strategy
				out.DoubleEncoded = repaired.DoubleEncoded
				out.Directive = pattern.Interpret(repaired.Value)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&useAI, "ai", false, "Ask the configured backend to fix replies the local passes cannot")
	return cmd
}
