package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/internal/logger"
	"github.com/lexcodex/autoloop/persistence"
)

func newMemoryCmd(s *settings) *cobra.Command {
	memoryCmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect long-term memory",
	}

	open := func() (framework.MemoryStore, func(), error) {
		store, err := persistence.OpenMemory(s.cfg.MemoryBackend, s.cfg.MemoryDir)
		var unsupported *persistence.UnsupportedBackendError
		if errors.As(err, &unsupported) {
			logger.Warn(err.Error())
		} else if err != nil {
			return nil, nil, err
		}
		release := func() {
			if closer, ok := store.(interface{ Close() error }); ok {
				_ = closer.Close()
			}
		}
		return store, release, nil
	}

	var limit int
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Print the memories most relevant to a query",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("usage: memory search <query>")
			}
			store, release, err := open()
			if err != nil {
				return err
			}
			defer release()
			results, err := store.GetRelevant(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}
	searchCmd.Flags().IntVarP(&limit, "limit", "k", 10, "Number of memories to return")

	addCmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Store a memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("usage: memory add <text>")
			}
			store, release, err := open()
			if err != nil {
				return err
			}
			defer release()
			text := strings.Join(args, " ")
			if err := store.Add(cmd.Context(), text); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Committing memory with string %s\n", strconv.Quote(text))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := open()
			if err != nil {
				return err
			}
			defer release()
			return store.Clear(cmd.Context())
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the backend and number of memories",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := open()
			if err != nil {
				return err
			}
			defer release()
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", stats.Backend, stats.Entries)
			return nil
		},
	}

	memoryCmd.AddCommand(searchCmd, addCmd, clearCmd, statsCmd)
	return memoryCmd
}
