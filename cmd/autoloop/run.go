package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lexcodex/autoloop/agents"
	"github.com/lexcodex/autoloop/agents/loop"
	"github.com/lexcodex/autoloop/agents/pattern"
	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/internal/config"
	"github.com/lexcodex/autoloop/internal/console"
	"github.com/lexcodex/autoloop/internal/logger"
	"github.com/lexcodex/autoloop/llm"
	"github.com/lexcodex/autoloop/persistence"
	"github.com/lexcodex/autoloop/tools"
)

const continuousWarning = "Continuous mode is not recommended. It is potentially dangerous and may cause your AI to run forever or carry out actions you would not usually authorise. Use at your own risk."

func newRunCmd(s *settings) *cobra.Command {
	var noAIRepair, keepMemory bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive command loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := s.cfg
			if noAIRepair {
				cfg.AIRepair = false
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			// A second interrupt kills the process even while waiting for input.
			go func() {
				<-ctx.Done()
				stop()
			}()
			return runLoop(ctx, cfg, console.New(), keepMemory)
		},
	}
	cmd.Flags().Bool("continuous", false, "Run commands without asking for authorisation")
	cmd.Flags().Int("continuous-limit", 0, "Stop continuous mode after this many commands")
	cmd.Flags().BoolVar(&noAIRepair, "no-ai-repair", false, "Never ask the model to repair malformed replies")
	cmd.Flags().BoolVar(&keepMemory, "keep-memory", false, "Keep memories from earlier runs instead of clearing them")
	bindFlags(s.v, cmd.Flags().Lookup, map[string]string{
		config.KeyContinuous:      "continuous",
		config.KeyContinuousLimit: "continuous-limit",
	})
	return cmd
}

func runLoop(ctx context.Context, cfg config.Config, con *console.Console, keepMemory bool) error {
	if cfg.Debug {
		con.Typewriter("Debug Mode: ", console.Green, "ENABLED")
	}
	if cfg.Continuous {
		con.Typewriter("Continuous Mode: ", console.Red, "ENABLED")
		con.Typewriter("WARNING: ", console.Red, continuousWarning)
	}

	memory, err := openMemory(cfg, con)
	if err != nil {
		return err
	}
	if closer, ok := memory.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	if !keepMemory {
		if err := memory.Clear(ctx); err != nil {
			return fmt.Errorf("clear memory: %w", err)
		}
	}

	persona, err := setupPersona(con, cfg.PersonaFile)
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(ctx, providerSettings(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Shutdown(); err != nil {
			logger.Warn("backend shutdown failed", "error", err)
		}
	}()
	open := provider.Opener()

	manager := agents.NewManager(open)
	defer manager.CloseAll()

	workspace, err := tools.NewWorkspace(cfg.Workspace)
	if err != nil {
		return err
	}
	runner, err := framework.NewLocalCommandRunner(workspace.Root)
	if err != nil {
		return err
	}
	registry, err := tools.BuildRegistry(tools.Options{
		Workspace: workspace,
		Runner:    runner,
		Memory:    memory,
		Agents:    manager,
		Opener:    open,
	})
	if err != nil {
		return err
	}

	prompt := persona.FullPrompt(registry.All())
	if cfg.Debug {
		con.Typewriter("SYSTEM: ", console.Yellow, prompt)
	}
	stats, err := memory.Stats(ctx)
	if err == nil {
		con.Println("Using memory of type: " + stats.Backend)
	}

	repairer := &pattern.Repairer{Logger: logger.Logger}
	if cfg.AIRepair {
		repairer = pattern.NewRepairer(open)
		repairer.Logger = logger.Logger
	}

	agent := &loop.Agent{
		Name:     persona.Name,
		Prompt:   prompt,
		Opener:   open,
		Memory:   memory,
		Registry: registry,
		Repairer: repairer,
		Console:  con,
		Config:   loop.Config{Continuous: cfg.Continuous, ContinuousLimit: cfg.ContinuousLimit},
		Logger:   logger.Logger,
	}
	if cfg.TranscriptDir != "" {
		store, err := persistence.NewFileTranscriptStore(cfg.TranscriptDir)
		if err != nil {
			logger.Warn("transcripts disabled", "error", err)
		} else {
			agent.Transcript = store
			agent.SessionID = uuid.NewString()
			logger.Debug("recording transcript", "session", agent.SessionID, "dir", cfg.TranscriptDir)
		}
	}

	err = agent.Run(ctx)
	usage := provider.Instrumented.Usage()
	logger.Debug("backend usage", "backend", provider.Name, "sessions", usage.Sessions,
		"asks", usage.Asks, "errors", usage.Errors, "elapsed", usage.Elapsed)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openMemory opens the configured backend, falling back to the local one with
// a warning for unknown names.
func openMemory(cfg config.Config, con loop.Console) (framework.MemoryStore, error) {
	memory, err := persistence.OpenMemory(cfg.MemoryBackend, cfg.MemoryDir)
	var unsupported *persistence.UnsupportedBackendError
	if errors.As(err, &unsupported) {
		con.Typewriter("ONLY THE FOLLOWING MEMORY BACKENDS ARE SUPPORTED: ", console.Red,
			strings.Join(persistence.SupportedBackends, ", "))
		con.Typewriter("Defaulting to: ", console.Yellow, persistence.BackendLocal)
		return memory, nil
	}
	return memory, err
}

func providerSettings(cfg config.Config) llm.Settings {
	workDir, _ := filepath.Abs(".")
	return llm.Settings{
		Backend:       cfg.Backend,
		Model:         cfg.Model,
		Endpoint:      cfg.Endpoint,
		APIKey:        cfg.APIKey(cfg.Backend),
		BridgeCommand: cfg.BridgeCommand,
		WorkDir:       workDir,
		Debug:         cfg.Debug,
		Logger:        logger.Logger,
	}
}
