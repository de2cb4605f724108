package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lexcodex/autoloop/internal/config"
	"github.com/lexcodex/autoloop/internal/logger"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// settings is shared by every subcommand; it is filled in by the root
// command's PersistentPreRunE.
type settings struct {
	v   *viper.Viper
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	s := &settings{v: viper.New()}
	root := &cobra.Command{
		Use:           "autoloop",
		Short:         "Autonomous command loop driven by a chat model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(s.v)
			if err != nil {
				return err
			}
			s.cfg = cfg
			return logger.Configure(cfg.LogLevel, cfg.LogFile)
		},
	}
	flags := root.PersistentFlags()
	flags.String("backend", "", "Chat backend: bridge, ollama, openai, anthropic or gemini")
	flags.String("model", "", "Model name for the selected backend")
	flags.String("endpoint", "", "Backend endpoint override")
	flags.String("bridge-command", "", "Command line launching the browser bridge helper")
	flags.StringP("use-memory", "m", "", "Memory backend: local, sqlite or none")
	flags.String("memory-dir", "", "Directory holding persisted memories")
	flags.String("workspace", "", "Directory the file and shell commands are confined to")
	flags.String("persona", "", "Persona settings file")
	flags.Bool("debug", false, "Enable debug output")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-file", "", "Write logs to this file instead of stderr")
	flags.String("env-file", "", "Dotenv file to read")
	bindFlags(s.v, flags.Lookup, map[string]string{
		config.KeyBackend:       "backend",
		config.KeyModel:         "model",
		config.KeyEndpoint:      "endpoint",
		config.KeyBridgeCommand: "bridge-command",
		config.KeyMemoryBackend: "use-memory",
		config.KeyMemoryDir:     "memory-dir",
		config.KeyWorkspace:     "workspace",
		config.KeyPersonaFile:   "persona",
		config.KeyDebug:         "debug",
		config.KeyLogLevel:      "log-level",
		config.KeyLogFile:       "log-file",
		config.KeyEnvFile:       "env-file",
	})

	root.AddCommand(newRunCmd(s), newRepairCmd(s), newMemoryCmd(s), newCommandsCmd(s))
	return root
}
