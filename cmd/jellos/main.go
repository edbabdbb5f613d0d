package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dev-jelly/jellos-sub002/cmd/jellos/commands"
	"github.com/dev-jelly/jellos-sub002/internal/config"
	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
	"github.com/dev-jelly/jellos-sub002/internal/execenv"
	"github.com/dev-jelly/jellos-sub002/internal/logging"
	"github.com/dev-jelly/jellos-sub002/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := run()

	// Locked buffers must be wiped before the process exits, including
	// the exit-code path for a failed child command.
	secure.Purge()

	if err == nil {
		return
	}
	var exit execenv.ExitError
	if errors.As(err, &exit) {
		os.Exit(exit.Code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", jerrors.SimplifyError(err))
	os.Exit(1)
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
		namespace  string
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "jellos",
		Short: "Resolve secret references and keep secrets out of your output",
		Long: `jellos resolves ${secret:KEY} references against the OS credential
store, a password-manager CLI and the process environment, loads .env
files that embed them, and masks every resolved value in logs and
command output.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			// Update config with parsed values
			cfg.Path = configFile
			cfg.Logger = logger
			cfg.Namespace = namespace
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultFileName, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "", "Namespace for unqualified keys (overrides the configured default)")

	// Add commands
	rootCmd.AddCommand(
		commands.NewInitCommand(cfg),
		commands.NewGetCommand(cfg),
		commands.NewSetCommand(cfg),
		commands.NewDeleteCommand(cfg),
		commands.NewListCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewAuditCommand(cfg),
		commands.NewValidateCommand(cfg),
		commands.NewRenderCommand(cfg),
		commands.NewExecCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
