package commands

import (
	"github.com/spf13/cobra"

	"github.com/dev-jelly/jellos-sub002/internal/config"
	"github.com/dev-jelly/jellos-sub002/internal/envload"
	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
	"github.com/dev-jelly/jellos-sub002/internal/execenv"
)

func NewExecCommand(cfg *config.Config) *cobra.Command {
	var (
		envFile    string
		override   bool
		printVars  bool
		strict     bool
		workingDir string
		timeout    int
	)

	cmd := &cobra.Command{
		Use:   "exec [flags] -- COMMAND [args...]",
		Short: "Run a command with secrets loaded into its environment",
		Long: `Load the env file, resolve its secret references, and run a command
with the result in its environment. The child's stdout and stderr pass
through a masking filter, so a resolved secret echoed by the command
never reaches the terminal in plaintext.

The command must be separated from jellos arguments with '--'.
The child's exit code becomes the jellos exit code.

Examples:
  jellos exec -- npm start
  jellos exec --env-file .env.production -- docker compose up
  jellos exec --print --timeout 60 -- python app.py`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return jerrors.UserError{
					Message:    "No command specified",
					Suggestion: "Use: jellos exec -- <command> [args...]",
				}
			}

			// Advisory; suspicious commands still run.
			if err := execenv.ValidateCommand(args); err != nil {
				cfg.Logger.Warn("Command validation: %s", err.Error())
			}

			mgr, tracker, err := buildManager(cfg)
			if err != nil {
				return err
			}
			defer mgr.Close()

			path := envFile
			if path == "" {
				path = cfg.Definition.EnvFile
			}

			loader := envload.New(envload.Options{
				Path:     path,
				Override: override,
				Strict:   strict || cfg.Definition.StrictMissing,
			}, mgr, tracker, cfg.Logger)

			result, err := loader.Load(cmd.Context())
			if err != nil {
				return err
			}
			for _, msg := range result.Errors {
				cfg.Logger.Warn("%s", msg)
			}
			if result.Loaded > 0 {
				cfg.Logger.Info("Loaded %d environment variables (%d masked)", result.Loaded, result.Masked)
			}

			executor := execenv.New(cfg.Logger, tracker)
			return executor.Exec(cmd.Context(), execenv.ExecOptions{
				Command:    args,
				PrintVars:  printVars,
				LoadedVars: result.LoadedVars,
				WorkingDir: workingDir,
				Timeout:    timeout,
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Env file to load (default from configuration)")
	cmd.Flags().BoolVar(&override, "override", false, "Let env file values replace variables already set")
	cmd.Flags().BoolVar(&printVars, "print", false, "Print loaded variable names (values masked)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on the first unresolved reference or read error")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "Working directory for the command")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Command timeout in seconds (0 for no timeout)")

	return cmd
}
