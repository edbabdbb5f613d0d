package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dev-jelly/jellos-sub002/internal/config"
	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
)

const exampleConfig = `# jellos project configuration. Every field is optional; a missing
# file behaves exactly like this one with everything commented out.

# Namespace for keys and references that do not name one.
defaultNamespace: development

# Fail resolution when a reference cannot be resolved, instead of
# leaving the raw token in place.
# strictMissing: true

# Env file 'jellos exec' loads (also the 'jellos audit' default).
envFile: .env

cache:
  enabled: true
  # Seconds a resolved value may be served from memory.
  timeoutSeconds: 300

# Provider resolution order; higher wins. Unlisted providers keep
# their built-in weight.
# priorities:
#   credential-store: 3
#   cli-vault: 2
#   env: 1

# providers:
#   cliVault:
#     binary: op
`

const exampleEnv = `# Variables for 'jellos exec'. Plain values pass through; references
# are resolved through the provider chain and masked in output.
# DATABASE_URL=${secret:DATABASE_URL}
# API_KEY=${secret:production/API_KEY}
# DEBUG=true
`

func NewInitCommand(cfg *config.Config) *cobra.Command {
	var withEnv bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new jellos configuration",
		Long:  "Create a jellos.yaml file with a commented example configuration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.Path
			if path == "" {
				path = config.DefaultFileName
			}

			if _, err := os.Stat(path); err == nil {
				return jerrors.UserError{
					Message:    fmt.Sprintf("%s already exists", path),
					Suggestion: "Remove it first if you want to reinitialize",
				}
			}

			if err := os.WriteFile(path, []byte(exampleConfig), 0o644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			cfg.Logger.Info("Created %s", path)

			if withEnv {
				if _, err := os.Stat(config.DefaultEnvFile); err == nil {
					cfg.Logger.Warn("%s already exists, left untouched", config.DefaultEnvFile)
				} else if err := os.WriteFile(config.DefaultEnvFile, []byte(exampleEnv), 0o600); err != nil {
					return fmt.Errorf("failed to write env file: %w", err)
				} else {
					cfg.Logger.Info("Created %s", config.DefaultEnvFile)
				}
			}

			cfg.Logger.Info("Next steps:")
			cfg.Logger.Info("  1. Run 'jellos doctor' to check provider health")
			cfg.Logger.Info("  2. Store a secret: echo -n 'value' | jellos set MY_KEY --stdin")
			cfg.Logger.Info("  3. Reference it from %s and run 'jellos exec -- <your-command>'", config.DefaultEnvFile)

			return nil
		},
	}

	cmd.Flags().BoolVar(&withEnv, "with-env", false, "Also create an example .env file")

	return cmd
}
