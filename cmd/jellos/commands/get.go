package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dev-jelly/jellos-sub002/internal/config"
	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
)

func NewGetCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Resolve a single secret value",
		Long: `Resolve one secret through the provider chain and print it.

Providers are tried in priority order: OS credential store, then the
password-manager CLI, then JELLOS_SECRET_* environment variables. By
default only the raw value is printed, making it suitable for scripting.

Examples:
  # Resolve a key in the default namespace
  jellos get DATABASE_URL

  # Resolve a key in an explicit namespace
  jellos get production/API_KEY

  # Include resolution metadata
  jellos get API_KEY --json

  # Use in scripts
  export DB_URL=$(jellos get DATABASE_URL)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, namespace, err := splitKey(args[0])
			if err != nil {
				return err
			}

			mgr, _, err := buildManager(cfg)
			if err != nil {
				return err
			}
			defer mgr.Close()

			res, err := mgr.Get(cmd.Context(), key, namespace)
			if err != nil {
				return err
			}
			if !res.Resolved {
				return jerrors.UserError{
					Message:    fmt.Sprintf("Secret '%s' not found in any available provider", args[0]),
					Suggestion: "Run 'jellos list' to see stored keys, or 'jellos doctor' to check provider status",
				}
			}

			if jsonOutput {
				ns := namespace
				if ns == "" {
					ns = mgr.DefaultNamespace()
				}
				output := map[string]interface{}{
					"key":       key,
					"namespace": ns,
					"value":     res.Value,
					"source":    string(res.Source),
					"fromCache": res.FromCache,
				}

				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(output); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
			} else {
				// Raw value output (default)
				fmt.Print(res.Value)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format with metadata")

	return cmd
}
