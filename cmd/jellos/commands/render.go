package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dev-jelly/jellos-sub002/internal/config"
	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
	"github.com/dev-jelly/jellos-sub002/internal/secretref"
)

func NewRenderCommand(cfg *config.Config) *cobra.Command {
	var (
		outputPath  string
		permissions string
	)

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Substitute secret references in a file",
		Long: `Render a file with every ${secret:...} reference replaced by its value.

The rendered text goes to stdout unless --out names a file. Rendering
fails when any reference cannot be resolved, so a half-rendered file
never reaches a deploy. Output files default to owner-only permissions.

Examples:
  jellos render app.yaml.tpl > app.yaml
  jellos render .env.template --out .env.production
  jellos render config.json --out config.json --permissions 0640`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Parse permissions
			perm64, err := strconv.ParseUint(permissions, 8, 32)
			if err != nil {
				return jerrors.UserError{
					Message:    fmt.Sprintf("Invalid permissions '%s'", permissions),
					Suggestion: "Use octal like '0600'",
				}
			}
			perms := os.FileMode(perm64)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return jerrors.UserError{
					Message:    fmt.Sprintf("Cannot read %s", args[0]),
					Suggestion: "Check the file path and permissions",
					Err:        err,
				}
			}

			mgr, _, err := buildManager(cfg)
			if err != nil {
				return err
			}
			defer mgr.Close()

			rendered, err := mgr.InjectText(cmd.Context(), string(data))
			if err != nil {
				return err
			}

			// In non-strict mode unresolved references survive as raw
			// tokens; shipping those would hand the deploy a broken file.
			if remaining := secretref.Find(rendered); len(remaining) > 0 {
				return jerrors.UserError{
					Message:    fmt.Sprintf("%d references in %s could not be resolved", len(remaining), args[0]),
					Suggestion: fmt.Sprintf("Run 'jellos validate %s' to see which ones", args[0]),
				}
			}

			if outputPath == "" {
				fmt.Print(rendered)
				return nil
			}

			if err := os.WriteFile(outputPath, []byte(rendered), perms); err != nil {
				return jerrors.UserError{
					Message:    fmt.Sprintf("Cannot write %s", outputPath),
					Suggestion: "Check directory permissions",
					Err:        err,
				}
			}

			// Security reminder
			cfg.Logger.Warn("%s contains secrets - ensure it's added to .gitignore", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputPath, "out", "", "Write to a file instead of stdout")
	cmd.Flags().StringVar(&permissions, "permissions", "0600", "Output file permissions in octal")

	return cmd
}
