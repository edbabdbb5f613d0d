package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dev-jelly/jellos-sub002/internal/config"
	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
	"github.com/dev-jelly/jellos-sub002/internal/manager"
	"github.com/dev-jelly/jellos-sub002/internal/secretref"
)

func NewValidateCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "validate [FILE]",
		Short: "Check that every secret reference in a file resolves",
		Long: `Scan a file for ${secret:...} references and try to resolve each one.

Nothing is printed for references that resolve. Unresolvable and
malformed references are reported, and the exit code is non-zero when
any are found, so the command works as a pre-deploy gate. Reads stdin
when FILE is '-' or absent.

Examples:
  jellos validate .env
  jellos validate deploy/app.yaml --json
  cat .env | jellos validate`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
				name = "stdin"
			)
			if len(args) == 1 && args[0] != "-" {
				name = args[0]
				data, err = os.ReadFile(name)
				if err != nil {
					return jerrors.UserError{
						Message:    fmt.Sprintf("Cannot read %s", name),
						Suggestion: "Check the file path and permissions",
						Err:        err,
					}
				}
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return jerrors.UserError{
						Message:    "Cannot read stdin",
						Err:        err,
					}
				}
			}

			mgr, _, err := buildManager(cfg)
			if err != nil {
				return err
			}
			defer mgr.Close()

			text := string(data)
			refs := secretref.Find(text)
			issues := mgr.ValidateText(cmd.Context(), text)

			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(issues); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
			} else {
				for _, issue := range issues {
					if issue.Reference != "" {
						fmt.Printf("✗ %s: %s\n", issue.Reference, issue.Message)
					} else {
						fmt.Printf("✗ %s\n", issue.Message)
					}
				}
			}

			if len(issues) > 0 {
				return jerrors.UserError{
					Message:    fmt.Sprintf("%d of %d references in %s cannot be resolved", len(issues), len(refs)+countMalformed(issues), name),
					Suggestion: "Run 'jellos doctor' to check provider status, or 'jellos set' to store the missing secrets",
				}
			}

			if !jsonOutput {
				fmt.Printf("✓ all %d references in %s resolve\n", len(refs), name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output issues as JSON")

	return cmd
}

// countMalformed counts issues without a reference token; Scan excluded
// them from refs, so the total needs them back.
func countMalformed(issues []manager.ValidationError) int {
	n := 0
	for _, issue := range issues {
		if issue.Reference == "" {
			n++
		}
	}
	return n
}
