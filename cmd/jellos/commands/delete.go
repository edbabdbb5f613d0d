package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dev-jelly/jellos-sub002/internal/config"
	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

func NewDeleteCommand(cfg *config.Config) *cobra.Command {
	var providerName string

	cmd := &cobra.Command{
		Use:   "delete KEY",
		Short: "Delete a stored secret",
		Long: `Delete a secret from a provider that supports deletion.

Without --provider the highest-priority provider that can delete takes
the operation. Deleting a key that does not exist is an error.

Examples:
  jellos delete OLD_API_KEY
  jellos delete production/DB_PASSWORD --provider credential-store`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, namespace, err := splitKey(args[0])
			if err != nil {
				return err
			}

			target, err := parseProviderFlag(providerName)
			if err != nil {
				return err
			}

			mgr, _, err := buildManager(cfg)
			if err != nil {
				return err
			}
			defer mgr.Close()

			typ, err := mgr.Delete(cmd.Context(), key, namespace, target)
			if err != nil {
				if provider.IsNotFound(err) {
					return jerrors.UserError{
						Message:    fmt.Sprintf("Secret '%s' not found", args[0]),
						Suggestion: "Run 'jellos list' to see stored keys",
						Err:        err,
					}
				}
				return err
			}

			ns := namespace
			if ns == "" {
				ns = mgr.DefaultNamespace()
			}
			fmt.Printf("Deleted %s/%s from %s\n", ns, key, typ)
			return nil
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "", "Provider to delete from (credential-store, cli-vault, env)")

	return cmd
}
