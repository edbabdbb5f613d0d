package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dev-jelly/jellos-sub002/internal/config"
	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
	"github.com/dev-jelly/jellos-sub002/internal/providers"
	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

func NewSetCommand(cfg *config.Config) *cobra.Command {
	var (
		providerName string
		fromStdin    bool
	)

	cmd := &cobra.Command{
		Use:   "set KEY [VALUE]",
		Short: "Store a secret",
		Long: `Store a secret in a writable provider.

Without --provider the highest-priority writable provider takes the
value; the OS credential store when it is available. Prefer --stdin
over a VALUE argument so the secret stays out of shell history.

Examples:
  # Store from stdin (recommended)
  echo -n 's3cr3t' | jellos set DB_PASSWORD --stdin

  # Store in an explicit namespace and provider
  jellos set production/API_KEY --stdin --provider cli-vault

  # Store an inline value (lands in shell history)
  jellos set DB_PASSWORD s3cr3t`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, namespace, err := splitKey(args[0])
			if err != nil {
				return err
			}

			target, err := parseProviderFlag(providerName)
			if err != nil {
				return err
			}

			if fromStdin && len(args) == 2 {
				return jerrors.UserError{
					Message:    "Both a VALUE argument and --stdin were given",
					Suggestion: "Pick one source for the value",
				}
			}

			mgr, tracker, err := buildManager(cfg)
			if err != nil {
				return err
			}
			defer mgr.Close()

			var value string
			switch {
			case fromStdin:
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return jerrors.UserError{
						Message:    "Failed to read value from stdin",
						Suggestion: "Pipe a value (e.g., echo -n 'value' | jellos set KEY --stdin)",
						Err:        err,
					}
				}
				value = strings.TrimSuffix(string(data), "\n")
				value = strings.TrimSuffix(value, "\r")
				if value == "" {
					return jerrors.UserError{
						Message:    "Empty value from stdin",
						Suggestion: "Pipe a value (e.g., echo -n 'value' | jellos set KEY --stdin)",
					}
				}
			case len(args) == 2:
				value = args[1]
				cfg.Logger.Warn("a value passed as an argument lands in shell history; prefer --stdin")
			default:
				return jerrors.UserError{
					Message:    "No value provided",
					Suggestion: "Pass a VALUE argument or pipe one with --stdin",
				}
			}

			// Track before storing so a provider failure cannot echo the
			// plaintext into the log.
			tracker.Track(value)

			typ, err := mgr.Set(cmd.Context(), key, namespace, value, target)
			if err != nil {
				return err
			}

			ns := namespace
			if ns == "" {
				ns = mgr.DefaultNamespace()
			}
			fmt.Printf("Stored %s/%s in %s\n", ns, key, typ)
			return nil
		},
	}

	cmd.Flags().StringVar(&providerName, "provider", "", "Provider to store in (credential-store, cli-vault, env)")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the value from stdin")

	return cmd
}

// parseProviderFlag validates an optional --provider value against the
// registered variants. Empty means "let the manager route".
func parseProviderFlag(name string) (provider.Type, error) {
	if name == "" {
		return "", nil
	}
	t := provider.Type(name)
	registry := providers.NewRegistry()
	if !registry.IsSupported(t) {
		supported := make([]string, 0, 3)
		for _, s := range registry.Supported() {
			supported = append(supported, string(s))
		}
		return "", jerrors.UserError{
			Message:    fmt.Sprintf("Unknown provider '%s'", name),
			Suggestion: "Use one of: " + strings.Join(supported, ", "),
		}
	}
	return t, nil
}
