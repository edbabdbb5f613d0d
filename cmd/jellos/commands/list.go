package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dev-jelly/jellos-sub002/internal/config"
)

func NewListCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [NAMESPACE]",
		Short: "List stored secret keys",
		Long: `List the keys stored in a namespace, per provider.

Only keys are shown, never values. Providers that cannot enumerate
(the env provider reads whatever is in the process environment) are
skipped; providers that fail to list are reported as warnings and do
not hide the keys the others returned.

Examples:
  jellos list
  jellos list production`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespace := ""
			if len(args) == 1 {
				namespace = args[0]
			}

			mgr, _, err := buildManager(cfg)
			if err != nil {
				return err
			}
			defer mgr.Close()

			keysByProvider, listErr := mgr.List(cmd.Context(), namespace)

			// Merge so a key stored in two providers is one row.
			sources := make(map[string][]string)
			for _, typ := range sortedTypes(keysByProvider) {
				for _, key := range keysByProvider[typ] {
					sources[key] = append(sources[key], string(typ))
				}
			}

			ns := namespace
			if ns == "" {
				ns = mgr.DefaultNamespace()
			}

			if len(sources) == 0 {
				if listErr != nil {
					return listErr
				}
				fmt.Printf("No secrets stored in namespace '%s'\n", ns)
				return nil
			}

			keys := make([]string, 0, len(sources))
			for key := range sources {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			fmt.Printf("Secrets in namespace '%s':\n\n", ns)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "KEY\tPROVIDERS\n")
			_, _ = fmt.Fprintf(w, "---\t---------\n")
			for _, key := range keys {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", key, strings.Join(sources[key], ", "))
			}
			_ = w.Flush()

			if listErr != nil {
				cfg.Logger.Warn("some providers could not list: %v", listErr)
			}
			return nil
		},
	}

	return cmd
}
