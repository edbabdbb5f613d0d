package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dev-jelly/jellos-sub002/internal/config"
	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
)

func NewAuditCommand(cfg *config.Config) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "audit [FILE]",
		Short: "Show which provider serves each secret reference",
		Long: `Resolve every reference in a file and dump the resulting access log.

Each resolution attempt is recorded: the key, the provider that served
it or the error it failed with, and when. Without FILE the configured
env file is audited. Values never appear in the log.

Examples:
  jellos audit
  jellos audit deploy/app.yaml
  jellos audit --limit 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := buildManager(cfg)
			if err != nil {
				return err
			}
			defer mgr.Close()

			path := cfg.Definition.EnvFile
			if len(args) == 1 {
				path = args[0]
			}

			data, err := os.ReadFile(path)
			if err != nil {
				if len(args) == 0 && errors.Is(err, fs.ErrNotExist) {
					// The default env file is optional.
					fmt.Println("No accesses recorded")
					return nil
				}
				return jerrors.UserError{
					Message:    fmt.Sprintf("Cannot read %s", path),
					Suggestion: "Check the file path and permissions",
					Err:        err,
				}
			}

			// Validation resolves every distinct reference through the
			// normal chain, which is what populates the log.
			issues := mgr.ValidateText(cmd.Context(), string(data))
			for _, issue := range issues {
				cfg.Logger.Debug("unresolved during audit: %s", issue.Message)
			}

			entries := mgr.AccessLog()
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			if len(entries) == 0 {
				fmt.Println("No accesses recorded")
				return nil
			}

			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(entries)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "TIME\tKEY\tPROVIDER\tRESULT\n")
			_, _ = fmt.Fprintf(w, "----\t---\t--------\t------\n")
			for _, entry := range entries {
				result := "ok"
				if !entry.Success {
					result = entry.Error
				}
				_, _ = fmt.Fprintf(w, "%s\t%s/%s\t%s\t%s\n",
					entry.AccessedAt.Format(time.RFC3339),
					entry.Namespace, entry.Key,
					orDash(string(entry.Provider)), result)
			}
			_ = w.Flush()

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the newest N entries (0 shows all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output entries as JSON")

	return cmd
}
