package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dev-jelly/jellos-sub002/internal/config"
	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check provider health and configuration",
		Long: `Verify that secret providers are installed, reachable and signed in.

This command checks:
- Configuration file validity
- Credential store availability and lock state
- Password-manager CLI installation, version and session
- Environment provider (always available)

Every provider is probed fresh on each run; sign-in and lock state
change between invocations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := buildManager(cfg)
			if err != nil {
				cfg.Logger.Error("Configuration error: %v", err)
				return err
			}
			defer mgr.Close()
			cfg.Logger.Info("Configuration loaded successfully")

			checks := mgr.Health(cmd.Context())
			order := mgr.ProviderTypes()

			displayHealthResults(order, checks, verbose)

			// Summary
			healthy := 0
			for _, hc := range checks {
				if hc.Status == provider.StatusHealthy {
					healthy++
				}
			}

			fmt.Printf("\nSummary: %d/%d providers healthy\n", healthy, len(checks))
			if healthy < len(checks) {
				return fmt.Errorf("some providers are not healthy")
			}

			cfg.Logger.Info("All providers operational")
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show remediation steps for failing providers")

	return cmd
}

// displayHealthResults shows provider health in a formatted table,
// resolution order first.
func displayHealthResults(order []provider.Type, checks map[provider.Type]provider.HealthCheck, verbose bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "PROVIDER\tSTATUS\tVERSION\tLATENCY\tAUTH\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "--------\t------\t-------\t-------\t----\t-------\n")

	for _, typ := range order {
		hc, ok := checks[typ]
		if !ok {
			continue
		}

		status := string(hc.Status)
		switch hc.Status {
		case provider.StatusHealthy:
			status = "✓ " + status
		case provider.StatusDegraded:
			status = "⚠ " + status
		case provider.StatusUnavailable:
			status = "✗ " + status
		default:
			status = "? " + status
		}

		message := "ready"
		if hc.Err != "" {
			message = hc.Err
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			typ, status, orDash(hc.Version), latencyString(hc.Latency), authString(hc.Authenticated), message)
	}

	_ = w.Flush()

	if verbose {
		for _, typ := range order {
			hc := checks[typ]
			if hc.Status != provider.StatusHealthy && hc.Help != "" {
				fmt.Printf("\n%s:\n", typ)
				fmt.Printf("  • %s\n", hc.Help)
			}
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func authString(authenticated *bool) string {
	switch {
	case authenticated == nil:
		return "-"
	case *authenticated:
		return "yes"
	default:
		return "no"
	}
}

func latencyString(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Millisecond {
		return "<1ms"
	}
	return d.Round(time.Millisecond).String()
}
