package commands

import (
	"fmt"
	"sort"

	"github.com/dev-jelly/jellos-sub002/internal/config"
	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
	"github.com/dev-jelly/jellos-sub002/internal/logging"
	"github.com/dev-jelly/jellos-sub002/internal/manager"
	"github.com/dev-jelly/jellos-sub002/internal/masking"
	"github.com/dev-jelly/jellos-sub002/internal/providers"
	"github.com/dev-jelly/jellos-sub002/internal/secretref"
	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

// buildManager loads the configuration and assembles the manager every
// command resolves through. The returned tracker is installed on the
// logger before the first lookup, so a secret resolved by this
// invocation can never reach the log sink unmasked.
func buildManager(cfg *config.Config) (*manager.Manager, *masking.Tracker, error) {
	if err := cfg.Load(); err != nil {
		return nil, nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New(false, false)
	}

	tracker := masking.NewTracker()
	cfg.Logger.EnableMasking(tracker)

	opts := cfg.Definition.ManagerOptions()
	if cfg.Namespace != "" {
		opts.DefaultNamespace = cfg.Namespace
	}

	provs := providers.DefaultProviders(cfg.Definition.ProviderConfig())
	return manager.New(opts, cfg.Logger, provs...), tracker, nil
}

// splitKey interprets a KEY argument, accepting the NAMESPACE/KEY form
// used inside reference tokens. A bare key leaves namespace empty so
// the manager applies its default.
func splitKey(arg string) (key, namespace string, err error) {
	ref, err := secretref.ParseBody(arg)
	if err != nil {
		return "", "", jerrors.UserError{
			Message:    fmt.Sprintf("Invalid key '%s'", arg),
			Suggestion: "Use KEY or NAMESPACE/KEY (e.g., DATABASE_URL or production/DATABASE_URL)",
			Err:        err,
		}
	}
	return ref.Key, ref.Namespace, nil
}

// sortedTypes returns the map's provider types in lexical order so
// table output is stable between runs.
func sortedTypes[V any](m map[provider.Type]V) []provider.Type {
	types := make([]provider.Type, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
