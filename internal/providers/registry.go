// Package providers implements the three built-in secret store
// variants and the registry that constructs them: the OS credential
// store, an external password-manager CLI, and the process
// environment.
package providers

import (
	"fmt"
	"sort"

	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

// Default priority weights; higher wins during resolution.
const (
	PriorityCredentialStore = 3
	PriorityCLIVault        = 2
	PriorityEnv             = 1
)

// DefaultPriorities returns the built-in priority map. Callers may
// override individual weights through configuration.
func DefaultPriorities() map[provider.Type]int {
	return map[provider.Type]int{
		provider.TypeCredentialStore: PriorityCredentialStore,
		provider.TypeCLIVault:        PriorityCLIVault,
		provider.TypeEnv:             PriorityEnv,
	}
}

// Config carries the per-provider settings the config file can adjust.
type Config struct {
	// VaultBinary is the password-manager CLI name. Empty selects the
	// default.
	VaultBinary string
}

// Factory constructs one provider variant from its configuration.
type Factory func(cfg Config) (provider.Provider, error)

// Registry maps type tags to factories.
type Registry struct {
	factories map[provider.Type]Factory
}

// NewRegistry returns a registry with the three built-in variants
// registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[provider.Type]Factory)}

	r.Register(provider.TypeCredentialStore, func(Config) (provider.Provider, error) {
		return NewKeychainProvider(), nil
	})
	r.Register(provider.TypeCLIVault, func(cfg Config) (provider.Provider, error) {
		return NewVaultCLIProvider(cfg.VaultBinary), nil
	})
	r.Register(provider.TypeEnv, func(Config) (provider.Provider, error) {
		return NewEnvProvider(), nil
	})

	return r
}

// Register adds or replaces the factory for a type tag.
func (r *Registry) Register(t provider.Type, f Factory) {
	r.factories[t] = f
}

// Create constructs the provider registered under t.
func (r *Registry) Create(t provider.Type, cfg Config) (provider.Provider, error) {
	f, ok := r.factories[t]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", t)
	}
	return f(cfg)
}

// Supported lists the registered type tags in stable order.
func (r *Registry) Supported() []provider.Type {
	types := make([]provider.Type, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// IsSupported reports whether a type tag has a registered factory.
func (r *Registry) IsSupported(t provider.Type) bool {
	_, ok := r.factories[t]
	return ok
}

// DefaultProviders constructs all built-in variants. The resulting
// slice is unordered; the manager sorts by priority.
func DefaultProviders(cfg Config) []provider.Provider {
	return []provider.Provider{
		NewKeychainProvider(),
		NewVaultCLIProvider(cfg.VaultBinary),
		NewEnvProvider(),
	}
}
