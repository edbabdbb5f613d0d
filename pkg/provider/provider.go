// Package provider defines the core interfaces and types for secret store
// providers in jellos.
//
// A provider is a thin adapter over an external credential store: the OS
// credential store, a password-manager CLI, or the process environment.
// The resolution engine in internal/manager treats all of them uniformly,
// trying each in configured priority order until one yields a value.
//
// # Capability Model
//
// Every provider implements the mandatory capability set: an availability
// probe, an on-demand health check, and Get. Write, list and delete are
// optional. Implementations expose them by implementing the Writer, Lister
// and Deleter interfaces and by reporting them in Capabilities, so callers
// select providers by declared capability instead of probing for missing
// methods at runtime.
//
// # Error Handling
//
// Implementations must distinguish three outcomes of a lookup:
//
//   - the secret exists: return its value
//   - the secret does not exist at this backend: return NotFoundError,
//     which tells the resolver to continue with the next provider
//   - the backend cannot answer right now (not signed in, vault locked,
//     wrong platform): return AuthError or UnavailableError; the resolver
//     records the failure and continues with the next provider
//
// A missing secret is never reported as ("", nil): callers always receive
// either a value or a typed error.
//
// # Remediation Text
//
// Auth and availability failures describe a fixable operator problem, so
// the corresponding error types and every HealthCheck carry human-readable
// remediation text. Surfacing the fix is part of the contract, not
// incidental logging.
//
// # Threading
//
// Provider implementations must be safe for concurrent use. Health checks
// and batch validations fan out across providers from multiple goroutines.
package provider

import (
	"context"
	"time"
)

// Type identifies a provider variant. The value doubles as the stable
// config/wire name used in priority maps and health reports.
type Type string

const (
	// TypeCredentialStore is the OS credential store (Keychain on macOS,
	// Secret Service on Linux).
	TypeCredentialStore Type = "credential-store"

	// TypeCLIVault is an external password-manager CLI with
	// vault/item/field semantics, reached by shelling out.
	TypeCLIVault Type = "cli-vault"

	// TypeEnv reads and writes the current process environment.
	TypeEnv Type = "env"
)

// Provider is the mandatory capability set shared by every variant.
type Provider interface {
	// Type returns the variant's fixed type tag.
	Type() Type

	// Available reports whether the backend can currently serve lookups.
	// The resolver probes this once during initialization, not per lookup;
	// a provider that degrades mid-session is still tried and its failures
	// are absorbed by the fallback chain.
	Available(ctx context.Context) bool

	// Health performs a fresh diagnostic check. Results must not be cached
	// by the implementation: sign-in and lock state can change between
	// calls.
	Health(ctx context.Context) HealthCheck

	// Get returns the value stored under key within namespace.
	Get(ctx context.Context, key, namespace string) (string, error)

	// Capabilities reports which optional operations this variant
	// supports. The markers must agree with the Writer/Lister/Deleter
	// interfaces the concrete type implements.
	Capabilities() Capabilities
}

// Writer is implemented by providers that can store secrets.
type Writer interface {
	// Set stores value under key within namespace, replacing any existing
	// entry.
	Set(ctx context.Context, key, namespace, value string) error
}

// Lister is implemented by providers that can enumerate stored keys.
type Lister interface {
	// List returns the keys stored within namespace. Order is unspecified.
	List(ctx context.Context, namespace string) ([]string, error)
}

// Deleter is implemented by providers that can remove secrets.
type Deleter interface {
	// Delete removes the entry under key within namespace. Deleting a
	// missing entry returns NotFoundError.
	Delete(ctx context.Context, key, namespace string) error
}

// Capabilities describes the optional operations a provider supports.
type Capabilities struct {
	SupportsWrite  bool `json:"supportsWrite"`
	SupportsList   bool `json:"supportsList"`
	SupportsDelete bool `json:"supportsDelete"`
}

// HealthStatus is the coarse classification of a health check result.
type HealthStatus string

const (
	// StatusHealthy means the backend is reachable and ready to serve.
	StatusHealthy HealthStatus = "healthy"

	// StatusDegraded means the backend is installed but cannot serve
	// lookups right now (locked vault, expired session, headless host).
	StatusDegraded HealthStatus = "degraded"

	// StatusUnavailable means the backend is absent on this host.
	StatusUnavailable HealthStatus = "unavailable"
)

// HealthCheck is a point-in-time diagnostic snapshot of one provider.
type HealthCheck struct {
	Status       HealthStatus `json:"status"`
	Available    bool         `json:"available"`
	CLIInstalled bool         `json:"cliInstalled"`

	// Authenticated is nil when the variant has no session concept
	// (the env provider, for example).
	Authenticated *bool `json:"authenticated,omitempty"`

	Version     string        `json:"version,omitempty"`
	Latency     time.Duration `json:"latency,omitempty"`
	LastChecked time.Time     `json:"lastChecked"`
	Err         string        `json:"error,omitempty"`

	// Help carries remediation text for whatever failure mode Err
	// describes. Empty when the provider is healthy.
	Help string `json:"helpText,omitempty"`
}

// Bool returns a pointer to b, for HealthCheck.Authenticated.
func Bool(b bool) *bool { return &b }
