package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dev-jelly/jellos-sub002/internal/providers/contracts"
	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

// keychainServicePrefix scopes jellos entries inside the shared OS
// store. One service per namespace: com.jellos.secret.<namespace>.
const keychainServicePrefix = "com.jellos.secret."

// keysIndexAccount is a reserved account under each service holding a
// JSON array of the keys written through this provider. The OS stores
// expose no enumeration call, so List reads this index; Set and Delete
// maintain it.
const keysIndexAccount = "::keys-index"

// KeychainService returns the credential-store service name for a
// namespace.
func KeychainService(namespace string) string {
	return keychainServicePrefix + namespace
}

// KeychainProvider stores secrets in the OS credential store: Keychain
// on macOS, Secret Service on Linux. It supports the full operation
// set; the key index makes List possible on stores that cannot
// enumerate.
type KeychainProvider struct {
	client contracts.KeychainClient

	// mu serializes read-modify-write cycles on the key index.
	mu sync.Mutex
}

// NewKeychainProvider creates the provider with the platform client.
func NewKeychainProvider() *KeychainProvider {
	return &KeychainProvider{client: newPlatformKeychainClient()}
}

// NewKeychainProviderWithClient injects a custom client, primarily for
// tests.
func NewKeychainProviderWithClient(client contracts.KeychainClient) *KeychainProvider {
	return &KeychainProvider{client: client}
}

func (p *KeychainProvider) Type() provider.Type {
	return provider.TypeCredentialStore
}

func (p *KeychainProvider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsWrite:  true,
		SupportsList:   true,
		SupportsDelete: true,
	}
}

// Available reports whether the store exists and the session can show
// unlock prompts. A headless session counts as unavailable: every
// access would hang on a prompt nobody can answer.
func (p *KeychainProvider) Available(ctx context.Context) bool {
	return p.client.Available() && !p.client.Headless()
}

// Health probes the store with a read that is expected to miss;
// reachability matters, not the result.
func (p *KeychainProvider) Health(ctx context.Context) provider.HealthCheck {
	if !p.client.Available() {
		return provider.HealthCheck{
			Status:       provider.StatusUnavailable,
			Available:    false,
			CLIInstalled: false,
			LastChecked:  time.Now(),
			Err:          "no credential store on this platform or session",
			Help:         "Install a Secret Service daemon (gnome-keyring, KWallet) or run inside a desktop session",
		}
	}
	if p.client.Headless() {
		return provider.HealthCheck{
			Status:       provider.StatusDegraded,
			Available:    false,
			CLIInstalled: true,
			LastChecked:  time.Now(),
			Err:          "headless session detected",
			Help:         "Credential-store unlock prompts need a desktop session; prefer the env provider in CI",
		}
	}

	start := time.Now()
	_, err := p.client.Get(KeychainService("health"), "probe")
	latency := time.Since(start)

	if err != nil && !errors.Is(err, ErrKeychainItemNotFound) {
		check := provider.HealthCheck{
			Status:       provider.StatusDegraded,
			Available:    true,
			CLIInstalled: true,
			Latency:      latency,
			LastChecked:  time.Now(),
			Err:          err.Error(),
			Help:         "Check that the credential store is running and reachable",
		}
		if errors.Is(err, ErrKeychainLocked) || errors.Is(err, ErrKeychainAccessDenied) {
			check.Authenticated = provider.Bool(false)
			check.Help = "Unlock the OS keychain for this user, then retry"
		}
		return check
	}

	return provider.HealthCheck{
		Status:        provider.StatusHealthy,
		Available:     true,
		CLIInstalled:  true,
		Authenticated: provider.Bool(true),
		Latency:       latency,
		LastChecked:   time.Now(),
	}
}

// Get retrieves the value stored under key in the namespace's service.
func (p *KeychainProvider) Get(ctx context.Context, key, namespace string) (string, error) {
	value, err := p.client.Get(KeychainService(namespace), key)
	if err != nil {
		return "", p.classify(err, key, namespace)
	}
	return value, nil
}

// Set stores value and records key in the namespace's index.
func (p *KeychainProvider) Set(ctx context.Context, key, namespace, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.client.Set(KeychainService(namespace), key, value); err != nil {
		return p.classify(err, key, namespace)
	}

	keys, err := p.readIndex(namespace)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k == key {
			return nil
		}
	}
	keys = append(keys, key)
	sort.Strings(keys)
	return p.writeIndex(namespace, keys)
}

// Delete removes the entry and drops key from the namespace's index.
func (p *KeychainProvider) Delete(ctx context.Context, key, namespace string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.client.Delete(KeychainService(namespace), key); err != nil {
		return p.classify(err, key, namespace)
	}

	keys, err := p.readIndex(namespace)
	if err != nil {
		return err
	}
	kept := keys[:0]
	for _, k := range keys {
		if k != key {
			kept = append(kept, k)
		}
	}
	return p.writeIndex(namespace, kept)
}

// List returns the keys recorded in the namespace's index. Entries
// written by other tools, outside this provider, are invisible to it.
func (p *KeychainProvider) List(ctx context.Context, namespace string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readIndex(namespace)
}

func (p *KeychainProvider) readIndex(namespace string) ([]string, error) {
	raw, err := p.client.Get(KeychainService(namespace), keysIndexAccount)
	if err != nil {
		if errors.Is(err, ErrKeychainItemNotFound) {
			return nil, nil
		}
		return nil, p.classify(err, keysIndexAccount, namespace)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, fmt.Errorf("credential store: corrupt key index for namespace %q: %w", namespace, err)
	}
	return keys, nil
}

func (p *KeychainProvider) writeIndex(namespace string, keys []string) error {
	raw, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("credential store: encode key index: %w", err)
	}
	if err := p.client.Set(KeychainService(namespace), keysIndexAccount, string(raw)); err != nil {
		return fmt.Errorf("credential store: write key index: %w", err)
	}
	return nil
}

// classify maps client errors onto the typed errors of pkg/provider.
func (p *KeychainProvider) classify(err error, key, namespace string) error {
	switch {
	case errors.Is(err, ErrKeychainItemNotFound):
		return provider.NotFoundError{
			Provider:  provider.TypeCredentialStore,
			Key:       key,
			Namespace: namespace,
		}
	case errors.Is(err, ErrKeychainLocked):
		return provider.AuthError{
			Provider:    provider.TypeCredentialStore,
			Reason:      "keychain is locked",
			Remediation: "Unlock the OS keychain for this user, then retry",
		}
	case errors.Is(err, ErrKeychainAccessDenied):
		return provider.AuthError{
			Provider:    provider.TypeCredentialStore,
			Reason:      "keychain access denied",
			Remediation: "Grant this process access in the OS keychain prompt or settings",
		}
	case errors.Is(err, ErrKeychainUnsupportedPlatform):
		return provider.UnavailableError{
			Provider:    provider.TypeCredentialStore,
			Reason:      "no credential store on this platform",
			Remediation: "Use the env or cli-vault provider on this platform",
		}
	default:
		return fmt.Errorf("credential store: %w", err)
	}
}

var (
	_ provider.Provider = (*KeychainProvider)(nil)
	_ provider.Writer   = (*KeychainProvider)(nil)
	_ provider.Lister   = (*KeychainProvider)(nil)
	_ provider.Deleter  = (*KeychainProvider)(nil)
)
