package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dev-jelly/jellos-sub002/pkg/exec"
	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

// defaultVaultBinary is the password-manager CLI jellos shells out to
// unless configured otherwise.
const defaultVaultBinary = "vault"

// vaultNamePrefix scopes jellos items inside the manager: one vault per
// namespace, named Jellos-<namespace>.
const vaultNamePrefix = "Jellos-"

// vaultSecretField is the item field the secret value lives under.
const vaultSecretField = "password"

// VaultName returns the vault holding a namespace's items.
func VaultName(namespace string) string {
	return vaultNamePrefix + namespace
}

// VaultReference renders the CLI's reference syntax for one secret:
// vault://Jellos-<namespace>/<key>/password.
func VaultReference(key, namespace string) string {
	return fmt.Sprintf("vault://%s/%s/%s", VaultName(namespace), key, vaultSecretField)
}

// VaultCLIProvider reads secrets from an external password-manager CLI.
// All process execution goes through an injected CommandExecutor so
// tests can script the CLI's behavior. The provider is read-only:
// writes belong to the manager's own tooling, not to jellos.
type VaultCLIProvider struct {
	binary   string
	executor exec.CommandExecutor
}

// NewVaultCLIProvider creates the provider for the given binary name.
// An empty name selects the default.
func NewVaultCLIProvider(binary string) *VaultCLIProvider {
	return NewVaultCLIProviderWithExecutor(binary, exec.Default())
}

// NewVaultCLIProviderWithExecutor injects a custom executor, primarily
// for tests.
func NewVaultCLIProviderWithExecutor(binary string, executor exec.CommandExecutor) *VaultCLIProvider {
	if binary == "" {
		binary = defaultVaultBinary
	}
	return &VaultCLIProvider{binary: binary, executor: executor}
}

func (p *VaultCLIProvider) Type() provider.Type {
	return provider.TypeCLIVault
}

func (p *VaultCLIProvider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsWrite:  false,
		SupportsList:   true,
		SupportsDelete: false,
	}
}

// Binary returns the CLI name this provider shells out to.
func (p *VaultCLIProvider) Binary() string {
	return p.binary
}

// Available reports whether the CLI is installed and signed in.
func (p *VaultCLIProvider) Available(ctx context.Context) bool {
	if !exec.Installed(p.binary) {
		return false
	}
	_, _, err := p.executor.Execute(ctx, p.binary, "account", "list", "--format", "json")
	return err == nil
}

// Health reports CLI presence, version and session state in one
// snapshot.
func (p *VaultCLIProvider) Health(ctx context.Context) provider.HealthCheck {
	if !exec.Installed(p.binary) {
		return provider.HealthCheck{
			Status:       provider.StatusUnavailable,
			Available:    false,
			CLIInstalled: false,
			LastChecked:  time.Now(),
			Err:          fmt.Sprintf("%s CLI not found in PATH", p.binary),
			Help:         fmt.Sprintf("Install the %s CLI and make sure it is on PATH", p.binary),
		}
	}

	check := provider.HealthCheck{
		CLIInstalled: true,
	}
	if out, _, err := p.executor.Execute(ctx, p.binary, "--version"); err == nil {
		check.Version = strings.TrimSpace(string(out))
	}

	start := time.Now()
	stdout, stderr, err := p.executor.Execute(ctx, p.binary, "account", "list", "--format", "json")
	check.Latency = time.Since(start)
	check.LastChecked = time.Now()

	if err != nil {
		check.Status = provider.StatusDegraded
		check.Available = false
		check.Authenticated = provider.Bool(false)
		check.Err = commandFailure(err, stderr)
		check.Help = fmt.Sprintf("Sign in first: %s signin", p.binary)
		return check
	}

	var accounts []json.RawMessage
	if jsonErr := json.Unmarshal(stdout, &accounts); jsonErr != nil || len(accounts) == 0 {
		check.Status = provider.StatusDegraded
		check.Available = false
		check.Authenticated = provider.Bool(false)
		check.Err = "no accounts configured"
		check.Help = fmt.Sprintf("Add an account: %s account add", p.binary)
		return check
	}

	check.Status = provider.StatusHealthy
	check.Available = true
	check.Authenticated = provider.Bool(true)
	return check
}

// Get reads one secret through the CLI's reference syntax. Output has
// its trailing newline stripped; everything else is the value verbatim.
func (p *VaultCLIProvider) Get(ctx context.Context, key, namespace string) (string, error) {
	ref := VaultReference(key, namespace)
	stdout, stderr, err := p.executor.Execute(ctx, p.binary, "read", ref)
	if err != nil {
		return "", p.classify(err, stderr, key, namespace)
	}
	return trimTrailingNewline(string(stdout)), nil
}

// vaultItem is the slice element of `item list --format json`.
type vaultItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// List enumerates item titles in the namespace's vault.
func (p *VaultCLIProvider) List(ctx context.Context, namespace string) ([]string, error) {
	stdout, stderr, err := p.executor.Execute(ctx,
		p.binary, "item", "list", "--vault", VaultName(namespace), "--format", "json")
	if err != nil {
		classified := p.classify(err, stderr, "", namespace)
		// A namespace without a vault yet simply has no keys.
		if provider.IsNotFound(classified) {
			return nil, nil
		}
		return nil, classified
	}

	var items []vaultItem
	if err := json.Unmarshal(stdout, &items); err != nil {
		return nil, fmt.Errorf("cli-vault: parse item list: %w", err)
	}

	keys := make([]string, 0, len(items))
	for _, item := range items {
		if item.Title != "" {
			keys = append(keys, item.Title)
		}
	}
	return keys, nil
}

// classify maps CLI failures onto the typed errors of pkg/provider by
// inspecting stderr. Password-manager CLIs signal everything through
// exit codes and message text, so text matching is the contract here.
func (p *VaultCLIProvider) classify(err error, stderr []byte, key, namespace string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("cli-vault: %s timed out: %w", p.binary, err)
	}

	msg := strings.ToLower(string(stderr))
	if msg == "" {
		msg = strings.ToLower(err.Error())
	}

	switch {
	case strings.Contains(msg, "executable file not found"),
		strings.Contains(msg, "command not found"):
		return provider.UnavailableError{
			Provider:    provider.TypeCLIVault,
			Reason:      fmt.Sprintf("%s CLI not found in PATH", p.binary),
			Remediation: fmt.Sprintf("Install the %s CLI and make sure it is on PATH", p.binary),
		}
	case strings.Contains(msg, "not signed in"),
		strings.Contains(msg, "session expired"),
		strings.Contains(msg, "no accounts"),
		strings.Contains(msg, "authentication required"):
		return provider.AuthError{
			Provider:    provider.TypeCLIVault,
			Reason:      "not signed in",
			Remediation: fmt.Sprintf("Sign in first: %s signin", p.binary),
		}
	case strings.Contains(msg, "locked"):
		return provider.AuthError{
			Provider:    provider.TypeCLIVault,
			Reason:      "vault is locked",
			Remediation: fmt.Sprintf("Unlock the vault: %s unlock", p.binary),
		}
	case strings.Contains(msg, "isn't a vault"),
		strings.Contains(msg, "vault not found"),
		strings.Contains(msg, "isn't an item"),
		strings.Contains(msg, "not found"):
		return provider.NotFoundError{
			Provider:  provider.TypeCLIVault,
			Key:       key,
			Namespace: namespace,
		}
	default:
		return fmt.Errorf("cli-vault: %s failed: %s", p.binary, commandFailure(err, stderr))
	}
}

// commandFailure renders stderr when present, the raw error otherwise.
func commandFailure(err error, stderr []byte) string {
	if s := strings.TrimSpace(string(stderr)); s != "" {
		return s
	}
	return err.Error()
}

func trimTrailingNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

var (
	_ provider.Provider = (*VaultCLIProvider)(nil)
	_ provider.Lister   = (*VaultCLIProvider)(nil)
)
