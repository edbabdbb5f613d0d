package providers

import (
	"context"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

// envPrefix is the naming contract for environment-backed secrets:
// JELLOS_SECRET_<NAMESPACE>_<KEY> with both parts upper-cased and
// non-alphanumerics folded to underscores.
const envPrefix = "JELLOS_SECRET_"

// EnvName returns the environment variable carrying namespace/key.
func EnvName(key, namespace string) string {
	if namespace == "" {
		return envPrefix + foldEnvPart(key)
	}
	return envPrefix + foldEnvPart(namespace) + "_" + foldEnvPart(key)
}

func foldEnvPart(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// EnvProvider reads and writes secrets in the current process
// environment. It is the lowest-priority fallback and the only variant
// with no external dependency, so it is always available. Writes live
// exactly as long as the process; nothing is persisted.
type EnvProvider struct{}

// NewEnvProvider creates the provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

func (p *EnvProvider) Type() provider.Type {
	return provider.TypeEnv
}

func (p *EnvProvider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsWrite:  true,
		SupportsList:   true,
		SupportsDelete: true,
	}
}

// Available is always true: the process environment always exists.
func (p *EnvProvider) Available(ctx context.Context) bool {
	return true
}

// Health is always healthy. Authenticated stays nil: there is no
// session concept to report on. The environment scan doubles as the
// latency probe.
func (p *EnvProvider) Health(ctx context.Context) provider.HealthCheck {
	start := time.Now()
	_ = os.Environ()

	return provider.HealthCheck{
		Status:       provider.StatusHealthy,
		Available:    true,
		CLIInstalled: true,
		Latency:      time.Since(start),
		LastChecked:  time.Now(),
	}
}

// Get looks up the variable named by the contract. A variable set to
// the empty string is a present (empty) secret, not a miss.
func (p *EnvProvider) Get(ctx context.Context, key, namespace string) (string, error) {
	value, ok := os.LookupEnv(EnvName(key, namespace))
	if !ok {
		return "", provider.NotFoundError{
			Provider:  provider.TypeEnv,
			Key:       key,
			Namespace: namespace,
		}
	}
	return value, nil
}

// Set stores the value for the lifetime of this process.
func (p *EnvProvider) Set(ctx context.Context, key, namespace, value string) error {
	return os.Setenv(EnvName(key, namespace), value)
}

// Delete removes the variable. Deleting a missing key reports
// NotFoundError for parity with the other providers.
func (p *EnvProvider) Delete(ctx context.Context, key, namespace string) error {
	name := EnvName(key, namespace)
	if _, ok := os.LookupEnv(name); !ok {
		return provider.NotFoundError{
			Provider:  provider.TypeEnv,
			Key:       key,
			Namespace: namespace,
		}
	}
	return os.Unsetenv(name)
}

// List returns the folded key segments present for a namespace. The
// original mixed-case names are not recoverable from the environment;
// callers get the canonical JELLOS_SECRET form with the prefix and
// namespace stripped.
func (p *EnvProvider) List(ctx context.Context, namespace string) ([]string, error) {
	prefix := envPrefix
	if namespace != "" {
		prefix += foldEnvPart(namespace) + "_"
	}

	var keys []string
	for _, kv := range os.Environ() {
		name, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		keys = append(keys, name[len(prefix):])
	}
	sort.Strings(keys)
	return keys, nil
}

var (
	_ provider.Provider = (*EnvProvider)(nil)
	_ provider.Writer   = (*EnvProvider)(nil)
	_ provider.Lister   = (*EnvProvider)(nil)
	_ provider.Deleter  = (*EnvProvider)(nil)
)
