// Package manager implements the secret resolution engine: priority-ordered
// provider fallback, TTL caching of resolved values, reference injection
// into text and configuration structures, and the audit surfaces (access
// log, health report) the CLI renders.
//
// # Resolution
//
// A lookup consults the cache, then tries each available provider in
// descending priority order, strictly sequentially. A NotFoundError moves
// the chain to the next provider; any other failure is recorded in the
// access log and the chain continues. The first value wins and is cached.
// An exhausted chain yields an unresolved Resolution, or a
// NotResolvedError under StrictMissing, so callers never see ("", nil)
// ambiguity.
//
// # Lifecycle
//
// Providers are probed for availability once, on first use; unavailable
// ones are excluded from the chain for the life of the manager. Health is
// the opposite: every call re-checks every constructed provider, available
// or not, because sign-in and lock state change between calls.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
	"github.com/dev-jelly/jellos-sub002/internal/logging"
	"github.com/dev-jelly/jellos-sub002/internal/providers"
	"github.com/dev-jelly/jellos-sub002/internal/secretref"
	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

// DefaultNamespace scopes lookups whose caller does not name a namespace.
const DefaultNamespace = "development"

// Options configures a Manager. The zero value gives the default
// namespace, caching with DefaultCacheTimeout, non-strict misses and the
// built-in priority order.
type Options struct {
	// DefaultNamespace applies when a lookup passes an empty namespace.
	DefaultNamespace string

	// CacheDisabled turns off value caching entirely.
	CacheDisabled bool

	// CacheTimeout bounds how long a cached value may be served.
	// Zero means DefaultCacheTimeout.
	CacheTimeout time.Duration

	// StrictMissing makes exhausted lookups fail with NotResolvedError
	// instead of returning an unresolved Resolution.
	StrictMissing bool

	// Priorities overrides the provider ordering. Higher wins. Types
	// absent from the map sort last.
	Priorities map[provider.Type]int

	// Per-operation deadlines. Zero fields take the package defaults.
	ProbeTimeout  time.Duration
	GetTimeout    time.Duration
	WriteTimeout  time.Duration
	ListTimeout   time.Duration
	HealthTimeout time.Duration
}

// Resolution is the outcome of one lookup.
type Resolution struct {
	Value string

	// Source is the provider that supplied the value.
	Source provider.Type

	// Resolved distinguishes a found empty value from a miss.
	Resolved bool

	FromCache bool
}

// NotResolvedError reports an exhausted provider chain under
// StrictMissing.
type NotResolvedError struct {
	Key       string
	Namespace string

	// Reference carries the original ${secret:...} token when the lookup
	// came from one.
	Reference string
}

func (e NotResolvedError) Error() string {
	if e.Reference != "" {
		return fmt.Sprintf("secret reference %s could not be resolved by any available provider", e.Reference)
	}
	return fmt.Sprintf("secret %s/%s could not be resolved by any available provider", e.Namespace, e.Key)
}

// ValidationError describes one reference a validation pass could not
// resolve. A malformed token carries only the parse failure in Message.
type ValidationError struct {
	Reference string `json:"reference,omitempty"`
	Key       string `json:"key,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Message   string `json:"message"`
}

// Manager coordinates providers, the value cache and the access log.
// Safe for concurrent use.
type Manager struct {
	opts    Options
	logger  *logging.Logger
	metrics *Metrics

	// providers in construction order; the probe result is in chain.
	providers []provider.Provider

	initOnce sync.Once
	chain    []provider.Provider

	cache *valueCache
	log   *accessLog
}

// New builds a Manager over the given providers. With no providers it
// falls back to the built-in set (credential store, CLI vault, env).
// A nil logger gets a default stderr logger.
func New(opts Options, logger *logging.Logger, provs ...provider.Provider) *Manager {
	if logger == nil {
		logger = logging.New(false, false)
	}
	if opts.DefaultNamespace == "" {
		opts.DefaultNamespace = DefaultNamespace
	}
	if opts.CacheTimeout <= 0 {
		opts.CacheTimeout = DefaultCacheTimeout
	}
	if opts.Priorities == nil {
		opts.Priorities = providers.DefaultPriorities()
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.GetTimeout <= 0 {
		opts.GetTimeout = DefaultGetTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.ListTimeout <= 0 {
		opts.ListTimeout = DefaultListTimeout
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = DefaultHealthTimeout
	}
	if len(provs) == 0 {
		provs = providers.DefaultProviders(providers.Config{})
	}

	return &Manager{
		opts:      opts,
		logger:    logger,
		metrics:   NewMetrics(),
		providers: provs,
		cache:     newValueCache(opts.CacheTimeout, opts.CacheDisabled),
		log:       newAccessLog(),
	}
}

// Initialize probes every provider for availability, concurrently, and
// fixes the resolution chain: available providers sorted by descending
// priority, construction order breaking ties. Idempotent; every entry
// point calls it, so explicit use is only needed to control when the
// probes run.
func (m *Manager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		available := make([]bool, len(m.providers))
		var wg sync.WaitGroup
		for i, p := range m.providers {
			wg.Add(1)
			go func(i int, p provider.Provider) {
				defer wg.Done()
				pctx, cancel := withOpTimeout(ctx, m.opts.ProbeTimeout)
				defer cancel()
				available[i] = p.Available(pctx)
			}(i, p)
		}
		wg.Wait()

		chain := make([]provider.Provider, 0, len(m.providers))
		for i, p := range m.providers {
			if !available[i] {
				m.logger.Debug("provider %s unavailable, excluded from resolution", p.Type())
				continue
			}
			m.logger.Debug("provider %s available", p.Type())
			chain = append(chain, p)
		}
		sort.SliceStable(chain, func(i, j int) bool {
			return m.priority(chain[i].Type()) > m.priority(chain[j].Type())
		})
		m.chain = chain
	})
}

func (m *Manager) priority(t provider.Type) int {
	return m.opts.Priorities[t]
}

func (m *Manager) namespace(ns string) string {
	if ns == "" {
		return m.opts.DefaultNamespace
	}
	return ns
}

// DefaultNamespace returns the namespace lookups use when the caller
// passes "".
func (m *Manager) DefaultNamespace() string {
	return m.opts.DefaultNamespace
}

// Get resolves key within namespace (empty means the default namespace).
// The error is non-nil only under StrictMissing or on context
// cancellation; provider failures mid-chain are logged and absorbed.
func (m *Manager) Get(ctx context.Context, key, namespace string) (Resolution, error) {
	m.Initialize(ctx)
	ns := m.namespace(namespace)

	if value, source, ok := m.cache.get(ns, key); ok {
		m.metrics.RecordCacheEvent("hit")
		m.log.append(AccessEntry{
			Key:        key,
			Namespace:  ns,
			Provider:   source,
			AccessedAt: time.Now(),
			Success:    true,
		})
		return Resolution{Value: value, Source: source, Resolved: true, FromCache: true}, nil
	}
	if m.cache.enabled() {
		m.metrics.RecordCacheEvent("miss")
	}

	for _, p := range m.chain {
		pctx, cancel := withOpTimeout(ctx, m.opts.GetTimeout)
		start := time.Now()
		value, err := p.Get(pctx, key, ns)
		elapsed := time.Since(start)
		cancel()

		if err == nil {
			m.cache.put(ns, key, value, p.Type())
			if m.cache.enabled() {
				m.metrics.RecordCacheEvent("store")
			}
			m.metrics.RecordResolution(p.Type(), "success")
			m.metrics.RecordResolveDuration(p.Type(), elapsed.Seconds())
			m.log.append(AccessEntry{
				Key:        key,
				Namespace:  ns,
				Provider:   p.Type(),
				AccessedAt: time.Now(),
				Success:    true,
			})
			return Resolution{Value: value, Source: p.Type(), Resolved: true}, nil
		}

		if provider.IsNotFound(err) {
			m.metrics.RecordResolution(p.Type(), "not_found")
			m.logger.Debug("secret %s/%s not in provider %s", ns, key, p.Type())
			continue
		}

		// A failing provider must not break the chain: record the failure
		// and keep trying lower-priority providers.
		m.metrics.RecordResolution(p.Type(), "error")
		m.metrics.RecordResolveDuration(p.Type(), elapsed.Seconds())
		m.logger.Warn("provider %s failed for %s/%s: %v", p.Type(), ns, key, err)
		m.log.append(AccessEntry{
			Key:        key,
			Namespace:  ns,
			Provider:   p.Type(),
			AccessedAt: time.Now(),
			Success:    false,
			Error:      err.Error(),
		})
	}

	m.metrics.RecordResolution("none", "miss")
	m.log.append(AccessEntry{
		Key:        key,
		Namespace:  ns,
		AccessedAt: time.Now(),
		Success:    false,
		Error:      "not found in any available provider",
	})

	if m.opts.StrictMissing {
		return Resolution{}, NotResolvedError{Key: key, Namespace: ns}
	}
	return Resolution{}, nil
}

// Set stores value under key within namespace and reports which provider
// took the write. An empty target routes to the highest-priority available
// provider that can write; a named target must be available and writable.
func (m *Manager) Set(ctx context.Context, key, namespace, value string, target provider.Type) (provider.Type, error) {
	m.Initialize(ctx)
	ns := m.namespace(namespace)

	w, typ, err := m.writableProvider(target)
	if err != nil {
		return "", err
	}

	wctx, cancel := withOpTimeout(ctx, m.opts.WriteTimeout)
	defer cancel()
	if err := w.Set(wctx, key, ns, value); err != nil {
		return "", jerrors.ProviderError(typ, "set", err)
	}

	// The backend may normalize the value; drop the cache entry instead of
	// assuming we know what a subsequent Get would return.
	m.cache.invalidate(ns, key)
	m.logger.Debug("stored %s/%s in provider %s", ns, key, typ)
	return typ, nil
}

// Delete removes key within namespace, routed like Set, and reports which
// provider took the delete. Deleting a missing secret returns the
// provider's NotFoundError.
func (m *Manager) Delete(ctx context.Context, key, namespace string, target provider.Type) (provider.Type, error) {
	m.Initialize(ctx)
	ns := m.namespace(namespace)

	d, typ, err := m.deletableProvider(target)
	if err != nil {
		return "", err
	}

	dctx, cancel := withOpTimeout(ctx, m.opts.WriteTimeout)
	defer cancel()
	if err := d.Delete(dctx, key, ns); err != nil {
		if provider.IsNotFound(err) {
			return "", err
		}
		return "", jerrors.ProviderError(typ, "delete", err)
	}

	m.cache.invalidate(ns, key)
	m.logger.Debug("deleted %s/%s from provider %s", ns, key, typ)
	return typ, nil
}

func (m *Manager) writableProvider(target provider.Type) (provider.Writer, provider.Type, error) {
	var capable []string
	var chosen provider.Writer
	var chosenType provider.Type
	for _, p := range m.chain {
		w, ok := p.(provider.Writer)
		if !ok || !p.Capabilities().SupportsWrite {
			continue
		}
		capable = append(capable, string(p.Type()))
		if chosen == nil && (target == "" || p.Type() == target) {
			chosen = w
			chosenType = p.Type()
		}
	}
	if chosen != nil {
		return chosen, chosenType, nil
	}
	return nil, "", capabilityError(target, "store", capable)
}

func (m *Manager) deletableProvider(target provider.Type) (provider.Deleter, provider.Type, error) {
	var capable []string
	var chosen provider.Deleter
	var chosenType provider.Type
	for _, p := range m.chain {
		d, ok := p.(provider.Deleter)
		if !ok || !p.Capabilities().SupportsDelete {
			continue
		}
		capable = append(capable, string(p.Type()))
		if chosen == nil && (target == "" || p.Type() == target) {
			chosen = d
			chosenType = p.Type()
		}
	}
	if chosen != nil {
		return chosen, chosenType, nil
	}
	return nil, "", capabilityError(target, "delete", capable)
}

func capabilityError(target provider.Type, verb string, capable []string) error {
	suggestion := "Run 'jellos doctor' to see provider status"
	if len(capable) > 0 {
		suggestion = "Use one of: " + strings.Join(capable, ", ")
	}
	message := fmt.Sprintf("No available provider can %s secrets", verb)
	if target != "" {
		message = fmt.Sprintf("Provider %s is not available or cannot %s secrets", target, verb)
	}
	return jerrors.UserError{Message: message, Suggestion: suggestion}
}

// List enumerates keys per provider within namespace. Providers that
// cannot list are skipped; per-provider failures are logged, joined into
// the returned error and leave the successful entries intact.
func (m *Manager) List(ctx context.Context, namespace string) (map[provider.Type][]string, error) {
	m.Initialize(ctx)
	ns := m.namespace(namespace)

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		out  = make(map[provider.Type][]string)
		errs []error
	)
	for _, p := range m.chain {
		l, ok := p.(provider.Lister)
		if !ok || !p.Capabilities().SupportsList {
			continue
		}
		wg.Add(1)
		go func(p provider.Provider, l provider.Lister) {
			defer wg.Done()
			lctx, cancel := withOpTimeout(ctx, m.opts.ListTimeout)
			defer cancel()
			keys, err := l.List(lctx, ns)
			if err != nil {
				m.logger.Warn("provider %s could not list namespace %s: %v", p.Type(), ns, err)
				mu.Lock()
				errs = append(errs, jerrors.ProviderError(p.Type(), "list", err))
				mu.Unlock()
				return
			}
			mu.Lock()
			out[p.Type()] = keys
			mu.Unlock()
		}(p, l)
	}
	wg.Wait()
	return out, errors.Join(errs...)
}

// ResolveReference resolves one parsed ${secret:...} token. Under
// StrictMissing the returned error carries the original token text.
func (m *Manager) ResolveReference(ctx context.Context, ref secretref.Reference) (Resolution, error) {
	res, err := m.Get(ctx, ref.Key, ref.Namespace)
	if err != nil {
		var nr NotResolvedError
		if errors.As(err, &nr) {
			nr.Reference = ref.Raw
			return Resolution{}, nr
		}
		return Resolution{}, err
	}
	return res, nil
}

// referenceResolver adapts lookups to the secretref.Resolver contract.
// Unresolvable references stay as their raw token in non-strict mode.
func (m *Manager) referenceResolver() secretref.Resolver {
	return func(ctx context.Context, ref secretref.Reference) (string, error) {
		res, err := m.ResolveReference(ctx, ref)
		if err != nil {
			return "", err
		}
		if !res.Resolved {
			return ref.Raw, nil
		}
		return res.Value, nil
	}
}

// InjectText substitutes every secret reference in text. Malformed tokens
// are warned about and left untouched. Under StrictMissing an
// unresolvable reference fails the whole injection and text is returned
// unchanged.
func (m *Manager) InjectText(ctx context.Context, text string) (string, error) {
	if !secretref.Has(text) {
		return text, nil
	}
	_, malformed := secretref.Scan(text)
	for _, err := range malformed {
		m.logger.Warn("ignoring malformed secret reference: %v", err)
	}
	return secretref.Replace(ctx, text, m.referenceResolver())
}

// InjectObject substitutes references in every string leaf of a nested
// structure, returning a rewritten copy.
func (m *Manager) InjectObject(ctx context.Context, obj any) (any, error) {
	_, malformed := secretref.ScanObject(obj)
	for _, err := range malformed {
		m.logger.Warn("ignoring malformed secret reference: %v", err)
	}
	return secretref.ReplaceInObject(ctx, obj, m.referenceResolver())
}

// ValidateText checks that every reference in text resolves. The result
// is empty when all do; malformed tokens are reported alongside
// unresolvable ones.
func (m *Manager) ValidateText(ctx context.Context, text string) []ValidationError {
	refs, malformed := secretref.Scan(text)
	return m.validate(ctx, refs, malformed)
}

// ValidateObject checks every reference in a nested structure.
func (m *Manager) ValidateObject(ctx context.Context, obj any) []ValidationError {
	refs, malformed := secretref.ScanObject(obj)
	return m.validate(ctx, refs, malformed)
}

// maxConcurrentValidations bounds the validation fan-out so a
// reference-heavy document cannot overwhelm the backing stores.
const maxConcurrentValidations = 10

func (m *Manager) validate(ctx context.Context, refs []secretref.Reference, malformed []error) []ValidationError {
	issues := make([]ValidationError, 0, len(malformed))
	for _, err := range malformed {
		issues = append(issues, ValidationError{Message: err.Error()})
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	sem := make(chan struct{}, maxConcurrentValidations)
	for _, ref := range secretref.Unique(refs) {
		wg.Add(1)
		go func(ref secretref.Reference) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := m.Get(ctx, ref.Key, ref.Namespace)
			if err == nil && res.Resolved {
				return
			}
			message := "not found in any available provider"
			var nr NotResolvedError
			if err != nil && !errors.As(err, &nr) {
				message = err.Error()
			}
			mu.Lock()
			issues = append(issues, ValidationError{
				Reference: ref.Raw,
				Key:       ref.Key,
				Namespace: m.namespace(ref.Namespace),
				Message:   message,
			})
			mu.Unlock()
		}(ref)
	}
	wg.Wait()

	// Concurrent settlement scrambles ordering; sort for stable output.
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Reference != issues[j].Reference {
			return issues[i].Reference < issues[j].Reference
		}
		return issues[i].Message < issues[j].Message
	})
	return issues
}

// Health checks every constructed provider concurrently, available or
// not. Results are fresh on every call; sign-in and lock state change
// between invocations, so nothing here is cached.
func (m *Manager) Health(ctx context.Context) map[provider.Type]provider.HealthCheck {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[provider.Type]provider.HealthCheck, len(m.providers))
	)
	for _, p := range m.providers {
		wg.Add(1)
		go func(p provider.Provider) {
			defer wg.Done()
			hctx, cancel := withOpTimeout(ctx, m.opts.HealthTimeout)
			defer cancel()
			hc := p.Health(hctx)
			m.metrics.RecordProviderHealth(p.Type(), hc.Status)
			mu.Lock()
			out[p.Type()] = hc
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return out
}

// AccessLog returns a copy of the recorded access entries, oldest first.
func (m *Manager) AccessLog() []AccessEntry {
	return m.log.snapshot()
}

// ClearCache destroys every cached value.
func (m *Manager) ClearCache() {
	m.cache.clear()
	m.metrics.RecordCacheEvent("clear")
}

// CacheSize returns the number of live cache entries.
func (m *Manager) CacheSize() int {
	return m.cache.size()
}

// Close releases cached plaintext. The manager stays usable; subsequent
// lookups start with a cold cache.
func (m *Manager) Close() {
	m.cache.clear()
}

// ProviderTypes returns every constructed provider ordered by descending
// priority, whether or not it is available.
func (m *Manager) ProviderTypes() []provider.Type {
	out := make([]provider.Type, len(m.providers))
	for i, p := range m.providers {
		out[i] = p.Type()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return m.priority(out[i]) > m.priority(out[j])
	})
	return out
}

// ResolutionOrder returns the available providers in the order lookups
// try them.
func (m *Manager) ResolutionOrder(ctx context.Context) []provider.Type {
	m.Initialize(ctx)
	out := make([]provider.Type, len(m.chain))
	for i, p := range m.chain {
		out[i] = p.Type()
	}
	return out
}
