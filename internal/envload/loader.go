// Package envload loads environment files, resolving ${secret:...}
// references through the secret manager and registering every resolved
// secret with the masking tracker before anything can log it.
package envload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"sync"

	"github.com/joho/godotenv"

	jerrors "github.com/dev-jelly/jellos-sub002/internal/errors"
	"github.com/dev-jelly/jellos-sub002/internal/logging"
	"github.com/dev-jelly/jellos-sub002/internal/manager"
	"github.com/dev-jelly/jellos-sub002/internal/masking"
	"github.com/dev-jelly/jellos-sub002/internal/secretref"
)

// identPattern is the shape a variable name must have to be injected.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options configures a Loader.
type Options struct {
	// Path is the env file to load. Empty means ".env".
	Path string

	// Override replaces variables already present in the process
	// environment. When false, present variables are skipped.
	Override bool

	// Strict aborts the load on the first read failure or unresolved
	// reference instead of collecting it into the result.
	Strict bool
}

// Result summarizes one load.
type Result struct {
	Loaded  int      // variables injected into the process environment
	Skipped int      // variables left alone because they were already set
	Failed  int      // variables rejected (bad name, unresolved reference)
	Masked  int      // injected values registered with the masking tracker
	Errors  []string // one message per failure

	// LoadedVars holds the injected variable names, sorted.
	LoadedVars []string
}

// Loader runs the load pipeline: parse, resolve, inject, classify.
type Loader struct {
	opts    Options
	manager *manager.Manager
	tracker *masking.Tracker
	logger  *logging.Logger
}

// New creates a Loader. mgr resolves references; tracker receives every
// value that must never appear in logs.
func New(opts Options, mgr *manager.Manager, tracker *masking.Tracker, logger *logging.Logger) *Loader {
	if opts.Path == "" {
		opts.Path = ".env"
	}
	if logger == nil {
		logger = logging.New(false, false)
	}
	return &Loader{opts: opts, manager: mgr, tracker: tracker, logger: logger}
}

// Load reads the env file and injects its variables into the process
// environment. A missing file is not an error: it loads zero variables.
// Under Strict the first failure aborts the load; otherwise failures are
// collected into the result and the rest of the file still loads.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	res := &Result{}

	data, err := os.ReadFile(l.opts.Path)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("env file %s not found, nothing to load", l.opts.Path)
		return res, nil
	}
	if err != nil {
		if l.opts.Strict {
			return res, jerrors.UserError{
				Message:    fmt.Sprintf("Cannot read env file %s", l.opts.Path),
				Suggestion: "Check the file path and permissions",
				Err:        err,
			}
		}
		res.Errors = append(res.Errors, fmt.Sprintf("read %s: %v", l.opts.Path, err))
		return res, nil
	}

	vars, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		if l.opts.Strict {
			return res, jerrors.UserError{
				Message:    fmt.Sprintf("Cannot parse env file %s", l.opts.Path),
				Suggestion: "Check for malformed lines; expected KEY=value pairs",
				Err:        err,
			}
		}
		res.Errors = append(res.Errors, fmt.Sprintf("parse %s: %v", l.opts.Path, err))
		return res, nil
	}

	l.prefetch(ctx, vars)

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := vars[key]

		if !identPattern.MatchString(key) {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("invalid variable name %q", key))
			continue
		}

		fromStore := false
		resolved := value
		if secretref.Has(value) {
			out, err := l.manager.InjectText(ctx, value)
			if err != nil {
				if l.opts.Strict {
					return res, err
				}
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", key, err))
				continue
			}
			// A reference the manager could not resolve stays in the
			// output as its raw token. Injecting that would hand the
			// application a broken value, so the variable is rejected.
			if remaining := secretref.Find(out); len(remaining) > 0 {
				if l.opts.Strict {
					return res, jerrors.UserError{
						Message:    fmt.Sprintf("Unresolved secret reference in %s", key),
						Suggestion: "Run 'jellos validate' to see which references cannot be resolved",
					}
				}
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("%s: unresolved secret reference", key))
				continue
			}
			fromStore = out != value
			resolved = out
		}

		if _, exists := os.LookupEnv(key); exists && !l.opts.Override {
			l.logger.Debug("skipping %s: already set and override is off", key)
			res.Skipped++
			continue
		}

		if err := os.Setenv(key, resolved); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", key, err))
			continue
		}
		res.Loaded++
		res.LoadedVars = append(res.LoadedVars, key)

		if l.classify(key, resolved, fromStore) {
			res.Masked++
		}
	}

	l.logger.Debug("loaded %d variables from %s (%d masked, %d failed, %d skipped)",
		res.Loaded, l.opts.Path, res.Masked, res.Failed, res.Skipped)
	return res, nil
}

// classify registers resolved with the tracker when it must be masked.
// Values that came out of a secret store are always tracked; plain values
// are tracked when the name or the value shape says secret.
func (l *Loader) classify(key, resolved string, fromStore bool) bool {
	if l.tracker == nil || resolved == "" {
		return false
	}
	if fromStore || masking.SensitiveKey(key) || masking.SecretLikeValue(resolved) {
		l.tracker.Track(resolved)
		return true
	}
	return false
}

// maxConcurrentPrefetch bounds the warm-up fan-out.
const maxConcurrentPrefetch = 10

// prefetch resolves every distinct reference once, warming the manager
// cache and registering each resolved secret with the tracker. Tracking
// happens here, before injection, so a secret embedded in a larger
// composite value is masked on its own.
func (l *Loader) prefetch(ctx context.Context, vars map[string]string) {
	var all []secretref.Reference
	for _, value := range vars {
		all = append(all, secretref.Find(value)...)
	}
	unique := secretref.Unique(all)
	if len(unique) == 0 {
		return
	}

	sem := make(chan struct{}, maxConcurrentPrefetch)
	var wg sync.WaitGroup
	for _, ref := range unique {
		wg.Add(1)
		go func(ref secretref.Reference) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := l.manager.ResolveReference(ctx, ref)
			if err != nil || !res.Resolved {
				return
			}
			if l.tracker != nil {
				l.tracker.Track(res.Value)
			}
		}(ref)
	}
	wg.Wait()
}
