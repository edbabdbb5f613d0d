package secretref

import (
	"context"
	"errors"
	"sync"
)

// Resolver produces the substitution value for one reference.
// Returning an error aborts the whole replacement; a resolver that
// wants to leave an unresolvable token in place returns ref.Raw.
type Resolver func(ctx context.Context, ref Reference) (string, error)

// maxConcurrentResolves bounds the lookup fan-out so a reference-heavy
// document cannot overwhelm the backing stores.
const maxConcurrentResolves = 10

// Replace substitutes every reference in text. Each distinct raw token
// resolves exactly once; lookups run concurrently and Replace waits for
// all of them to settle before rewriting. Substitution is a single pass
// over the original text, so a resolved value that happens to contain
// reference syntax is never re-substituted. Malformed tokens stay
// untouched.
func Replace(ctx context.Context, text string, resolve Resolver) (string, error) {
	refs, _ := Scan(text)
	if len(refs) == 0 {
		return text, nil
	}

	byRaw := make(map[string]Reference, len(refs))
	for _, ref := range refs {
		if _, ok := byRaw[ref.Raw]; !ok {
			byRaw[ref.Raw] = ref
		}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		resolved = make(map[string]string, len(byRaw))
		errs     []error
	)
	sem := make(chan struct{}, maxConcurrentResolves)

	for raw, ref := range byRaw {
		wg.Add(1)
		go func(raw string, ref Reference) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			value, err := resolve(ctx, ref)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			resolved[raw] = value
		}(raw, ref)
	}
	wg.Wait()

	if len(errs) > 0 {
		return text, errors.Join(errs...)
	}

	out := Pattern.ReplaceAllStringFunc(text, func(raw string) string {
		if value, ok := resolved[raw]; ok {
			return value
		}
		return raw
	})
	return out, nil
}

// ReplaceInObject walks nested maps and slices depth-first, running
// Replace on every string leaf. Non-string scalars pass through
// unchanged. The input is never mutated; a rewritten copy is returned.
func ReplaceInObject(ctx context.Context, obj any, resolve Resolver) (any, error) {
	switch v := obj.(type) {
	case string:
		return Replace(ctx, v, resolve)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			replaced, err := ReplaceInObject(ctx, child, resolve)
			if err != nil {
				return nil, err
			}
			out[k] = replaced
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			replaced, err := ReplaceInObject(ctx, child, resolve)
			if err != nil {
				return nil, err
			}
			out[i] = replaced
		}
		return out, nil
	default:
		return obj, nil
	}
}
