// Package secretref finds, parses and substitutes ${secret:...} tokens
// in text and in arbitrarily nested configuration structures.
//
// A token body is either KEY or NAMESPACE/KEY with exactly one
// separator. Whitespace is not trimmed; it stays part of the key.
// Malformed tokens never abort a scan: they are skipped and reported so
// callers can warn.
package secretref

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Pattern matches one reference token, body running to the first
// closing brace. All scanning goes through stateless FindAll calls, so
// repeated probes over the same text never skip matches.
var Pattern = regexp.MustCompile(`\$\{secret:([^}]*)\}`)

// Reference is one parsed token. Raw holds the exact matched text,
// wrapper included, so substitution can replace the precise substring.
type Reference struct {
	Key       string
	Namespace string
	Raw       string
}

// Identity is the namespace/key pair a reference resolves under.
// References with equal identity name the same secret even when their
// raw tokens differ.
func (r Reference) Identity() string {
	if r.Namespace == "" {
		return r.Key
	}
	return r.Namespace + "/" + r.Key
}

func (r Reference) String() string {
	if r.Raw != "" {
		return r.Raw
	}
	return "${secret:" + r.Identity() + "}"
}

// ParseBody interprets the text between "${secret:" and "}".
// Zero separators name a key in the default namespace, one separator
// names namespace/key, anything else is malformed. Empty parts are
// malformed too: "${secret:}" and "${secret:ns/}" name nothing.
func ParseBody(body string) (Reference, error) {
	parts := strings.Split(body, "/")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return Reference{}, fmt.Errorf("secret reference has empty body")
		}
		return Reference{Key: parts[0]}, nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return Reference{}, fmt.Errorf("secret reference %q: namespace and key must both be non-empty", body)
		}
		return Reference{Namespace: parts[0], Key: parts[1]}, nil
	default:
		return Reference{}, fmt.Errorf("secret reference %q: at most one / separator, got %d", body, len(parts)-1)
	}
}

// Scan returns every well-formed reference in text in order of
// appearance, plus one error per malformed token.
func Scan(text string) ([]Reference, []error) {
	matches := Pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	refs := make([]Reference, 0, len(matches))
	var malformed []error
	for _, m := range matches {
		ref, err := ParseBody(m[1])
		if err != nil {
			malformed = append(malformed, err)
			continue
		}
		ref.Raw = m[0]
		refs = append(refs, ref)
	}
	return refs, malformed
}

// Find returns the well-formed references in text, discarding malformed
// tokens. Callers that need to warn about malformed tokens use Scan.
func Find(text string) []Reference {
	refs, _ := Scan(text)
	return refs
}

// Has reports whether text contains anything shaped like a reference
// token, well-formed or not. Cheaper than Scan when only presence
// matters.
func Has(text string) bool {
	return Pattern.MatchString(text)
}

// Unique deduplicates references by identity, keeping first-seen order.
// Used to resolve each distinct secret once during prefetch and
// validation passes.
func Unique(refs []Reference) []Reference {
	seen := make(map[string]struct{}, len(refs))
	out := make([]Reference, 0, len(refs))
	for _, r := range refs {
		id := r.Identity()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r)
	}
	return out
}

// ScanObject collects references from every string leaf of a nested
// structure, depth-first, plus one error per malformed token. Map keys
// are visited in sorted order so the result is deterministic.
func ScanObject(obj any) ([]Reference, []error) {
	var refs []Reference
	var malformed []error
	switch v := obj.(type) {
	case string:
		found, errs := Scan(v)
		refs = append(refs, found...)
		malformed = append(malformed, errs...)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			childRefs, childErrs := ScanObject(v[k])
			refs = append(refs, childRefs...)
			malformed = append(malformed, childErrs...)
		}
	case []any:
		for _, child := range v {
			childRefs, childErrs := ScanObject(child)
			refs = append(refs, childRefs...)
			malformed = append(malformed, childErrs...)
		}
	}
	return refs, malformed
}
