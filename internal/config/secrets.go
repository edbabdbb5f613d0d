package config

import (
	"context"

	"github.com/dev-jelly/jellos-sub002/internal/manager"
)

// InjectSecrets substitutes every secret reference in a parsed
// configuration document and returns the substituted copy. Loaders
// call it after unmarshaling and hand the result to application code;
// the input document is never mutated.
func InjectSecrets(ctx context.Context, mgr *manager.Manager, doc any) (any, error) {
	return mgr.InjectObject(ctx, doc)
}

// ValidateSecrets reports every malformed or unresolvable secret
// reference in a parsed configuration document without mutating it.
func ValidateSecrets(ctx context.Context, mgr *manager.Manager, doc any) []manager.ValidationError {
	return mgr.ValidateObject(ctx, doc)
}
