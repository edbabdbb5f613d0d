package provider

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a secret does not exist at a particular provider.
// The resolution engine treats it as "try the next provider", so
// implementations must return it for plain misses and reserve other error
// types for conditions an operator has to fix.
type NotFoundError struct {
	Provider  Type
	Key       string
	Namespace string
}

func (e NotFoundError) Error() string {
	if e.Namespace != "" {
		return fmt.Sprintf("secret %s/%s not found in provider %s", e.Namespace, e.Key, e.Provider)
	}
	return fmt.Sprintf("secret %s not found in provider %s", e.Key, e.Provider)
}

// AuthError indicates a provider cannot serve requests until the operator
// signs in or unlocks the backing store. It is never swallowed as a miss:
// the resolver records it and health checks surface the remediation text.
type AuthError struct {
	Provider Type
	Reason   string

	// Remediation tells the operator how to fix the condition,
	// e.g. "Run: vault signin".
	Remediation string
}

func (e AuthError) Error() string {
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Reason)
}

// UnavailableError indicates a provider cannot run on this host at all
// (CLI not installed, unsupported platform).
type UnavailableError struct {
	Provider    Type
	Reason      string
	Remediation string
}

func (e UnavailableError) Error() string {
	return fmt.Sprintf("provider %s unavailable: %s", e.Provider, e.Reason)
}

// IsNotFound reports whether err is a NotFoundError from any provider.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsAuth reports whether err is an AuthError from any provider.
func IsAuth(err error) bool {
	var ae AuthError
	return errors.As(err, &ae)
}

// IsUnavailable reports whether err is an UnavailableError from any provider.
func IsUnavailable(err error) bool {
	var ue UnavailableError
	return errors.As(err, &ue)
}

// Remediation extracts the remediation hint carried by err, if any.
func Remediation(err error) string {
	var ae AuthError
	if errors.As(err, &ae) {
		return ae.Remediation
	}
	var ue UnavailableError
	if errors.As(err, &ue) {
		return ue.Remediation
	}
	return ""
}
