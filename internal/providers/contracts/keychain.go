// Package contracts defines client abstractions the providers shell
// their platform-specific work through, so tests can inject fakes.
package contracts

// KeychainClient abstracts the OS credential store (Keychain on macOS,
// Secret Service on Linux). Implementations translate store-native
// failures into the sentinel errors in internal/providers.
type KeychainClient interface {
	// Get retrieves the value stored under service/account.
	Get(service, account string) (string, error)

	// Set stores value under service/account, replacing any existing
	// entry.
	Set(service, account, value string) error

	// Delete removes the entry under service/account.
	Delete(service, account string) error

	// Available reports whether a credential store exists on this
	// platform and session.
	Available() bool

	// Headless reports whether the session cannot show unlock prompts
	// (SSH, CI, no display server).
	Headless() bool
}
