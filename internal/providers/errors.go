package providers

import "errors"

// Sentinel errors the platform keychain clients normalize store-native
// failures into. The provider classifies them into the typed errors of
// pkg/provider before anything crosses the package boundary.
var (
	ErrKeychainItemNotFound        = errors.New("keychain item not found")
	ErrKeychainAccessDenied        = errors.New("keychain access denied")
	ErrKeychainLocked              = errors.New("keychain is locked")
	ErrKeychainUnsupportedPlatform = errors.New("keychain not supported on this platform")
)
