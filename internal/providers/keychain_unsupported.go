//go:build !darwin && !linux

package providers

import (
	"github.com/dev-jelly/jellos-sub002/internal/providers/contracts"
)

// unsupportedKeychainClient is the stub for platforms without a
// supported credential store.
type unsupportedKeychainClient struct{}

func newPlatformKeychainClient() contracts.KeychainClient {
	return &unsupportedKeychainClient{}
}

func (c *unsupportedKeychainClient) Get(service, account string) (string, error) {
	return "", ErrKeychainUnsupportedPlatform
}

func (c *unsupportedKeychainClient) Set(service, account, value string) error {
	return ErrKeychainUnsupportedPlatform
}

func (c *unsupportedKeychainClient) Delete(service, account string) error {
	return ErrKeychainUnsupportedPlatform
}

func (c *unsupportedKeychainClient) Available() bool {
	return false
}

func (c *unsupportedKeychainClient) Headless() bool {
	return false
}

var _ contracts.KeychainClient = (*unsupportedKeychainClient)(nil)
