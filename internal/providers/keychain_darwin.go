//go:build darwin

package providers

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/dev-jelly/jellos-sub002/internal/providers/contracts"
)

// darwinKeychainClient talks to the macOS Keychain through go-keyring.
type darwinKeychainClient struct{}

func newPlatformKeychainClient() contracts.KeychainClient {
	return &darwinKeychainClient{}
}

func (c *darwinKeychainClient) Get(service, account string) (string, error) {
	secret, err := keyring.Get(service, account)
	if err != nil {
		return "", translateDarwinKeyringError(err)
	}
	return secret, nil
}

func (c *darwinKeychainClient) Set(service, account, value string) error {
	if err := keyring.Set(service, account, value); err != nil {
		return translateDarwinKeyringError(err)
	}
	return nil
}

func (c *darwinKeychainClient) Delete(service, account string) error {
	if err := keyring.Delete(service, account); err != nil {
		return translateDarwinKeyringError(err)
	}
	return nil
}

// Available is always true on macOS; the Keychain ships with the OS.
func (c *darwinKeychainClient) Available() bool {
	return true
}

func (c *darwinKeychainClient) Headless() bool {
	if os.Getenv("SSH_TTY") != "" {
		return true
	}
	if os.Getenv("CI") != "" {
		return true
	}
	return false
}

func translateDarwinKeyringError(err error) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrKeychainItemNotFound
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "access denied"),
		strings.Contains(msg, "user denied"),
		strings.Contains(msg, "canceled"):
		return ErrKeychainAccessDenied
	case strings.Contains(msg, "locked"):
		return ErrKeychainLocked
	}
	return err
}

var _ contracts.KeychainClient = (*darwinKeychainClient)(nil)
