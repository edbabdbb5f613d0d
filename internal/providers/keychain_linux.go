//go:build linux

package providers

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/dev-jelly/jellos-sub002/internal/providers/contracts"
)

// linuxKeychainClient talks to the freedesktop Secret Service
// (gnome-keyring, KWallet) through go-keyring over D-Bus.
type linuxKeychainClient struct{}

func newPlatformKeychainClient() contracts.KeychainClient {
	return &linuxKeychainClient{}
}

func (c *linuxKeychainClient) Get(service, account string) (string, error) {
	secret, err := keyring.Get(service, account)
	if err != nil {
		return "", translateLinuxKeyringError(err)
	}
	return secret, nil
}

func (c *linuxKeychainClient) Set(service, account, value string) error {
	if err := keyring.Set(service, account, value); err != nil {
		return translateLinuxKeyringError(err)
	}
	return nil
}

func (c *linuxKeychainClient) Delete(service, account string) error {
	if err := keyring.Delete(service, account); err != nil {
		return translateLinuxKeyringError(err)
	}
	return nil
}

// Available needs a display server: without one there is usually no
// Secret Service daemon to talk to.
func (c *linuxKeychainClient) Available() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

func (c *linuxKeychainClient) Headless() bool {
	if os.Getenv("SSH_TTY") != "" {
		return true
	}
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return true
	}
	if os.Getenv("CI") != "" {
		return true
	}
	return false
}

func translateLinuxKeyringError(err error) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrKeychainItemNotFound
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "locked"):
		return ErrKeychainLocked
	case strings.Contains(msg, "access denied"), strings.Contains(msg, "rejected"):
		return ErrKeychainAccessDenied
	case strings.Contains(msg, "secret service"), strings.Contains(msg, "dbus"),
		strings.Contains(msg, "dial unix"):
		return ErrKeychainUnsupportedPlatform
	}
	return err
}

var _ contracts.KeychainClient = (*linuxKeychainClient)(nil)
