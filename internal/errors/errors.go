// Package errors defines the user-facing error vocabulary for the CLI.
// Errors reaching the terminal carry remediation suggestions; the root
// command renders them after the message.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

// UserError represents an error that should be shown to the user with
// helpful context.
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CommandError represents an external command execution error.
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Suggestion string
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// ProviderError wraps a provider failure with operation context and a
// remediation suggestion derived from the failure text.
func ProviderError(providerType provider.Type, operation string, err error) error {
	suggestion := provider.Remediation(err)
	if suggestion == "" {
		suggestion = providerSuggestion(providerType, err)
	}

	return UserError{
		Message:    fmt.Sprintf("%s provider error during %s", providerType, operation),
		Suggestion: suggestion,
		Err:        err,
	}
}

// providerSuggestion maps failure text to remediation hints per variant.
func providerSuggestion(providerType provider.Type, err error) string {
	errStr := strings.ToLower(err.Error())

	switch providerType {
	case provider.TypeCredentialStore:
		if strings.Contains(errStr, "locked") || strings.Contains(errStr, "denied") {
			return "Unlock your login keychain and allow access when prompted"
		}
		if strings.Contains(errStr, "headless") || strings.Contains(errStr, "display") {
			return "The credential store needs a desktop session; use the env provider on headless hosts"
		}
		if strings.Contains(errStr, "secret service") || strings.Contains(errStr, "dbus") {
			return "Install and start a Secret Service daemon (gnome-keyring or KWallet)"
		}

	case provider.TypeCLIVault:
		if strings.Contains(errStr, "not signed in") || strings.Contains(errStr, "session expired") ||
			strings.Contains(errStr, "no accounts") {
			return "Sign in to the vault CLI and retry"
		}
		if strings.Contains(errStr, "locked") {
			return "Unlock the vault CLI session and retry"
		}
		if strings.Contains(errStr, "command not found") || strings.Contains(errStr, "executable file not found") {
			return "Install the vault CLI and make sure it is on PATH"
		}
		if strings.Contains(errStr, "isn't a vault") || strings.Contains(errStr, "vault not found") {
			return "Create the Jellos-<namespace> vault or check the namespace spelling"
		}
	}

	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "The operation timed out. Check that the backing store responds and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and provider configuration"
	}

	return ""
}

// SimplifyError rewrites common technical failures into user-friendly ones.
// Errors already carrying suggestions pass through unchanged.
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	var userErr UserError
	if errors.As(err, &userErr) {
		return err
	}
	var configErr ConfigError
	if errors.As(err, &configErr) {
		return err
	}
	var commandErr CommandError
	if errors.As(err, &commandErr) {
		return err
	}

	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}
	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
