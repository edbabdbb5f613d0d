package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  NotFoundError
		want string
	}{
		{
			name: "with namespace",
			err: NotFoundError{
				Provider:  TypeCredentialStore,
				Key:       "DB_PASSWORD",
				Namespace: "production",
			},
			want: "secret production/DB_PASSWORD not found in provider credential-store",
		},
		{
			name: "without namespace",
			err: NotFoundError{
				Provider: TypeEnv,
				Key:      "API_KEY",
			},
			want: "secret API_KEY not found in provider env",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAuthError(t *testing.T) {
	t.Parallel()

	err := AuthError{
		Provider:    TypeCLIVault,
		Reason:      "not signed in",
		Remediation: "Run: vault signin",
	}
	assert.Equal(t, "provider cli-vault: not signed in", err.Error())
	assert.Equal(t, "Run: vault signin", err.Remediation)
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	notFound := NotFoundError{Provider: TypeEnv, Key: "K"}
	auth := AuthError{Provider: TypeCLIVault, Reason: "locked", Remediation: "Run: vault unlock"}
	unavailable := UnavailableError{Provider: TypeCredentialStore, Reason: "unsupported platform"}

	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsNotFound(fmt.Errorf("lookup failed: %w", notFound)))
	assert.False(t, IsNotFound(auth))
	assert.False(t, IsNotFound(errors.New("boom")))

	assert.True(t, IsAuth(auth))
	assert.True(t, IsAuth(fmt.Errorf("wrapped: %w", auth)))
	assert.False(t, IsAuth(notFound))

	assert.True(t, IsUnavailable(unavailable))
	assert.False(t, IsUnavailable(notFound))
}

func TestRemediation(t *testing.T) {
	t.Parallel()

	auth := AuthError{Provider: TypeCLIVault, Reason: "locked", Remediation: "Run: vault unlock"}
	unavailable := UnavailableError{
		Provider:    TypeCLIVault,
		Reason:      "CLI not installed",
		Remediation: "Install the vault CLI and ensure it is on PATH",
	}

	assert.Equal(t, "Run: vault unlock", Remediation(auth))
	assert.Equal(t, "Run: vault unlock", Remediation(fmt.Errorf("wrapped: %w", auth)))
	assert.Equal(t, "Install the vault CLI and ensure it is on PATH", Remediation(unavailable))
	assert.Empty(t, Remediation(errors.New("plain error")))
	assert.Empty(t, Remediation(NotFoundError{Provider: TypeEnv, Key: "K"}))
}

func TestBool(t *testing.T) {
	t.Parallel()

	got := Bool(true)
	require.NotNil(t, got)
	assert.True(t, *got)

	got = Bool(false)
	require.NotNil(t, got)
	assert.False(t, *got)
}
