package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

func TestDefaultPriorities(t *testing.T) {
	priorities := DefaultPriorities()

	assert.Equal(t, 3, priorities[provider.TypeCredentialStore])
	assert.Equal(t, 2, priorities[provider.TypeCLIVault])
	assert.Equal(t, 1, priorities[provider.TypeEnv])
}

func TestRegistrySupported(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []provider.Type{
		provider.TypeCLIVault,
		provider.TypeCredentialStore,
		provider.TypeEnv,
	}, r.Supported())

	assert.True(t, r.IsSupported(provider.TypeEnv))
	assert.False(t, r.IsSupported(provider.Type("consul")))
}

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry()

	for _, typ := range r.Supported() {
		t.Run(string(typ), func(t *testing.T) {
			p, err := r.Create(typ, Config{})
			require.NoError(t, err)
			assert.Equal(t, typ, p.Type())
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		_, err := r.Create(provider.Type("consul"), Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown provider type")
	})
}

func TestRegistryCreateHonorsVaultBinary(t *testing.T) {
	r := NewRegistry()

	p, err := r.Create(provider.TypeCLIVault, Config{VaultBinary: "op"})
	require.NoError(t, err)

	vp, ok := p.(*VaultCLIProvider)
	require.True(t, ok)
	assert.Equal(t, "op", vp.Binary())
}

func TestDefaultProviders(t *testing.T) {
	set := DefaultProviders(Config{})
	require.Len(t, set, 3)

	seen := make(map[provider.Type]bool)
	for _, p := range set {
		seen[p.Type()] = true
	}
	assert.True(t, seen[provider.TypeCredentialStore])
	assert.True(t, seen[provider.TypeCLIVault])
	assert.True(t, seen[provider.TypeEnv])
}
