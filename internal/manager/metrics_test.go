package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

func TestMetricsLifecycle(t *testing.T) {
	m := NewMetrics()

	// Recorders are no-ops before initialization.
	m.RecordResolution(provider.TypeEnv, "success")
	m.RecordCacheEvent("hit")

	InitMetrics()
	InitMetrics() // second call must not re-register

	assert.True(t, IsMetricsRegistered())

	m.RecordResolution(provider.TypeEnv, "success")
	m.RecordResolveDuration(provider.TypeEnv, 0.01)
	m.RecordCacheEvent("miss")
	m.RecordProviderHealth(provider.TypeCredentialStore, provider.StatusDegraded)
	m.RecordProviderHealth(provider.TypeCLIVault, provider.StatusUnavailable)
}
