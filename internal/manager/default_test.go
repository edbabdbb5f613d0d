package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dev-jelly/jellos-sub002/pkg/provider"
)

func TestDefaultSingleton(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	first := Default()
	assert.Same(t, first, Default())

	ResetDefault()
	second := Default()
	assert.NotSame(t, first, second)

	custom := New(Options{}, nil, newFake(provider.TypeEnv))
	SetDefault(custom)
	assert.Same(t, custom, Default())
}
