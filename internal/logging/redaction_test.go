package logging_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/dev-jelly/jellos-sub002/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestSecretRedaction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "secret is redacted", input: "my-secret-password"},
		{name: "empty secret is still redacted", input: ""},
		{name: "complex secret is redacted", input: "password123!@#"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, "[REDACTED]", logging.Secret(tt.input).String())
			assert.Equal(t, "[REDACTED]", logging.Secret(tt.input).GoString())
		})
	}
}

func TestSecretInFormattedOutput(t *testing.T) {
	t.Parallel()

	secret := logging.Secret("super-secret-password")

	assert.Equal(t, "value: [REDACTED]", fmt.Sprintf("value: %v", secret))
	assert.Equal(t, "value: [REDACTED]", fmt.Sprintf("value: %s", secret))
	assert.Equal(t, "value: [REDACTED]", fmt.Sprintf("value: %#v", secret))
	assert.NotContains(t, fmt.Sprintf("%v %s %#v", secret, secret, secret), "super-secret-password")
}

func TestSecretLoggedThroughLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, true, true)

	logger.Info("credential: %v", logging.Secret("super-secret-password"))
	logger.Debug("debug credential: %s", logging.Secret("super-secret-password"))

	out := buf.String()
	assert.Contains(t, out, "[REDACTED]")
	assert.NotContains(t, out, "super-secret-password")
}

func TestRedact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		secrets []string
		want    string
	}{
		{
			name:    "single occurrence",
			input:   "connecting with token abc123xyz",
			secrets: []string{"abc123xyz"},
			want:    "connecting with token [REDACTED]",
		},
		{
			name:    "repeated occurrences",
			input:   "abc123xyz and again abc123xyz",
			secrets: []string{"abc123xyz"},
			want:    "[REDACTED] and again [REDACTED]",
		},
		{
			name:    "multiple secrets",
			input:   "user=alice pass=hunter22 token=tok-9988",
			secrets: []string{"hunter22", "tok-9988"},
			want:    "user=alice pass=[REDACTED] token=[REDACTED]",
		},
		{
			name:    "short values are left alone",
			input:   "pin is 123",
			secrets: []string{"123"},
			want:    "pin is 123",
		},
		{
			name:    "empty secret is ignored",
			input:   "nothing to hide",
			secrets: []string{""},
			want:    "nothing to hide",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, logging.Redact(tt.input, tt.secrets))
		})
	}
}
