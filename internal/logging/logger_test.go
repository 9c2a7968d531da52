package logging

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_DebugSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(false, true, &buf)

	logger.Debug("session token is %s", "tok")

	assert.Empty(t, buf.String())
}

func TestLogger_DebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(true, true, &buf)

	logger.Debug("running %s", "bw status")

	assert.Contains(t, buf.String(), "[DEBUG] running bw status")
}

func TestLogger_NoColorOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(false, true, &buf)

	logger.Info("vault is unlocked")
	logger.Warn("falling back to search")
	logger.Error("item not found")

	out := buf.String()
	assert.Contains(t, out, "✓ vault is unlocked")
	assert.Contains(t, out, "⚠ falling back to search")
	assert.Contains(t, out, "✗ item not found")
	assert.NotContains(t, out, "\033[")
}

func TestSecret_AlwaysRedacted(t *testing.T) {
	token := Secret("super-secret-session-token")

	assert.Equal(t, "[REDACTED]", token.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", token))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", token))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", token))
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		secrets []string
		want    string
	}{
		{
			name:    "single secret",
			input:   "BW_SESSION=abcd1234 exported",
			secrets: []string{"abcd1234"},
			want:    "BW_SESSION=[REDACTED] exported",
		},
		{
			name:    "multiple secrets",
			input:   "token1 and token2",
			secrets: []string{"token1", "token2"},
			want:    "[REDACTED] and [REDACTED]",
		},
		{
			name:    "short secrets are left alone",
			input:   "pin is 123",
			secrets: []string{"123"},
			want:    "pin is 123",
		},
		{
			name:    "empty secret list",
			input:   "nothing to hide",
			secrets: nil,
			want:    "nothing to hide",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Redact(tt.input, tt.secrets))
		})
	}
}
