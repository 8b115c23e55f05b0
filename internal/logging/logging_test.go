package logging_test

import (
	"baldsphere-backend/internal/logging"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactsSensitiveKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := logging.NewCore(core, true)

	logger.Info("user signed up", "email", "a@b.com", "password", "Abcdef1!", "user_id", "123")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["email"])
	assert.Equal(t, "[REDACTED]", fields["password"])
	assert.Equal(t, "123", fields["user_id"])
}

func TestRedactsWithAttrs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := logging.NewCore(core, true).With("supabase_service_key", "secret-value")

	logger.Warn("backend selected", "mode", "hybrid")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["supabase_service_key"])
	assert.Equal(t, "hybrid", fields["mode"])
}

func TestNoRedaction(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := logging.NewCore(core, false)

	logger.Info("login", "email", "a@b.com")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a@b.com", entries[0].ContextMap()["email"])
}
