package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, LogsConfig{ServiceName: "test-service"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, provider.IsEnabled())
	assert.NoError(t, provider.Shutdown(ctx))

	core := provider.ZapCore(zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel), "disabled export yields a no-op core")
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("component", "rendering"))

	logger.Info("staged")
	logger.Warn("capture retried by user")
	logger.Error("assembly failed")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "capture retried by user", logs.All()[0].Message)
	assert.Equal(t, "rendering", logs.All()[1].ContextMap()["component"])
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}
