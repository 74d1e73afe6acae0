package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "shopledger/internal/core/context"
)

func TestFromContext_AddsTraceAndUser(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := &Logger{zap.New(core).Sugar()}

	ctx := WithLogger(context.Background(), log)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "cashier-7"})

	Info(ctx, "sale order created", "code", "SO-2026-00001")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "cashier-7", fields["user_id"])
	assert.Equal(t, "SO-2026-00001", fields["code"])
}

func TestWithComponent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := (&Logger{zap.New(core).Sugar()}).WithComponent("reconciliation")

	log.Debugw("sweep started")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "reconciliation", logs.All()[0].ContextMap()["component"])
}

func TestNew_FallsBackToInfoOnBadLevel(t *testing.T) {
	log, err := New(Config{Level: "loud", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	assert.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestSetDefault_UsedWithoutContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := SetDefault(&Logger{zap.New(core).Sugar()})

	Warn(context.Background(), "stock below zero", "stock", -1)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(-1), logs.All()[0].ContextMap()["stock"])

	restore()
	Warn(context.Background(), "not captured")
	assert.Equal(t, 1, logs.Len())
}

func TestWithOrderAndCounterparty(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := &Logger{zap.New(core).Sugar()}

	log.WithOrder("o-1", "SO-2026-00042").WithCounterparty("c-9").Infow("order status changed", "status", "COMPLETED")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "o-1", fields["order_id"])
	assert.Equal(t, "SO-2026-00042", fields["code"])
	assert.Equal(t, "c-9", fields["counterparty_id"])
	assert.Equal(t, "COMPLETED", fields["status"])
}

func TestWithContext_AddsRoles(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), &Logger{zap.New(core).Sugar()})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u-1", Roles: []string{"manager"}})

	Info(ctx, "reconciliation run")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, []any{"manager"}, logs.All()[0].ContextMap()["roles"])
}
