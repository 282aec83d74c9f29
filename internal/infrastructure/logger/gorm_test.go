package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func TestGormLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("logs queries at debug in info mode", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Info)
		l.Trace(context.Background(), time.Now(), query, nil)

		entries := logs.FilterMessage("SQL Query").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
	})

	t.Run("logs errors with the failing statement", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Error)
		l.Trace(context.Background(), time.Now(), query, errors.New("constraint violation"))

		entries := logs.FilterMessage("SQL Error").All()
		require.Len(t, entries, 1)
	})

	t.Run("record not found is suppressed by default", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Error)
		l.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)

		assert.Empty(t, logs.All())
	})

	t.Run("slow queries are warned", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Nanosecond))
		l.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)

		require.Len(t, logs.All(), 1)
		assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
	})

	t.Run("silent mode logs nothing", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Silent)
		l.Trace(context.Background(), time.Now(), query, errors.New("ignored"))

		assert.Empty(t, logs.All())
	})

	t.Run("request id from context is attached", func(t *testing.T) {
		l, logs := newObservedGormLogger(gormlogger.Info)
		ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-9")
		l.Trace(ctx, time.Now(), query, nil)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-9", entries[0].ContextMap()["request_id"])
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("other"))
}
