package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog/domain/shared"
	"catalog/infrastructure/persistence"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm/logger"
)

func observedGormLogger(level logger.LogLevel, cfg GormLoggerConfig) (*GormLoggerAdapter, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, cfg), logs
}

func TestGormLoggerLevels(t *testing.T) {
	testCases := []struct {
		name      string
		logLevel  logger.LogLevel
		wantInfo  bool
		wantTrace bool
	}{
		{"Silent", logger.Silent, false, false},
		{"Warn", logger.Warn, false, false},
		{"Info", logger.Info, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			adapter, logs := observedGormLogger(tc.logLevel, DefaultGormLoggerConfig())
			ctx := context.Background()

			adapter.Info(ctx, "opened %s", "pool")
			adapter.Trace(ctx, time.Now(), func() (string, int64) {
				return "SELECT * FROM products", 1
			}, nil)

			if got := logs.FilterMessage("opened pool").Len() == 1; got != tc.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tc.wantInfo)
			}
			traced := logs.FilterMessage("SQL query executed")
			if got := traced.Len() == 1; got != tc.wantTrace {
				t.Fatalf("trace logged = %v, want %v", got, tc.wantTrace)
			}
			if tc.wantTrace {
				if sql := traced.All()[0].ContextMap()["sql"]; sql != "SELECT * FROM products" {
					t.Errorf("sql field = %v", sql)
				}
			}
		})
	}
}

func TestGormLoggerSlowQueryCarriesRequestContext(t *testing.T) {
	adapter, logs := observedGormLogger(logger.Warn, GormLoggerConfig{SlowThreshold: 10 * time.Millisecond})

	ctx := persistence.ContextWithRequestID(context.Background(), "req-123")
	ctx = shared.WithActor(ctx, shared.Actor{ID: "bob"})
	adapter.Trace(ctx, time.Now().Add(-50*time.Millisecond), func() (string, int64) {
		return "SELECT * FROM products WHERE sku = 'A'", 1
	}, nil)

	slow := logs.FilterMessage("Slow SQL query")
	if slow.Len() != 1 {
		t.Fatalf("expected one slow query entry, got %d", slow.Len())
	}
	fields := slow.All()[0].ContextMap()
	if fields["request_id"] != "req-123" {
		t.Errorf("request_id = %v", fields["request_id"])
	}
	if fields["actor"] != "bob" {
		t.Errorf("actor = %v", fields["actor"])
	}
	if slow.All()[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", slow.All()[0].Level)
	}
}

func TestGormLoggerRecordNotFound(t *testing.T) {
	notFound := func() (string, int64) { return "SELECT * FROM products WHERE id = 'x'", 0 }

	adapter, logs := observedGormLogger(logger.Error, DefaultGormLoggerConfig())
	adapter.Trace(context.Background(), time.Now(), notFound, logger.ErrRecordNotFound)
	if logs.Len() != 0 {
		t.Errorf("record not found should be ignored by default, got %d entries", logs.Len())
	}

	adapter, logs = observedGormLogger(logger.Error, GormLoggerConfig{})
	adapter.Trace(context.Background(), time.Now(), notFound, logger.ErrRecordNotFound)
	if logs.FilterMessage("Database operation failed").Len() != 1 {
		t.Error("record not found should be logged when not ignored")
	}
}

func TestGormLoggerErrorsAndLogMode(t *testing.T) {
	adapter, logs := observedGormLogger(logger.Silent, DefaultGormLoggerConfig())
	failing := func() (string, int64) { return "UPDATE products SET name = 'x'", 0 }

	adapter.Trace(context.Background(), time.Now(), failing, errors.New("deadlock"))
	if logs.Len() != 0 {
		t.Fatal("silent adapter must not log")
	}

	adapter.LogMode(logger.Error).Trace(context.Background(), time.Now(), failing, errors.New("deadlock"))
	failed := logs.FilterMessage("Database operation failed")
	if failed.Len() != 1 {
		t.Fatalf("expected one error entry, got %d", failed.Len())
	}
	if failed.All()[0].ContextMap()["error"] != "deadlock" {
		t.Errorf("error field = %v", failed.All()[0].ContextMap()["error"])
	}
}
