package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/domain/shared"
	"catalog/infrastructure/persistence"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// GormLoggerConfig GORM 日志适配配置
type GormLoggerConfig struct {
	SlowThreshold time.Duration
	// IgnoreRecordNotFoundError 读取未命中是正常路径（仓储转换为 NotFound），默认不记录
	IgnoreRecordNotFoundError bool
}

func DefaultGormLoggerConfig() GormLoggerConfig {
	return GormLoggerConfig{
		SlowThreshold:             200 * time.Millisecond,
		IgnoreRecordNotFoundError: true,
	}
}

// GormLoggerAdapter 把 GORM 的 SQL 日志写入 zap，附带请求 ID 与操作者
type GormLoggerAdapter struct {
	logLevel logger.LogLevel
	logger   *zap.Logger
	config   GormLoggerConfig
}

// NewGormLogger base 为 nil 时使用全局 logger
func NewGormLogger(base *zap.Logger, logLevel logger.LogLevel, config GormLoggerConfig) *GormLoggerAdapter {
	if base == nil {
		base = Get()
	}
	return &GormLoggerAdapter{
		logLevel: logLevel,
		logger:   base.Named("gorm").WithOptions(zap.AddCallerSkip(3)),
		config:   config,
	}
}

func (l *GormLoggerAdapter) LogMode(logLevel logger.LogLevel) logger.Interface {
	clone := *l
	clone.logLevel = logLevel
	return &clone
}

func (l *GormLoggerAdapter) withContext(ctx context.Context) *zap.Logger {
	fields := make([]zap.Field, 0, 2)
	if requestID := persistence.RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if actor := shared.ActorFromContext(ctx); actor.ID != shared.SystemActorID {
		fields = append(fields, zap.String("actor", actor.ID))
	}
	if len(fields) == 0 {
		return l.logger
	}
	return l.logger.With(fields...)
}

func (l *GormLoggerAdapter) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.logLevel >= logger.Info {
		l.withContext(ctx).Info(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLoggerAdapter) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.withContext(ctx).Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLoggerAdapter) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.logLevel >= logger.Error {
		l.withContext(ctx).Error(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.logLevel >= logger.Error:
		if errors.Is(err, logger.ErrRecordNotFound) && l.config.IgnoreRecordNotFoundError {
			return
		}
		sql, rows := fc()
		l.withContext(ctx).Error("Database operation failed",
			zap.String("sql", sql),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", rows),
			zap.Error(err))
	case l.config.SlowThreshold != 0 && elapsed > l.config.SlowThreshold && l.logLevel >= logger.Warn:
		sql, rows := fc()
		l.withContext(ctx).Warn("Slow SQL query",
			zap.String("sql", sql),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", l.config.SlowThreshold),
			zap.Int64("rows", rows))
	case l.logLevel >= logger.Info:
		sql, rows := fc()
		l.withContext(ctx).Debug("SQL query executed",
			zap.String("sql", sql),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", rows))
	}
}

var _ logger.Interface = (*GormLoggerAdapter)(nil)
