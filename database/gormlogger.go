package database

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

/* ========================================================================
 * Gorm Logger Adapter
 * ========================================================================
 * Routes gorm's own logging through zap so database noise lands in the
 * same structured stream as everything else.
 * ======================================================================== */

const defaultSlowThreshold = 200 * time.Millisecond

// ZapGormLogger adapts zap to gorm's logger interface.
type ZapGormLogger struct {
	log           *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewZapGormLogger wraps log for gorm at Warn level.
func NewZapGormLogger(log *zap.Logger) *ZapGormLogger {
	return &ZapGormLogger{
		log:           log,
		level:         gormlogger.Warn,
		slowThreshold: defaultSlowThreshold,
	}
}

// LogMode returns a copy at the given level.
func (l *ZapGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *ZapGormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.log.Sugar().Infof(msg, args...)
	}
}

func (l *ZapGormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Sugar().Warnf(msg, args...)
	}
}

func (l *ZapGormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.log.Sugar().Errorf(msg, args...)
	}
}

// Trace logs completed statements. Not-found is left to the repository
// layer; it is an expected outcome, not a database failure.
func (l *ZapGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Error("sql error",
			zap.Error(err),
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.log.Warn("slow sql",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", l.slowThreshold),
		)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.log.Debug("sql",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	}
}
