package logger

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

/* ========================================================================
 * Logger
 * ========================================================================
 * Structured logging for every siteplane service. JSON in production,
 * console for local work; anything that is not "stdout"/"stderr" in
 * Output is treated as a file path and rotated.
 * ======================================================================== */

// Config configures the logger.
type Config struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, console
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr or a file path

	// File rotation, only used when Output is a file path.
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// Logger wraps zap.
type Logger struct {
	*zap.Logger
}

// ValidateConfig rejects levels and formats the logger cannot honour,
// so a typo fails startup instead of silently logging at info.
func ValidateConfig(cfg Config) error {
	if cfg.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return fmt.Errorf("invalid log level %q", cfg.Level)
		}
	}
	switch cfg.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", cfg.Format)
	}
	return nil
}

// NewLogger builds a logger from cfg. Unknown levels fall back to info.
func NewLogger(cfg Config) *Logger {
	level := zap.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = zap.InfoLevel
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var writer zapcore.WriteSyncer
	switch cfg.Output {
	case "", "stdout":
		writer = zapcore.AddSync(os.Stdout)
	case "stderr":
		writer = zapcore.AddSync(os.Stderr)
	default:
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    defaultInt(cfg.MaxSizeMB, 100),
			MaxBackups: defaultInt(cfg.MaxBackups, 10),
			MaxAge:     defaultInt(cfg.MaxAgeDays, 30),
			Compress:   cfg.Compress,
		})
	}

	core := zapcore.NewCore(encoder, writer, level)
	return &Logger{Logger: zap.New(core, zap.AddCaller())}
}

// NewNop returns a logger that discards everything. For tests and
// optional dependencies.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// WithContext returns the logger enriched with request-scoped fields
// carried on ctx. Currently only the tenant id set by middleware.Tenant.
func (l *Logger) WithContext(ctx context.Context) *zap.Logger {
	if id, ok := ctx.Value(tenantLogKey{}).(string); ok && id != "" {
		return l.Logger.With(zap.String("tenant_id", id))
	}
	return l.Logger
}

// tenantLogKey is the context key middleware.Tenant uses to expose the
// resolved tenant id to logging.
type tenantLogKey struct{}

// ContextWithTenantField marks ctx so WithContext adds the tenant id.
func ContextWithTenantField(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantLogKey{}, tenantID)
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
