package postgres

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/siteplane/siteplane-go-pkg/database"
	"github.com/siteplane/siteplane-go-pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

/* ========================================================================
 * PostgreSQL
 * ========================================================================
 * Connection pool and gorm wiring for the primary store. TranslateError
 * is always on: the repository layer maps gorm.ErrDuplicatedKey and
 * gorm.ErrRecordNotFound into the shared error taxonomy and depends on
 * the driver reporting them.
 * ======================================================================== */

// Config configures the PostgreSQL connection.
type Config struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	DBName          string        `yaml:"dbname" mapstructure:"dbname"`
	SSLMode         string        `yaml:"sslmode" mapstructure:"sslmode"`
	Schema          string        `yaml:"schema" mapstructure:"schema"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// NewDB opens a PostgreSQL connection.
func NewDB(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
	if cfg.Schema != "" {
		dsn = fmt.Sprintf("%s search_path=%s", dsn, cfg.Schema)
	}

	gormLog := database.NewZapGormLogger(log.Logger)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: dsn,
	}), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres %s: %w", sanitizeDSN(dsn), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 10
	}

	maxOpenConns := cfg.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 25
	}

	connMaxLifetime := cfg.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 1 * time.Hour
	}

	connMaxIdleTime := cfg.ConnMaxIdleTime
	if connMaxIdleTime <= 0 {
		connMaxIdleTime = 20 * time.Minute
	}

	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	log.Info("postgres connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("dbname", cfg.DBName),
		zap.String("dsn", sanitizeDSN(dsn)),
	)
	return db, nil
}

var keywordPassword = regexp.MustCompile(`(password=)\S+`)

// sanitizeDSN masks the password in keyword and URL-style DSNs before
// they are logged or returned in errors.
func sanitizeDSN(dsn string) string {
	if strings.Contains(dsn, "password=") {
		return keywordPassword.ReplaceAllString(dsn, "${1}***")
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	if u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	return u.String()
}
