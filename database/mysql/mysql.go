package mysql

import (
	"fmt"
	"regexp"
	"time"

	"github.com/siteplane/siteplane-go-pkg/database"
	"github.com/siteplane/siteplane-go-pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

/* ========================================================================
 * MySQL
 * ========================================================================
 * Same contract as database/postgres for deployments on MySQL.
 * TranslateError stays on; the repository layer depends on it.
 * ======================================================================== */

// Config configures the MySQL connection.
type Config struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	DBName          string        `yaml:"dbname" mapstructure:"dbname"`
	Charset         string        `yaml:"charset" mapstructure:"charset"`
	Loc             string        `yaml:"loc" mapstructure:"loc"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// NewDB opens a MySQL connection.
func NewDB(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	charset := cfg.Charset
	if charset == "" {
		charset = "utf8mb4"
	}

	loc := cfg.Loc
	if loc == "" {
		loc = "Local"
	}

	// parseTime is always on; gorm needs time.Time scanning.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true&loc=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, charset, loc)

	gormLog := database.NewZapGormLogger(log.Logger)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql %s: %w", sanitizeDSN(dsn), err)
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

	log.Info("mysql connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("dbname", cfg.DBName),
		zap.String("dsn", sanitizeDSN(dsn)),
	)
	return db, nil
}

var dsnPassword = regexp.MustCompile(`^([^:@]+):([^@]*)@`)

// sanitizeDSN masks the password in go-sql-driver DSNs before they are
// logged or returned in errors.
func sanitizeDSN(dsn string) string {
	return dsnPassword.ReplaceAllString(dsn, "${1}:***@")
}
