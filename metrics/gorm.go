package metrics

import (
	"time"

	"gorm.io/gorm"
)

/* ========================================================================
 * Gorm Metrics Plugin
 * ========================================================================
 * Times every statement into DBQueryDuration. Register with db.Use.
 * ======================================================================== */

const startTimeKey = "metrics:start_time"

// GormPlugin observes statement durations.
type GormPlugin struct{}

// NewGormPlugin returns the plugin.
func NewGormPlugin() *GormPlugin { return &GormPlugin{} }

// Name implements gorm.Plugin.
func (p *GormPlugin) Name() string { return "siteplane:metrics" }

// Initialize implements gorm.Plugin.
func (p *GormPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register("metrics:before_create", recordStart); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("metrics:after_create", observeDuration("create")); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("metrics:before_query", recordStart); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("metrics:after_query", observeDuration("query")); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("metrics:before_update", recordStart); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("metrics:after_update", observeDuration("update")); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("metrics:before_delete", recordStart); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("metrics:after_delete", observeDuration("delete")); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("metrics:before_row", recordStart); err != nil {
		return err
	}
	if err := db.Callback().Row().After("gorm:row").Register("metrics:after_row", observeDuration("row")); err != nil {
		return err
	}
	if err := db.Callback().Raw().Before("gorm:raw").Register("metrics:before_raw", recordStart); err != nil {
		return err
	}
	return db.Callback().Raw().After("gorm:raw").Register("metrics:after_raw", observeDuration("raw"))
}

func recordStart(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func observeDuration(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(startTimeKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
