package postgres

import (
	"go.uber.org/fx"
)

// Module provides *gorm.DB backed by PostgreSQL.
var Module = fx.Module("postgres",
	fx.Provide(NewDB),
)
