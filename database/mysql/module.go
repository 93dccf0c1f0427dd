package mysql

import (
	"go.uber.org/fx"
)

// Module provides *gorm.DB backed by MySQL.
var Module = fx.Module("mysql",
	fx.Provide(NewDB),
)
