package repository

import (
	"go.uber.org/fx"
)

// Module provides the repository Factory.
// Requires: *gorm.DB (see database/postgres or database/mysql) and
// optional FactoryOption values supplied by the application.
var Module = fx.Module("repository",
	fx.Provide(
		fx.Annotate(NewFactory, fx.ParamTags(``, `group:"repository_options"`)),
	),
)
