package logger

import (
	"go.uber.org/fx"
)

// Module provides *Logger from a Config supplied by the application.
var Module = fx.Module("logger",
	fx.Provide(NewLogger),
)
