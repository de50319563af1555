package restaurant

import "go.uber.org/fx"

// Module provides the restaurant repository to Fx.
var Module = fx.Provide(NewRepository)
