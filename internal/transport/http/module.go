package http

import (
	"go.uber.org/fx"

	ordertransport "github.com/SilkenBread/restaurant-ordering-backend/internal/transport/http/order"
	reporttransport "github.com/SilkenBread/restaurant-ordering-backend/internal/transport/http/report"
	usertransport "github.com/SilkenBread/restaurant-ordering-backend/internal/transport/http/user"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	usertransport.Module,
	reporttransport.Module,
)
