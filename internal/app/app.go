package app

import (
	"go.uber.org/fx"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/cache"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/database"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/jobstatus"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/logger"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/messaging"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/observability"
	repositorymenu "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/menu"
	repositoryorder "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/order"
	repositoryreport "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/report"
	repositoryrestaurant "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/restaurant"
	repositoryuser "github.com/SilkenBread/restaurant-ordering-backend/internal/repository/user"
	grpcserver "github.com/SilkenBread/restaurant-ordering-backend/internal/server/grpc"
	httpserver "github.com/SilkenBread/restaurant-ordering-backend/internal/server/http"
	serviceorder "github.com/SilkenBread/restaurant-ordering-backend/internal/service/order"
	servicereport "github.com/SilkenBread/restaurant-ordering-backend/internal/service/report"
	serviceuser "github.com/SilkenBread/restaurant-ordering-backend/internal/service/user"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/storage"
	transporthttp "github.com/SilkenBread/restaurant-ordering-backend/internal/transport/http"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/validation"
	"github.com/SilkenBread/restaurant-ordering-backend/internal/worker"
	workerreport "github.com/SilkenBread/restaurant-ordering-backend/internal/worker/report"
	workeruser "github.com/SilkenBread/restaurant-ordering-backend/internal/worker/user"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	logger.Module,
	cache.Module,
	database.Module,
	messaging.Module,
	observability.Module,
	storage.Module,
	validation.Module,
	jobstatus.Module,
	worker.QueueModule,
	repositoryrestaurant.Module,
	repositorymenu.Module,
	repositoryuser.Module,
	repositoryorder.Module,
	repositoryreport.Module,
	serviceorder.Module,
	serviceuser.Module,
	servicereport.Module,
)

var servers = fx.Options(
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

var workers = fx.Options(
	worker.Module,
	workeruser.Module,
	workerreport.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	servers,
)

// Worker exposes background job processing.
var Worker = fx.Options(
	Core,
	workers,
)

// Standalone runs the servers and the job engine in one process. It is the
// only layout that works with the in-memory messaging driver.
var Standalone = fx.Options(
	Core,
	servers,
	workers,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
