package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/millflow/internal/cache"
	"github.com/Additional-Code/millflow/internal/config"
	"github.com/Additional-Code/millflow/internal/database"
	"github.com/Additional-Code/millflow/internal/logger"
	"github.com/Additional-Code/millflow/internal/messaging"
	"github.com/Additional-Code/millflow/internal/notify"
	"github.com/Additional-Code/millflow/internal/observability"
	repositoryproduction "github.com/Additional-Code/millflow/internal/repository/production"
	grpcserver "github.com/Additional-Code/millflow/internal/server/grpc"
	httpserver "github.com/Additional-Code/millflow/internal/server/http"
	serviceproduction "github.com/Additional-Code/millflow/internal/service/production"
	transporthttp "github.com/Additional-Code/millflow/internal/transport/http"
	"github.com/Additional-Code/millflow/internal/worker"
	workerproduction "github.com/Additional-Code/millflow/internal/worker/production"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositoryproduction.Module,
	serviceproduction.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
	grpcserver.Module,
)

// Worker consumes production events and forwards them to the notifier.
var Worker = fx.Options(
	Core,
	notify.Module,
	worker.Module,
	workerproduction.Module,
)

// Module is the default application wiring.
var Module = HTTP
