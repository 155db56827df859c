package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/fornecedor/internal/cache"
	"github.com/Additional-Code/fornecedor/internal/config"
	"github.com/Additional-Code/fornecedor/internal/database"
	"github.com/Additional-Code/fornecedor/internal/logger"
	"github.com/Additional-Code/fornecedor/internal/messaging"
	"github.com/Additional-Code/fornecedor/internal/observability"
	"github.com/Additional-Code/fornecedor/internal/registry"
	repositorysupplier "github.com/Additional-Code/fornecedor/internal/repository/supplier"
	grpcserver "github.com/Additional-Code/fornecedor/internal/server/grpc"
	httpserver "github.com/Additional-Code/fornecedor/internal/server/http"
	servicesupplier "github.com/Additional-Code/fornecedor/internal/service/supplier"
	transporthttp "github.com/Additional-Code/fornecedor/internal/transport/http"
	"github.com/Additional-Code/fornecedor/internal/worker"
	workersupplier "github.com/Additional-Code/fornecedor/internal/worker/supplier"
)

// Base carries configuration and logging only; enough for registry probes.
var Base = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Base,
	cache.Module,
	database.Module,
	messaging.Module,
	registry.Module,
	repositorysupplier.Module,
	servicesupplier.Module,
)

// HTTP wires the REST API and the gRPC health endpoint on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background processing of supplier events.
var Worker = fx.Options(
	Core,
	worker.Module,
	workersupplier.Module,
	fx.Invoke(func(*observability.Manager) {}),
)

// Module is the default application wiring.
var Module = HTTP
