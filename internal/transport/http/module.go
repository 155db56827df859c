package http

import (
	"go.uber.org/fx"

	suppliertransport "github.com/Additional-Code/fornecedor/internal/transport/http/supplier"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	suppliertransport.Module,
)
