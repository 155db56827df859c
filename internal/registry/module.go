package registry

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/fornecedor/internal/config"
)

// Module provides the registry client to Fx.
var Module = fx.Provide(New)

// New builds the client from the application configuration.
func New(cfg config.Config, logger *zap.Logger) *Client {
	return NewClient(cfg.Registry, logger)
}
