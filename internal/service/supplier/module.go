package supplier

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/fornecedor/internal/registry"
)

// Module provides the supplier service to Fx.
var Module = fx.Provide(
	NewService,
	func(c *registry.Client) Lookuper { return c },
)
