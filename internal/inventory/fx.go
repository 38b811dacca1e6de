package inventory

import (
	"github.com/smallbiznis/folio/internal/inventory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("inventory",
	fx.Provide(service.NewService),
)
