package idempotency

import (
	"github.com/smallbiznis/folio/internal/idempotency/service"
	"go.uber.org/fx"
)

var Module = fx.Module("idempotency",
	fx.Provide(service.NewService),
)
