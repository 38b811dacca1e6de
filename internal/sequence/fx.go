package sequence

import (
	"github.com/smallbiznis/folio/internal/sequence/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sequence",
	fx.Provide(service.NewAllocator),
)
