package item

import (
	"github.com/smallbiznis/folio/internal/item/repository"
	"github.com/smallbiznis/folio/internal/item/service"
	"go.uber.org/fx"
)

var Module = fx.Module("item",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewResolver),
)
