package account

import (
	"github.com/smallbiznis/folio/internal/account/repository"
	"github.com/smallbiznis/folio/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewResolver),
)
