package document

import (
	"go.uber.org/fx"

	"github.com/smallbiznis/folio/internal/document/repository"
	"github.com/smallbiznis/folio/internal/document/service"
)

var Module = fx.Module("document",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
