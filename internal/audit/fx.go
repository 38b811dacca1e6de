package audit

import (
	"go.uber.org/fx"

	"github.com/smallbiznis/folio/internal/audit/repository"
	"github.com/smallbiznis/folio/internal/audit/service"
)

var Module = fx.Module("audit",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
