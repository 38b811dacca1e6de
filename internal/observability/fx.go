package observability

import (
	"go.uber.org/fx"

	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/internal/observability/metrics"
)

var Module = fx.Module("observability",
	fx.Provide(func(cfg config.Config) *metrics.PostingMetrics {
		return metrics.PostingWithConfig(metrics.Config{
			ServiceName: cfg.AppName,
			Environment: cfg.Environment,
		})
	}),
)
