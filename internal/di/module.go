package di

import (
	"go.uber.org/fx"

	"github.com/lunchpad/orderengine/internal/adapter/broker"
	"github.com/lunchpad/orderengine/internal/app"
	"github.com/lunchpad/orderengine/internal/config"
	"github.com/lunchpad/orderengine/internal/logger"
	"github.com/lunchpad/orderengine/internal/pkg/auth"
	"github.com/lunchpad/orderengine/internal/server/http/handlers"
	"github.com/lunchpad/orderengine/internal/server/http/router"
	"github.com/lunchpad/orderengine/internal/storage/postgres"
	"github.com/lunchpad/orderengine/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		broker.Module,
		usecase.Module,
		fx.Provide(func(f *app.CommerceFacade) handlers.CommerceFacade { return f }),
		fx.Provide(func(s *postgres.Storage) router.HealthChecker { return s }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
