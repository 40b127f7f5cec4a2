package broker

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/lunchpad/orderengine/internal/config"
	"github.com/lunchpad/orderengine/internal/usecase"
)

// Module exposes the AMQP broker to the fx graph.
var Module = fx.Options(
	fx.Provide(newBroker),
	fx.Provide(func(b *Broker) usecase.NotificationRouter { return b }),
	fx.Invoke(registerLifecycle),
)

type brokerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newBroker(p brokerParams) (*Broker, error) {
	return New(p.Config.AMQPAddress, p.Config.NotifyExchange, p.Config.ShippingQueue, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, b *Broker) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			b.Close()
			return nil
		},
	})
}
