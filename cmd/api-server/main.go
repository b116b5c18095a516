// Command api-server serves the pizzeria order placement API.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	pizzeria "github.com/sneakyevil96/DatabaseProject/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, t *app.Telemetry) error {
		cfg, err := pizzeria.LoadConfig()
		if err != nil {
			return errors.Wrap(err, "load config")
		}
		lg.Info("Configuration loaded",
			zap.String("addr", cfg.Addr),
			zap.String("time_zone", cfg.TimeZone),
			zap.Bool("amqp", cfg.Outbox.AMQPURL != ""),
		)
		return pizzeria.Run(ctx, lg, t, cfg)
	})
}
