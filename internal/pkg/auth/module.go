package auth

import (
	"go.uber.org/fx"

	"github.com/lunchpad/orderengine/internal/config"
)

// Module wires the token strategy shared with the external auth service.
var Module = fx.Provide(newTokenStrategy)

func newTokenStrategy(cfg *config.Config) Strategy {
	return NewHMACStrategy(cfg.TokenSecret, Options{})
}
