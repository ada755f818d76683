package tracer

import (
	"context"

	"github.com/Aleph-Alpha/std-milvus/v1/logger"
	"go.uber.org/fx"
)

// FXModule provides a Uber FX module that configures distributed tracing for your application.
//
// The module:
// 1. Provides the tracer client through the NewClient constructor
// 2. Registers shutdown hooks to flush and close the provider on termination
//
// Dependencies required by this module:
// - tracer.Config
// - logger.Logger (see logger.FXModule)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle registers shutdown hooks for the tracer with the FX lifecycle.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer, log logger.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down tracer", nil)
			return tracer.Shutdown(ctx)
		},
	})
}
