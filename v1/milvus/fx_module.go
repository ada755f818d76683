package milvus

import (
	"context"

	"github.com/Aleph-Alpha/std-milvus/v1/logger"
	"github.com/Aleph-Alpha/std-milvus/v1/observability"
	"github.com/Aleph-Alpha/std-milvus/v1/tracer"
	"go.uber.org/fx"
)

// FXModule is an fx.Module that provides and manages the Milvus client.
//
// The module provides:
// 1. *Client (concrete type) for direct use
// 2. Service interface for dependency injection
// 3. Lifecycle management: the client connects on start and closes on stop
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,   // optional
//	    metrics.FXModule,  // optional, provides the observer
//	    tracer.FXModule,   // optional
//	    milvus.FXModule,
//	    fx.Supply(*milvus.FromURI("http://localhost:19530")),
//	)
var FXModule = fx.Module("milvus",
	fx.Provide(
		NewClientWithDI,
		fx.Annotate(
			func(c *Client) Service { return c },
			fx.As(new(Service)),
		),
	),
	fx.Invoke(RegisterMilvusLifecycle),
)

// MilvusParams groups the dependencies needed to create a Milvus client.
type MilvusParams struct {
	fx.In

	Config    ConnectionConfig
	Connector Connector              `optional:"true"`
	Logger    logger.Logger          `optional:"true"`
	Observer  observability.Observer `optional:"true"`
	Tracer    *tracer.Tracer         `optional:"true"`
}

// NewClientWithDI creates an unconnected client from injected dependencies.
// The connection is opened by RegisterMilvusLifecycle on application start.
func NewClientWithDI(params MilvusParams) *Client {
	connector := params.Connector
	if connector == nil {
		connector = SDKConnector{}
	}

	var opts []Option
	if params.Logger != nil {
		opts = append(opts, WithLogger(params.Logger))
	}
	if params.Observer != nil {
		opts = append(opts, WithObserver(params.Observer))
	}
	if params.Tracer != nil {
		opts = append(opts, WithTracerProvider(params.Tracer.TracerProvider()))
	}
	return New(connector, opts...)
}

// MilvusLifecycleParams groups the dependencies needed for lifecycle management.
type MilvusLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
	Config    ConnectionConfig
}

// RegisterMilvusLifecycle connects the client when the application starts
// and closes it when the application stops. A failed connect aborts startup.
func RegisterMilvusLifecycle(params MilvusLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return params.Client.Connect(ctx, params.Config)
		},
		OnStop: func(ctx context.Context) error {
			return params.Client.Close()
		},
	})
}
