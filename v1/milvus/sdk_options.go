package milvus

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

// dialOptions translates the transport settings of cfg into gRPC dial
// options for the SDK. cfg must already carry defaults.
func dialOptions(cfg ConnectionConfig) ([]grpc.DialOption, error) {
	opts := []grpc.DialOption{
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.KeepAliveTime,
			Timeout:             cfg.KeepAliveTimeout,
			PermitWithoutStream: cfg.KeepAliveWithoutCalls,
		}),
	}

	if cfg.IdleTimeout != nil {
		opts = append(opts, grpc.WithIdleTimeout(*cfg.IdleTimeout))
	}
	if cfg.RPCDeadline > 0 {
		opts = append(opts, grpc.WithChainUnaryInterceptor(deadlineInterceptor(cfg.RPCDeadline)))
	}
	if cfg.ServerName != "" {
		opts = append(opts, grpc.WithAuthority(cfg.ServerName))
	}
	if cfg.ProxyAddress != "" {
		dialer, err := proxyDialer(cfg.ProxyAddress)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.WithContextDialer(dialer))
	}

	return opts, nil
}

// deadlineInterceptor bounds every unary call whose context has no deadline.
func deadlineInterceptor(d time.Duration) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// proxyDialer returns a dialer that tunnels through the SOCKS5 proxy at
// address.
func proxyDialer(address string) (func(context.Context, string) (net.Conn, error), error) {
	if !strings.Contains(address, "://") {
		address = "socks5://" + address
	}
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy address: %w", err)
	}

	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("unsupported proxy %q: %w", u.Redacted(), err)
	}

	if cd, ok := d.(proxy.ContextDialer); ok {
		return func(ctx context.Context, addr string) (net.Conn, error) {
			return cd.DialContext(ctx, "tcp", addr)
		}, nil
	}
	return func(_ context.Context, addr string) (net.Conn, error) {
		return d.Dial("tcp", addr)
	}, nil
}

// usesTLS reports whether the connection must be encrypted.
func usesTLS(cfg ConnectionConfig) bool {
	return strings.HasPrefix(strings.ToLower(cfg.URI), "https://") || cfg.ServerName != ""
}
