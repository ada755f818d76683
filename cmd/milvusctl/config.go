package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Aleph-Alpha/std-milvus/v1/logger"
	"github.com/Aleph-Alpha/std-milvus/v1/milvus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "MILVUSCTL"

// app carries the state shared by all commands.
type app struct {
	v      *viper.Viper
	out    io.Writer
	in     io.Reader
	dialer func(ctx context.Context, cfg milvus.ConnectionConfig, opts ...milvus.Option) (milvus.Service, error)
}

func newApp() *app {
	return &app{
		v:   viper.New(),
		out: os.Stdout,
		in:  os.Stdin,
		dialer: func(ctx context.Context, cfg milvus.ConnectionConfig, opts ...milvus.Option) (milvus.Service, error) {
			return milvus.NewClient(ctx, cfg, opts...)
		},
	}
}

func (a *app) bindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file (default ./milvusctl.yaml)")
	flags.String("uri", "http://localhost:19530", "Milvus URI")
	flags.String("token", "", "API token")
	flags.String("username", "", "Username")
	flags.String("password", "", "Password")
	flags.String("database", "", "Database name")
	flags.Duration("connect-timeout", milvus.DefaultConnectTimeout, "Connection timeout")
	flags.Duration("rpc-deadline", 0, "Deadline applied to every call (0 disables)")
	flags.String("server-name", "", "TLS server name override")
	flags.String("proxy", "", "SOCKS5 proxy address")
	flags.StringP("output", "o", "table", "Output format: table, json or yaml")
	flags.BoolP("verbose", "v", false, "Log client operations to stderr")

	// Flag names use dashes, config keys underscores.
	flags.VisitAll(func(f *pflag.Flag) {
		_ = a.v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
}

// loadConfig reads the config file, when one exists, and the environment.
func (a *app) loadConfig() error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if file := a.v.GetString("config"); file != "" {
		a.v.SetConfigFile(file)
	} else {
		a.v.SetConfigName("milvusctl")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	switch a.v.GetString("output") {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", a.v.GetString("output"))
	}
}

// connectionConfig assembles the client settings from the merged config.
func (a *app) connectionConfig() milvus.ConnectionConfig {
	cfg := milvus.FromURI(a.v.GetString("uri")).
		WithConnectTimeout(a.v.GetDuration("connect_timeout")).
		WithRPCDeadline(a.v.GetDuration("rpc_deadline")).
		WithServerName(a.v.GetString("server_name")).
		WithProxy(a.v.GetString("proxy")).
		WithDatabase(a.v.GetString("database"))

	if token := a.v.GetString("token"); token != "" {
		cfg.WithToken(token)
	}
	if user := a.v.GetString("username"); user != "" {
		cfg.WithCredentials(user, a.v.GetString("password"))
	}
	return *cfg
}

// client connects a new Milvus client. The caller closes it.
func (a *app) client(ctx context.Context) (milvus.Service, error) {
	log := logger.NewNopLogger()
	if a.v.GetBool("verbose") {
		log = logger.NewLoggerClient(logger.Config{Level: logger.Debug, Encoding: logger.ConsoleEncoding, ServiceName: "milvusctl"})
	}
	return a.dialer(ctx, a.connectionConfig(), milvus.WithLogger(log))
}

func (a *app) printer() *printer {
	return &printer{out: a.out, format: a.v.GetString("output")}
}
