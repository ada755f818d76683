package milvus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.URI)
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.Equal(t, DefaultKeepAliveTime, cfg.KeepAliveTime)
	assert.Equal(t, DefaultKeepAliveTimeout, cfg.KeepAliveTimeout)
	assert.Nil(t, cfg.IdleTimeout)
	assert.Zero(t, cfg.RPCDeadline)
}

func TestConfigBuilder(t *testing.T) {
	cfg := FromURI("https://example.com:443").
		WithToken("secret").
		WithCredentials("root", "Milvus").
		WithConnectTimeout(time.Second).
		WithIdleTimeout(time.Minute).
		WithRPCDeadline(2*time.Second).
		WithKeepAlive(10*time.Second, 3*time.Second, true).
		WithServerName("milvus.internal").
		WithProxy("127.0.0.1:1080").
		WithDatabase("analytics")

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "secret", cfg.Auth.Token)
	assert.Equal(t, "root", cfg.Credentials.Username)
	assert.Equal(t, time.Second, cfg.ConnectTimeout)
	require.NotNil(t, cfg.IdleTimeout)
	assert.Equal(t, time.Minute, *cfg.IdleTimeout)
	assert.Equal(t, 2*time.Second, cfg.RPCDeadline)
	assert.Equal(t, 10*time.Second, cfg.KeepAliveTime)
	assert.Equal(t, 3*time.Second, cfg.KeepAliveTimeout)
	assert.True(t, cfg.KeepAliveWithoutCalls)
	assert.Equal(t, "milvus.internal", cfg.ServerName)
	assert.Equal(t, "127.0.0.1:1080", cfg.ProxyAddress)
	assert.Equal(t, "analytics", cfg.Database)
}

func TestConfigValidate(t *testing.T) {
	negative := -time.Second

	tests := []struct {
		name    string
		cfg     ConnectionConfig
		wantErr bool
	}{
		{"http", ConnectionConfig{URI: "http://localhost:19530"}, false},
		{"host and port", ConnectionConfig{URI: "localhost:19530"}, false},
		{"grpc", ConnectionConfig{URI: "grpc://milvus:19530"}, false},
		{"missing uri", ConnectionConfig{}, true},
		{"unsupported scheme", ConnectionConfig{URI: "ftp://host"}, true},
		{"negative connect timeout", ConnectionConfig{URI: "http://x", ConnectTimeout: -1}, true},
		{"negative idle timeout", ConnectionConfig{URI: "http://x", IdleTimeout: &negative}, true},
		{"credentials without username", ConnectionConfig{URI: "http://x", Credentials: &CredentialsConfig{Password: "p"}}, true},
		{"empty token", ConnectionConfig{URI: "http://x", Auth: &AuthConfig{}}, true},
		{
			"token and credentials",
			ConnectionConfig{URI: "http://x", Auth: &AuthConfig{Token: "t"}, Credentials: &CredentialsConfig{Username: "u"}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.True(t, IsValidationError(err), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := ConnectionConfig{URI: "http://x", KeepAliveTime: time.Second}.withDefaults()
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.Equal(t, time.Second, cfg.KeepAliveTime)
	assert.Equal(t, DefaultKeepAliveTimeout, cfg.KeepAliveTimeout)
}

func TestUsesTLS(t *testing.T) {
	assert.True(t, usesTLS(ConnectionConfig{URI: "HTTPS://x"}))
	assert.True(t, usesTLS(ConnectionConfig{URI: "http://x", ServerName: "x"}))
	assert.False(t, usesTLS(ConnectionConfig{URI: "http://x"}))
}
