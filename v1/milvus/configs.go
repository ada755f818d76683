package milvus

import (
	"net/url"
	"time"
)

// Connection defaults.
const (
	DefaultConnectTimeout   = 10 * time.Second
	DefaultKeepAliveTime    = 55 * time.Second
	DefaultKeepAliveTimeout = 20 * time.Second
)

// AuthConfig authenticates with an API token ("user:password" for a
// self-hosted instance, an API key for Zilliz Cloud).
type AuthConfig struct {
	Token string `yaml:"token" env:"MILVUS_TOKEN"`
}

// CredentialsConfig authenticates with a username and password.
type CredentialsConfig struct {
	Username string `yaml:"username" env:"MILVUS_USERNAME"`
	Password string `yaml:"password" env:"MILVUS_PASSWORD"`
}

// ConnectionConfig holds the settings used to connect a Client.
//
// Example (programmatic):
//
//	cfg := milvus.DefaultConfig()
//	cfg.URI = "http://localhost:19530"
//	cfg.Credentials = &milvus.CredentialsConfig{Username: "root", Password: "Milvus"}
//
// Example (builder style):
//
//	cfg := milvus.FromURI("https://in03-xxx.zillizcloud.com").
//	    WithToken(os.Getenv("MILVUS_TOKEN")).
//	    WithRPCDeadline(5 * time.Second)
type ConnectionConfig struct {
	// URI of the Milvus server, e.g. "http://localhost:19530". An https
	// scheme enables TLS.
	URI string `yaml:"uri" env:"MILVUS_URI"`

	// Auth and Credentials are both optional. When both are set the token is
	// sent together with the username and password.
	Auth        *AuthConfig        `yaml:"auth"`
	Credentials *CredentialsConfig `yaml:"credentials"`

	// ConnectTimeout bounds the initial dial. Default: 10s.
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"MILVUS_CONNECT_TIMEOUT"`

	// IdleTimeout closes the channel after this much inactivity. Nil keeps
	// the gRPC default.
	IdleTimeout *time.Duration `yaml:"idle_timeout" env:"MILVUS_IDLE_TIMEOUT"`

	// RPCDeadline is applied to every call whose context has no deadline.
	// Zero disables it.
	RPCDeadline time.Duration `yaml:"rpc_deadline" env:"MILVUS_RPC_DEADLINE"`

	// KeepAliveTime is the ping interval on an idle transport. Default: 55s.
	KeepAliveTime time.Duration `yaml:"keep_alive_time" env:"MILVUS_KEEP_ALIVE_TIME"`

	// KeepAliveTimeout is how long to wait for a ping ack. Default: 20s.
	KeepAliveTimeout time.Duration `yaml:"keep_alive_timeout" env:"MILVUS_KEEP_ALIVE_TIMEOUT"`

	// KeepAliveWithoutCalls sends pings even without active calls.
	KeepAliveWithoutCalls bool `yaml:"keep_alive_without_calls" env:"MILVUS_KEEP_ALIVE_WITHOUT_CALLS"`

	// ServerName overrides the TLS server name and :authority header.
	ServerName string `yaml:"server_name" env:"MILVUS_SERVER_NAME"`

	// ProxyAddress routes the connection through a SOCKS5 proxy, given as
	// "host:port" or "socks5://host:port".
	ProxyAddress string `yaml:"proxy_address" env:"MILVUS_PROXY_ADDRESS"`

	// Database selects a database other than "default".
	Database string `yaml:"database" env:"MILVUS_DATABASE"`
}

// DefaultConfig returns a config with the default timeouts and no URI.
func DefaultConfig() ConnectionConfig {
	return ConnectionConfig{
		ConnectTimeout:   DefaultConnectTimeout,
		KeepAliveTime:    DefaultKeepAliveTime,
		KeepAliveTimeout: DefaultKeepAliveTimeout,
	}
}

// FromURI returns the default config for uri.
func FromURI(uri string) *ConnectionConfig {
	cfg := DefaultConfig()
	cfg.URI = uri
	return &cfg
}

func (c *ConnectionConfig) WithToken(token string) *ConnectionConfig {
	c.Auth = &AuthConfig{Token: token}
	return c
}

func (c *ConnectionConfig) WithCredentials(username, password string) *ConnectionConfig {
	c.Credentials = &CredentialsConfig{Username: username, Password: password}
	return c
}

func (c *ConnectionConfig) WithConnectTimeout(d time.Duration) *ConnectionConfig {
	c.ConnectTimeout = d
	return c
}

func (c *ConnectionConfig) WithIdleTimeout(d time.Duration) *ConnectionConfig {
	c.IdleTimeout = &d
	return c
}

func (c *ConnectionConfig) WithRPCDeadline(d time.Duration) *ConnectionConfig {
	c.RPCDeadline = d
	return c
}

func (c *ConnectionConfig) WithKeepAlive(interval, timeout time.Duration, withoutCalls bool) *ConnectionConfig {
	c.KeepAliveTime = interval
	c.KeepAliveTimeout = timeout
	c.KeepAliveWithoutCalls = withoutCalls
	return c
}

func (c *ConnectionConfig) WithServerName(name string) *ConnectionConfig {
	c.ServerName = name
	return c
}

func (c *ConnectionConfig) WithProxy(address string) *ConnectionConfig {
	c.ProxyAddress = address
	return c
}

func (c *ConnectionConfig) WithDatabase(name string) *ConnectionConfig {
	c.Database = name
	return c
}

// Validate checks the config before any connection attempt.
func (c ConnectionConfig) Validate() error {
	if c.URI == "" {
		return missing("uri")
	}
	u, err := url.Parse(c.URI)
	if err != nil {
		return &ValidationError{Field: "uri", Reason: err.Error()}
	}
	switch u.Scheme {
	case "", "http", "https", "tcp", "grpc":
	default:
		if u.Opaque == "" {
			return &ValidationError{Field: "uri", Reason: "unsupported scheme " + u.Scheme}
		}
	}

	durations := map[string]time.Duration{
		"connect timeout":    c.ConnectTimeout,
		"rpc deadline":       c.RPCDeadline,
		"keep alive time":    c.KeepAliveTime,
		"keep alive timeout": c.KeepAliveTimeout,
	}
	if c.IdleTimeout != nil {
		durations["idle timeout"] = *c.IdleTimeout
	}
	for name, d := range durations {
		if d < 0 {
			return &ValidationError{Field: name, Reason: "must not be negative"}
		}
	}

	if c.Credentials != nil && c.Credentials.Username == "" {
		return missing("credentials username")
	}
	if c.Auth != nil && c.Auth.Token == "" {
		return missing("auth token")
	}
	return nil
}

// withDefaults fills zero durations with the package defaults.
func (c ConnectionConfig) withDefaults() ConnectionConfig {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.KeepAliveTime == 0 {
		c.KeepAliveTime = DefaultKeepAliveTime
	}
	if c.KeepAliveTimeout == 0 {
		c.KeepAliveTimeout = DefaultKeepAliveTimeout
	}
	return c
}
