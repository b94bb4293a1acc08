package nativecol

import (
	"net/http"
	"time"

	"github.com/blackhowling/nativecol/transport"
)

// ClientConfig holds connection and pool configuration for Client, mirroring
// the teacher's Config/Option pattern (executor.go's Open) but scoped to an
// HTTP-native transport instead of database/sql.
type ClientConfig struct {
	Logger   Logger
	Scheme   string
	Host     string
	Port     int
	Database string

	Auth transport.Auth

	UserAgent string
	Compress  string

	HTTPClient      *http.Client
	MaxConnectionAge time.Duration // default 15s, spec §5

	QueryRetries       int
	RetryBackoffUnit   time.Duration
	ShowClickHouseErrs bool

	QueryLimit          int
	ApplyServerTimezone bool
	UTCTzAwareMode      TzAwareMode
	DefaultFormats      map[string]string
}

// ClientOption configures a ClientConfig. Used with NewClient.
type ClientOption func(*ClientConfig)

func WithHost(host string, port int) ClientOption {
	return func(c *ClientConfig) { c.Host, c.Port = host, port }
}

func WithDatabase(db string) ClientOption {
	return func(c *ClientConfig) { c.Database = db }
}

func WithBasicAuth(user, password string) ClientOption {
	return func(c *ClientConfig) { c.Auth = transport.Auth{Kind: transport.AuthBasic, User: user, Password: password} }
}

func WithBearerAuth(token string) ClientOption {
	return func(c *ClientConfig) { c.Auth = transport.Auth{Kind: transport.AuthBearer, Token: token} }
}

func WithMutualTLSAuth(tlsUser string) ClientOption {
	return func(c *ClientConfig) { c.Auth = transport.Auth{Kind: transport.AuthMutualTLS, TLSUser: tlsUser} }
}

func WithCompression(encoding string) ClientOption {
	return func(c *ClientConfig) { c.Compress = encoding }
}

func WithClientLogger(logger Logger) ClientOption {
	return func(c *ClientConfig) { c.Logger = logger }
}

func WithClientQueryLimit(n int) ClientOption {
	return func(c *ClientConfig) { c.QueryLimit = n }
}

func WithMaxConnectionAge(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.MaxConnectionAge = d }
}

func (c *ClientConfig) withDefaults() *ClientConfig {
	cp := *c
	if cp.Scheme == "" {
		cp.Scheme = "http"
	}
	if cp.MaxConnectionAge == 0 {
		cp.MaxConnectionAge = 15 * time.Second
	}
	if cp.QueryRetries == 0 {
		cp.QueryRetries = 2
	}
	if cp.RetryBackoffUnit == 0 {
		cp.RetryBackoffUnit = 100 * time.Millisecond
	}
	if cp.HTTPClient == nil {
		cp.HTTPClient = &http.Client{Transport: agingTransport(cp.MaxConnectionAge)}
	}
	return &cp
}

// agingTransport builds an *http.Transport that closes connections left
// idle for longer than maxAge (IdleConnTimeout). It does not track how long
// a connection has existed, so a connection in steady use is kept past
// maxAge.
func agingTransport(maxAge time.Duration) *http.Transport {
	return &http.Transport{
		IdleConnTimeout: maxAge,
	}
}
