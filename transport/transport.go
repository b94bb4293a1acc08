// Package transport composes and issues the HTTP requests the client needs
// (spec §4.8): URL query params, headers, and body framing on the way out;
// status/retry handling, mid-stream exception detection, and summary/
// query-id extraction on the way back.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	nativecol "github.com/blackhowling/nativecol"
)

// Auth selects one of the three authentication modes spec §6 names.
type Auth struct {
	Kind     AuthKind
	User     string
	Password string
	Token    string // bearer token
	// TLSUser is sent as X-ClickHouse-User alongside mutual TLS auth.
	TLSUser string
}

// AuthKind is the closed set of supported authentication modes.
type AuthKind int

const (
	AuthBasic AuthKind = iota
	AuthBearer
	AuthMutualTLS
)

// Options configures a Facade's static request-building behavior.
type Options struct {
	Scheme     string // "http" or "https"
	Host       string
	Port       int
	ProxyPath  string
	Database   string
	Auth       Auth
	UserAgent  string
	Compress   string // request Content-Encoding / Accept-Encoding value, "" for none
	HTTPClient *http.Client

	QueryRetries       int           // default 2
	RetryBackoffUnit   time.Duration // default 100ms, spec: "0.1 * attempt seconds"
	ShowClickHouseErrs bool
}

func (o *Options) withDefaults() *Options {
	cp := *o
	if cp.Scheme == "" {
		cp.Scheme = "http"
	}
	if cp.QueryRetries == 0 {
		cp.QueryRetries = 2
	}
	if cp.RetryBackoffUnit == 0 {
		cp.RetryBackoffUnit = 100 * time.Millisecond
	}
	if cp.HTTPClient == nil {
		cp.HTTPClient = http.DefaultClient
	}
	return &cp
}

// Facade is the transport entry point: one Facade per client, shared across
// every request it issues (spec §5: "the HTTP connection pool is shared
// across all requests of a client").
type Facade struct {
	opts *Options
}

// NewFacade builds a Facade from opts.
func NewFacade(opts *Options) *Facade {
	return &Facade{opts: opts.withDefaults()}
}

// Request describes one outbound call before URL/header composition.
type Request struct {
	SQL             string            // raw SQL body for commands
	Body            io.Reader         // pre-encoded block stream for inserts; overrides SQL if set
	Settings        map[string]string // already-stringified settings, client + per-request merged
	Params          map[string]string // bind parameters -> param_<name>
	SessionID       string
	QueryID         string
	WaitEndOfQuery  bool
	TypedBindParams map[string]string // {name:Type} values, also sent as param_<name>
}

// Result carries a successful response's body (still possibly compressed)
// alongside the headers the codec/query-context layers need.
type Result struct {
	Body          io.ReadCloser
	ContentEncode string
	Timezone      string
	Summary       string
	QueryID       string
	ExceptionTag  string
}

// Execute issues req, retrying per spec §4.8's policy, and returns the raw
// response for the streaming bridge + decompressor to consume.
func (f *Facade) Execute(ctx context.Context, req *Request) (*Result, error) {
	attempt := 0
	for {
		attempt++
		res, status, body, excCode, err := f.doOnce(ctx, req)
		if err == nil && status >= 200 && status < 300 {
			return res, nil
		}
		if err == nil {
			msg := readErrBody(body)
			if attempt > f.opts.QueryRetries || !retryableStatus(status) {
				if attempt == 1 {
					return nil, &nativecol.DatabaseError{StatusCode: status, Body: msg, Code: excCode}
				}
				return nil, &nativecol.OperationalError{Message: fmt.Sprintf("HTTP %d after %d attempts", status, attempt)}
			}
		} else {
			if attempt > f.opts.QueryRetries {
				return nil, &nativecol.OperationalError{Message: "request failed", Cause: err}
			}
		}

		delay := time.Duration(attempt) * f.opts.RetryBackoffUnit
		b := backoff.NewConstantBackOff(delay)
		select {
		case <-time.After(b.NextBackOff()):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func retryableStatus(status int) bool {
	return status == 429 || status == 503 || status == 504
}

func readErrBody(body io.ReadCloser) string {
	if body == nil {
		return ""
	}
	defer body.Close()
	b, _ := io.ReadAll(body)
	return string(b)
}

func (f *Facade) doOnce(ctx context.Context, req *Request) (*Result, int, io.ReadCloser, int, error) {
	u := f.buildURL(req)
	method := http.MethodGet
	var body io.Reader
	if req.Body != nil {
		method = http.MethodPost
		body = req.Body
	} else if req.SQL != "" {
		method = http.MethodPost
		body = strings.NewReader(req.SQL)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, 0, nil, 0, err
	}
	f.setHeaders(httpReq, req)

	resp, err := f.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, 0, nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excCode := ParseExceptionCode(resp.Header.Get("X-ClickHouse-Exception-Code"))
		return nil, resp.StatusCode, resp.Body, excCode, nil
	}

	res := &Result{
		Body:          resp.Body,
		ContentEncode: resp.Header.Get("Content-Encoding"),
		Timezone:      resp.Header.Get("X-ClickHouse-Timezone"),
		Summary:       resp.Header.Get("X-ClickHouse-Summary"),
		QueryID:       resp.Header.Get("X-ClickHouse-Query-Id"),
		ExceptionTag:  resp.Header.Get("X-ClickHouse-Exception-Tag"),
	}
	return res, resp.StatusCode, nil, 0, nil
}

func (f *Facade) buildURL(req *Request) string {
	u := &url.URL{
		Scheme: f.opts.Scheme,
		Host:   fmt.Sprintf("%s:%d", f.opts.Host, f.opts.Port),
		Path:   f.opts.ProxyPath + "/",
	}
	q := u.Query()
	if f.opts.Database != "" {
		q.Set("database", f.opts.Database)
	}
	if req.Body != nil && req.SQL != "" {
		// Inserts carry the query text as a URL parameter so the body can be
		// pure native-format block bytes.
		q.Set("query", req.SQL)
	}
	for k, v := range req.Settings {
		q.Set(k, v)
	}
	for k, v := range req.Params {
		q.Set("param_"+k, v)
	}
	for k, v := range req.TypedBindParams {
		q.Set("param_"+k, v)
	}
	if req.SessionID != "" {
		q.Set("session_id", req.SessionID)
	}
	if req.QueryID != "" {
		q.Set("query_id", req.QueryID)
	}
	if req.WaitEndOfQuery {
		q.Set("wait_end_of_query", "1")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (f *Facade) setHeaders(httpReq *http.Request, req *Request) {
	switch f.opts.Auth.Kind {
	case AuthBasic:
		httpReq.SetBasicAuth(f.opts.Auth.User, f.opts.Auth.Password)
	case AuthBearer:
		httpReq.Header.Set("Authorization", "Bearer "+f.opts.Auth.Token)
	case AuthMutualTLS:
		httpReq.Header.Set("X-ClickHouse-User", f.opts.Auth.TLSUser)
		httpReq.Header.Set("X-ClickHouse-SSL-Certificate-Auth", "on")
	}
	if f.opts.Compress != "" {
		httpReq.Header.Set("Accept-Encoding", f.opts.Compress)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/octet-stream")
		if f.opts.Compress != "" {
			httpReq.Header.Set("Content-Encoding", f.opts.Compress)
		}
	} else {
		httpReq.Header.Set("Content-Type", "text/plain; charset=utf-8")
	}
	if f.opts.UserAgent != "" {
		httpReq.Header.Set("User-Agent", f.opts.UserAgent)
	}
}

// ParseExceptionCode reads the X-ClickHouse-Exception-Code header, if
// present, as an int (0 if absent or unparseable).
func ParseExceptionCode(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}
