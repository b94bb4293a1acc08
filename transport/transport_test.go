package transport

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	nativecol "github.com/blackhowling/nativecol"
)

func TestBuildURLIncludesDatabaseSettingsAndParams(t *testing.T) {
	f := NewFacade(&Options{Host: "localhost", Port: 8123, Database: "analytics"})
	u := f.buildURL(&Request{
		Settings:       map[string]string{"max_threads": "4"},
		Params:         map[string]string{"id": "7"},
		SessionID:      "sess-1",
		QueryID:        "q-1",
		WaitEndOfQuery: true,
	})
	require.Contains(t, u, "database=analytics")
	require.Contains(t, u, "max_threads=4")
	require.Contains(t, u, "param_id=7")
	require.Contains(t, u, "session_id=sess-1")
	require.Contains(t, u, "query_id=q-1")
	require.Contains(t, u, "wait_end_of_query=1")
}

func TestSetHeadersBasicAuth(t *testing.T) {
	f := NewFacade(&Options{Host: "localhost", Port: 8123, Auth: Auth{Kind: AuthBasic, User: "u", Password: "p"}})
	req, err := http.NewRequest(http.MethodGet, "http://localhost/", nil)
	require.NoError(t, err)
	f.setHeaders(req, &Request{})
	user, pass, ok := req.BasicAuth()
	require.True(t, ok)
	require.Equal(t, "u", user)
	require.Equal(t, "p", pass)
}

func TestSetHeadersBearerAuth(t *testing.T) {
	f := NewFacade(&Options{Host: "localhost", Port: 8123, Auth: Auth{Kind: AuthBearer, Token: "tok"}})
	req, err := http.NewRequest(http.MethodGet, "http://localhost/", nil)
	require.NoError(t, err)
	f.setHeaders(req, &Request{})
	require.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
}

func facadeFor(t *testing.T, srv *httptest.Server) *Facade {
	t.Helper()
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	f := NewFacade(&Options{Scheme: "http", Host: host, Port: port})
	f.opts.HTTPClient = srv.Client()
	return f
}

func TestExecuteSucceedsOnFirstTry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ClickHouse-Query-Id", "qid-1")
		w.Write([]byte("1\n"))
	}))
	defer srv.Close()

	f := facadeFor(t, srv)
	res, err := f.Execute(context.Background(), &Request{SQL: "select 1"})
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, "qid-1", res.QueryID)
}

func TestExecuteReturnsDatabaseErrorOnFirstAttemptFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Code: 62. DB::Exception: Syntax error"))
	}))
	defer srv.Close()

	f := facadeFor(t, srv)
	_, err := f.Execute(context.Background(), &Request{SQL: "select"})
	require.Error(t, err)
	dbErr, ok := err.(*nativecol.DatabaseError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, dbErr.StatusCode)
}

func TestLegacyExceptionTagDecodesTrailingCode(t *testing.T) {
	tag := ModernTag{}
	msg, code, ok := tag.Decode([]byte("1\n2\nCode: 241. DB::Exception: Memory limit exceeded"))
	require.True(t, ok)
	require.Equal(t, 241, code)
	require.Equal(t, "Memory limit exceeded", msg)
}

func TestModernExceptionTagDecodesDelimitedMessage(t *testing.T) {
	tag := ModernTag{Tag: "abcdefghij012345"}
	body := []byte("1\n__exception__abcdefghij012345\r\nTimeout exceeded\r\n16 abcdefghij012345__exception__\r\n")
	msg, _, ok := tag.Decode(body)
	require.True(t, ok)
	require.Equal(t, "Timeout exceeded", msg)
}

func TestParseExceptionCode(t *testing.T) {
	require.Equal(t, 241, ParseExceptionCode("241"))
	require.Equal(t, 0, ParseExceptionCode(""))
}
