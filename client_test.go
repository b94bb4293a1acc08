package nativecol

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/blackhowling/nativecol/block"
	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// testBlock serializes a single native-format block for a fake server's
// response body, matching the style of transport_test.go's handler-literal
// fixtures.
func testBlock(t *testing.T, names []string, typeNames []string, cols []types.Column) []byte {
	t.Helper()
	b := &block.Block{NumRows: len(cols[0])}
	for i, name := range names {
		desc, err := types.Default.Get(typeNames[i])
		require.NoError(t, err)
		b.Columns = append(b.Columns, block.Column{Name: name, Desc: desc, Data: cols[i]})
	}
	sink := bytesio.NewSink(256)
	w := block.NewWriter(sink)
	require.NoError(t, w.Write(b))
	return sink.Bytes()
}

// clientFor builds a Client whose transport points at srv, the in-package
// equivalent of transport_test.go's facadeFor helper.
func clientFor(t *testing.T, srv *httptest.Server, opts ...ClientOption) *Client {
	t.Helper()
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	base := []ClientOption{
		WithHost(host, port),
		func(c *ClientConfig) { c.HTTPClient = srv.Client() },
	}
	return NewClient(append(base, opts...)...)
}

func TestNewClientAndPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(testBlock(t, []string{"1"}, []string{"UInt8"}, []types.Column{{uint8(1)}}))
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	require.NoError(t, c.Ping(context.Background()))
}

func TestQueryMaterializesColumns(t *testing.T) {
	var probes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sql := string(body)
		switch {
		case strings.Contains(sql, "version()"):
			probes++
			w.Write(testBlock(t, []string{"version()", "timezone()"}, []string{"String", "String"},
				[]types.Column{{"24.3.1"}, {"UTC"}}))
		case strings.Contains(sql, "system.settings"):
			probes++
			w.Write(testBlock(t, []string{"name", "readonly"}, []string{"String", "UInt8"},
				[]types.Column{{"max_threads"}, {uint8(0)}}))
		default:
			w.Write(testBlock(t, []string{"id", "name"}, []string{"UInt64", "String"},
				[]types.Column{{uint64(1), uint64(2)}, {"alice", "bob"}}))
		}
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	cols, res, err := c.MaterializeQuery(context.Background(), &QueryContext{SQL: "SELECT id, name FROM users"})
	require.NoError(t, err)
	defer res.Close()
	require.Len(t, cols, 2)
	require.Equal(t, "id", cols[0].Name)
	require.Equal(t, []any{uint64(1), uint64(2)}, []any(cols[0].Data))
	require.Equal(t, []any{"alice", "bob"}, []any(cols[1].Data))
	// the probe runs exactly once, on the first query, and is not repeated.
	require.Equal(t, 2, probes)

	_, res2, err := c.MaterializeQuery(context.Background(), &QueryContext{SQL: "SELECT id, name FROM users"})
	require.NoError(t, err)
	res2.Close()
	require.Equal(t, 2, probes, "probe must not re-run on a second query")
}

func TestQueryRowReturnsFirstRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(testBlock(t, []string{"n"}, []string{"UInt64"}, []types.Column{{uint64(7)}}))
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	cols, err := c.QueryRow(context.Background(), &QueryContext{SQL: "SELECT n FROM one"})
	require.NoError(t, err)
	require.Equal(t, uint64(7), cols[0].Data[0])
}

func TestQueryRowNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// zero-row, zero-column empty native block.
		w.Write([]byte{0, 0})
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	_, err := c.QueryRow(context.Background(), &QueryContext{SQL: "SELECT 1 WHERE 0"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFormatOverrideRendersUUIDAsString(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(testBlock(t, []string{"id"}, []string{"UUID"}, []types.Column{{id}}))
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	cols, err := c.QueryRow(context.Background(), &QueryContext{
		SQL:     "SELECT id FROM t",
		Formats: []ColumnFormat{{NameMatch: "id", Format: "string"}},
	})
	require.NoError(t, err)
	require.Equal(t, id.String(), cols[0].Data[0])
}

func TestTimezonePolicyAppliesResultTz(t *testing.T) {
	when := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(testBlock(t, []string{"ts"}, []string{"DateTime"}, []types.Column{{when}}))
	}))
	defer srv.Close()

	ny, err := LoadTz("America/New_York")
	require.NoError(t, err)

	c := clientFor(t, srv)
	cols, err := c.QueryRow(context.Background(), &QueryContext{
		SQL:         "SELECT ts FROM t",
		ResultTz:    ny,
		HasResultTz: true,
	})
	require.NoError(t, err)
	got, ok := cols[0].Data[0].(time.Time)
	require.True(t, ok)
	require.Equal(t, ny.Location().String(), got.Location().String())
	require.True(t, when.Equal(got))
}

func TestInsertSendsNativeBody(t *testing.T) {
	var gotSQL string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSQL = r.URL.Query().Get("query")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	ic := NewInsertContext("events", []string{"id", "name"}, []*types.Descriptor{
		descFor(t, "UInt64"), descFor(t, "String"),
	})
	err := c.Insert(context.Background(), ic, []types.Column{
		{uint64(1), uint64(2)},
		{"a", "b"},
	})
	require.NoError(t, err)
	require.Contains(t, gotSQL, "INSERT INTO events")
	require.NotEmpty(t, gotBody)
}

func TestInsertDataAcceptsRowsAndStructSlice(t *testing.T) {
	var bodies [][]byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if r.URL.Query().Get("query") != "" {
			bodies = append(bodies, b)
		}
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	ic := NewInsertContext("events", []string{"id", "name"}, []*types.Descriptor{
		descFor(t, "UInt64"), descFor(t, "String"),
	})

	rows := [][]any{{uint64(1), "a"}, {uint64(2), "b"}}
	require.NoError(t, c.InsertData(context.Background(), ic, rows))

	type event struct {
		ID   uint64
		Name string
	}
	structs := []event{{ID: 3, Name: "c"}}
	require.NoError(t, c.InsertData(context.Background(), ic, structs))

	require.Len(t, bodies, 2)
	for _, b := range bodies {
		require.NotEmpty(t, b)
	}
}

func TestInsertDataGeneratorStreamsBlocks(t *testing.T) {
	var insertCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "" {
			insertCalls++
		}
		io.Copy(io.Discard, r.Body)
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	ic := NewInsertContext("events", []string{"id"}, []*types.Descriptor{descFor(t, "UInt64")})

	batches := []types.Column{{uint64(1)}, {uint64(2)}}
	i := 0
	gen := func() ([]types.Column, error) {
		if i >= len(batches) {
			return nil, io.EOF
		}
		b := []types.Column{{batches[i][0]}}
		i++
		return b, nil
	}
	require.NoError(t, c.InsertData(context.Background(), ic, gen))
	// the whole generator streams through a single INSERT request, one HTTP
	// round trip regardless of how many blocks the generator yields.
	require.Equal(t, 1, insertCalls)
}

func TestMidStreamExceptionSurfacesStreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ClickHouse-Exception-Tag", "abcdefghij012345")
		good := testBlock(t, []string{"n"}, []string{"UInt64"}, []types.Column{{uint64(1)}})
		w.Write(good)
		tail := "__exception__abcdefghij012345\r\nMemory limit exceeded\r\n22 abcdefghij012345__exception__\r\n"
		w.Write([]byte(tail))
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	r, err := c.Query(context.Background(), &QueryContext{SQL: "SELECT n FROM big"})
	require.NoError(t, err)

	_, err = r.reader.Next()
	require.NoError(t, err)

	_, err = r.reader.Next()
	require.Error(t, err)

	closeErr := r.Close()
	require.Error(t, closeErr)
	sfe, ok := closeErr.(*bytesio.StreamFailureError)
	require.True(t, ok)
	require.Contains(t, sfe.Error(), "Memory limit exceeded")
}

func TestDatabaseErrorCarriesExceptionCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ClickHouse-Exception-Code", "241")
		w.WriteHeader(http.StatusBadRequest) // non-retryable, fails on first attempt
		w.Write([]byte("Code: 241. DB::Exception: Memory limit exceeded"))
	}))
	defer srv.Close()

	c := clientFor(t, srv)
	_, err := c.Query(context.Background(), &QueryContext{SQL: "SELECT 1"})
	require.Error(t, err)
	dbErr, ok := err.(*DatabaseError)
	require.True(t, ok)
	require.Equal(t, 241, dbErr.Code)
}

func descFor(t *testing.T, name string) *types.Descriptor {
	t.Helper()
	d, err := types.Default.Get(name)
	require.NoError(t, err)
	return d
}
