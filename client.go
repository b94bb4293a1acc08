package nativecol

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/blackhowling/nativecol/block"
	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/streambridge"
	"github.com/blackhowling/nativecol/transport"
	"github.com/blackhowling/nativecol/types"
)

// Client is the core, connection-pool-owning facade: one per application
// component, safe for concurrent use from distinct goroutines as long as
// distinct session identifiers are in play (spec §5).
type Client struct {
	cfg      *ClientConfig
	facade   *transport.Facade
	logger   Logger
	sessions *sessionGuard
	catalog  *SettingsCatalog
	formats  *FormatOverrides
	registry *types.Registry
	info     ServerInfo

	probeOnce sync.Once
	probeErr  error
}

// NewClient builds a Client from opts, applying the teacher's functional-
// option pattern (config.go).
func NewClient(opts ...ClientOption) *Client {
	cfg := &ClientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg = cfg.withDefaults()

	logger := cfg.Logger
	if logger == nil {
		logger = defaultLogger
	}

	facade := transport.NewFacade(&transport.Options{
		Scheme:             cfg.Scheme,
		Host:               cfg.Host,
		Port:               cfg.Port,
		Database:           cfg.Database,
		Auth:               cfg.Auth,
		UserAgent:          cfg.UserAgent,
		Compress:           cfg.Compress,
		HTTPClient:         cfg.HTTPClient,
		QueryRetries:       cfg.QueryRetries,
		RetryBackoffUnit:   cfg.RetryBackoffUnit,
		ShowClickHouseErrs: cfg.ShowClickHouseErrs,
	})

	return &Client{
		cfg:      cfg,
		facade:   facade,
		logger:   logger,
		sessions: newSessionGuard(),
		catalog:  newSettingsCatalog(),
		formats:  NewFormatOverrides(cfg.DefaultFormats),
		registry: types.Default,
	}
}

// ensureProbed runs the one-time server probe on first use (spec §4.1's
// "Session state" / §C.1), populating c.info and c.catalog. A probe failure
// is logged and otherwise non-fatal: queries still run, just without
// server-timezone defaulting or settings validation against a real catalog.
func (c *Client) ensureProbed(ctx context.Context) {
	c.probeOnce.Do(func() {
		if err := c.runProbe(ctx); err != nil {
			c.probeErr = err
			getLoggerHelper(c.logger).Warn("server probe failed", "error", err)
		}
	})
}

// runProbe issues the version/timezone and settings-catalog probe queries
// (spec §C.1, mirroring clickhouse_connect's `_init_connection`) directly
// through the transport, bypassing Query so it can't recurse into itself.
func (c *Client) runProbe(ctx context.Context) error {
	infoCols, err := c.probeQuery(ctx, "SELECT version(), timezone()")
	if err != nil {
		return err
	}
	if len(infoCols) >= 2 && len(infoCols[0].Data) > 0 {
		if v, ok := infoCols[0].Data[0].(string); ok {
			c.info.Version = v
		}
		if tz, ok := infoCols[1].Data[0].(string); ok {
			c.info.Timezone = tz
		}
	}

	settingCols, err := c.probeQuery(ctx, "SELECT name, readonly FROM system.settings")
	if err != nil {
		return err
	}
	if len(settingCols) >= 2 {
		names, readonly := settingCols[0].Data, settingCols[1].Data
		entries := make([]SettingInfo, 0, len(names))
		for i := range names {
			name, _ := names[i].(string)
			ro, _ := readonly[i].(uint8)
			entries = append(entries, SettingInfo{Name: name, ReadOnly: ro != 0})
		}
		c.catalog.Load(entries)
	}
	return nil
}

// probeQuery runs sql to completion and returns its materialized columns,
// using the transport facade directly: no session guard, no settings
// resolution, no exception-trailer wiring — just enough to read a small
// system-table result during client initialization.
func (c *Client) probeQuery(ctx context.Context, sql string) ([]block.Column, error) {
	res, err := c.facade.Execute(ctx, &transport.Request{SQL: sql + " FORMAT Native"})
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := streambridge.Decompress(res.ContentEncode, res.Body)
	if err != nil {
		return nil, err
	}
	bridge := streambridge.NewQueryBridge(ctx, body, streambridge.DefaultChunkSize, streambridge.DefaultQueueCapacity)
	defer bridge.Close()

	src := bytesio.NewSource(bridge.ChunkFunc())
	reader := block.NewReader(src, c.registry)
	return block.Materialize(reader)
}

// exceptionTagTrailer adapts transport.ModernTag's tail-based Decode to the
// bytesio.ExceptionTrailer contract by reading back the Source's own
// trailing-bytes window (spec §6's mid-stream exception scenario).
type exceptionTagTrailer struct {
	tag transport.ModernTag
	src *bytesio.Source
}

func (e exceptionTagTrailer) Decode() (string, int, bool) {
	return e.tag.Decode(e.src.Tail())
}

// columnTransform builds the per-column post-decode hook for qc: this
// query's format overrides layered over the client's defaults, and the
// timezone policy resolved from qc, the client config, and the probed
// server timezone (spec §4.2, §4.5).
func (c *Client) columnTransform(qc *QueryContext) func(name string, desc *types.Descriptor, data types.Column) {
	formats := c.formats
	if len(qc.Formats) > 0 {
		formats = formats.WithQueryOverrides(qc.Formats)
	}
	policy := c.timezonePolicy(qc)

	return func(name string, desc *types.Descriptor, data types.Column) {
		applyTimezone(name, desc, data, policy)
		if f := formats.Resolve(name, desc.CanonicalName()); f != "" {
			applyFormatOverride(f, desc, data)
		}
	}
}

// timezonePolicy assembles qc's effective TimezonePolicy (spec §4.5):
// per-column overrides, then qc's per-query override, then each column's
// own declared zone, then the probed server zone when configured to apply.
func (c *Client) timezonePolicy(qc *QueryContext) TimezonePolicy {
	p := TimezonePolicy{
		ApplyServerTimezone: c.cfg.ApplyServerTimezone,
		Mode:                c.cfg.UTCTzAwareMode,
		PerColumn:           qc.ColumnTz,
	}
	if c.info.Timezone != "" {
		if tz, err := LoadTz(c.info.Timezone); err == nil {
			p.ServerTimezone = tz
		}
	}
	if qc.HasResultTz {
		p.PerQuery = qc.ResultTz
		p.HasPerQuery = true
	}
	return p
}

// QueryResult is a streaming query response: one RowIterator/ColumnIterator
// view over the native-format body, plus response metadata.
type QueryResult struct {
	Rows      *block.RowIterator
	Columns   *block.ColumnIterator
	reader    *block.Reader
	bridge    *streambridge.QueryBridge
	rawBody   io.ReadCloser
	QueryID   string
	Summary   string
	Timezone  string
}

// Close releases the underlying HTTP response and cancels the background
// chunk pump, per spec §5's cancellation contract. If the stream ended
// mid-block, Close surfaces a *bytesio.StreamFailureError in place of that
// read error when the transport's exception trailer identifies a
// server-reported exception (spec §6's mid-stream error scenario).
func (r *QueryResult) Close() error {
	err := r.reader.Close()
	if r.bridge != nil {
		r.bridge.Close()
	}
	if r.rawBody != nil {
		if cerr := r.rawBody.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Query executes qc's finalized SQL and returns a streaming result. The
// caller consumes exactly one of Rows/Columns, or calls Materialize on
// r.reader via MaterializeQuery.
func (c *Client) Query(ctx context.Context, qc *QueryContext) (*QueryResult, error) {
	c.ensureProbed(ctx)

	if err := c.sessions.acquire(qc.SessionID); err != nil {
		return nil, err
	}
	defer c.sessions.release(qc.SessionID)

	res, err := c.facade.Execute(ctx, &transport.Request{
		SQL:             qc.Finalize(),
		Settings:        qc.ResolvedSettings(c.logger, c.catalog, nil),
		Params:          nil,
		SessionID:       qc.SessionID,
		QueryID:         qc.QueryID,
		WaitEndOfQuery:  qc.WaitEndOfQuery,
		TypedBindParams: qc.BindParams(),
	})
	if err != nil {
		return nil, err
	}

	body, err := streambridge.Decompress(res.ContentEncode, res.Body)
	if err != nil {
		res.Body.Close()
		return nil, err
	}

	bridge := streambridge.NewQueryBridge(ctx, body, streambridge.DefaultChunkSize, streambridge.DefaultQueueCapacity)
	src := bytesio.NewSource(bridge.ChunkFunc())
	src.SetExceptionTrailer(exceptionTagTrailer{tag: transport.ModernTag{Tag: res.ExceptionTag}, src: src})
	reader := block.NewReader(src, c.registry)
	reader.Transform = c.columnTransform(qc)

	return &QueryResult{
		Rows:     block.NewRowIterator(reader),
		Columns:  block.NewColumnIterator(reader),
		reader:   reader,
		bridge:   bridge,
		rawBody:  res.Body,
		QueryID:  res.QueryID,
		Summary:  res.Summary,
		Timezone: res.Timezone,
	}, nil
}

// MaterializeQuery runs Query and concatenates every block into a single
// result set (spec §4.4's "materialized" view).
func (c *Client) MaterializeQuery(ctx context.Context, qc *QueryContext) ([]block.Column, *QueryResult, error) {
	r, err := c.Query(ctx, qc)
	if err != nil {
		return nil, nil, err
	}
	cols, err := block.Materialize(r.reader)
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	return cols, r, nil
}

// Insert streams cols through ic's chunker as a sequence of native-format
// blocks, using InsertBridge to bridge the synchronous serializer to the
// HTTP request body.
func (c *Client) Insert(ctx context.Context, ic *InsertContext, cols []types.Column) error {
	c.ensureProbed(ctx)
	blocks := ic.Split(cols)
	return c.insertBlocks(ctx, ic, func(emit func([]byte) bool) error {
		for _, b := range blocks {
			cont, err := writeBlockEmit(b, emit)
			if err != nil || !cont {
				return err
			}
		}
		return nil
	})
}

// InsertData accepts any shape spec §4.6 recognizes — row-oriented
// ([][]any), column-oriented ([]types.Column or a struct slice), or a
// generator (func() ([]types.Column, error), streamed block-by-block
// without materializing) — detects it via ic.DetectShape, and inserts it.
func (c *Client) InsertData(ctx context.Context, ic *InsertContext, data any) error {
	switch ic.DetectShape(data) {
	case ShapeGenerator:
		gen, ok := data.(func() ([]types.Column, error))
		if !ok {
			return &ProgrammingError{Message: "insert data detected as a generator but does not match func() ([]types.Column, error)"}
		}
		return c.insertGenerator(ctx, ic, gen)

	case ShapeColumns:
		if cols, ok := data.([]types.Column); ok {
			return c.Insert(ctx, ic, cols)
		}
		rv := reflect.ValueOf(data)
		if rv.Kind() == reflect.Slice && rv.Len() > 0 && rv.Index(0).Kind() == reflect.Struct {
			cols, err := columnsFromStructSlice(rv, ic.ColumnNames)
			if err != nil {
				return err
			}
			return c.Insert(ctx, ic, cols)
		}
		if rows, ok := data.([][]any); ok {
			cols := make([]types.Column, len(rows))
			for i, r := range rows {
				cols[i] = types.Column(r)
			}
			return c.Insert(ctx, ic, cols)
		}
		return &ProgrammingError{Message: "insert data detected as column-oriented but is not []types.Column or a struct slice"}

	default: // ShapeRows
		rows, ok := data.([][]any)
		if !ok {
			return &ProgrammingError{Message: "insert data detected as row-oriented but is not [][]any"}
		}
		return c.Insert(ctx, ic, RowsToColumns(rows, len(ic.ColumnNames)))
	}
}

// insertGenerator streams gen's successive column batches to the server one
// block at a time, never holding more than one batch in memory, stopping
// cleanly on io.EOF (spec §4.6's "iterable input" case).
func (c *Client) insertGenerator(ctx context.Context, ic *InsertContext, gen func() ([]types.Column, error)) error {
	c.ensureProbed(ctx)
	return c.insertBlocks(ctx, ic, func(emit func([]byte) bool) error {
		for {
			cols, err := gen()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			for _, b := range ic.Split(cols) {
				cont, werr := writeBlockEmit(b, emit)
				if werr != nil || !cont {
					return werr
				}
			}
		}
	})
}

// insertBlocks bridges produce — a function that emits successive
// native-format block byte chunks — to an HTTP request body via
// streambridge.InsertBridge and io.Pipe, the teacher's pattern for driving a
// synchronous writer against an asynchronous request.
func (c *Client) insertBlocks(ctx context.Context, ic *InsertContext, produce func(emit func([]byte) bool) error) error {
	bridge := streambridge.NewInsertBridge(ctx, streambridge.DefaultQueueCapacity, produce)

	pr, pw := io.Pipe()
	go func() {
		err := bridge.WriteTo(pw)
		pw.CloseWithError(err)
	}()

	sql := fmt.Sprintf("INSERT INTO %s (%s) FORMAT Native", ic.Table, joinNames(ic.ColumnNames))
	_, err := c.facade.Execute(ctx, &transport.Request{SQL: sql, Body: pr})
	return err
}

// writeBlockEmit serializes b to native-format bytes and hands them to emit,
// reporting whether the caller should continue with further blocks.
func writeBlockEmit(b *block.Block, emit func([]byte) bool) (cont bool, err error) {
	sink := bytesio.NewSink(4096)
	w := block.NewWriter(sink)
	if err := w.Write(b); err != nil {
		return false, err
	}
	return emit(sink.Bytes()), nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// QueryRow runs qc and returns its first block's first row, or ErrNotFound
// if the result set is empty. Mirrors the teacher's QueryRowMap ergonomics,
// adapted to a native-format column result instead of database/sql rows.
func (c *Client) QueryRow(ctx context.Context, qc *QueryContext) ([]block.Column, error) {
	r, err := c.Query(ctx, qc)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	b, err := r.reader.Next()
	if err != nil {
		if err == bytesio.ErrStreamComplete {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if b.NumRows == 0 {
		return nil, ErrNotFound
	}
	row := make([]block.Column, len(b.Columns))
	for i, col := range b.Columns {
		row[i] = block.Column{Name: col.Name, Desc: col.Desc, Data: col.Data[:1]}
	}
	return row, nil
}

// Ping issues a trivial query to verify server reachability.
func (c *Client) Ping(ctx context.Context) error {
	qc := &QueryContext{SQL: "SELECT 1"}
	r, err := c.Query(ctx, qc)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = r.reader.Next()
	if err != nil {
		return err
	}
	return nil
}
