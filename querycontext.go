package nativecol

import (
	"regexp"
	"strconv"
	"strings"
)

// QueryContext bundles a single query's mutable arguments (spec §4.1):
// final SQL text, parameter map, validated settings, format overrides,
// timezone policy, and response-time state. Mutable only before execution.
type QueryContext struct {
	SQL             string
	NamedParams     map[string]any
	PositionalArgs  []any
	TypedBindParams map[string]string // {name: "Type"} -> sent as param_<name>
	Settings        map[string]any
	SessionID       string
	QueryID         string
	WaitEndOfQuery  bool
	QueryLimit      int // appended as LIMIT N when > 0 and not already present
	Format          string
	Tz              Tz
	ColumnRename    func(name string) string

	// Formats carries this query's format overrides (spec §4.2), tried
	// before the client's library-wide defaults.
	Formats []ColumnFormat
	// ResultTz/HasResultTz is the per-query timezone override spec §4.5
	// applies to every returned DateTime/DateTime64 column, ahead of each
	// column's own declared zone. Distinct from Tz, which governs how
	// outgoing literal parameters are rendered, not how results are read.
	ResultTz    Tz
	HasResultTz bool
	// ColumnTz overrides ResultTz for specific result columns by name.
	ColumnTz map[string]Tz

	// not set by the codec or the block reader; holds whatever the caller stores.
	CurrentColumn string
}

var selectRe = regexp.MustCompile(`(?i)^\s*select\b`)
var limitRe = regexp.MustCompile(`(?i)\blimit\b`)

// Finalize produces the literal SQL text to send on the wire: placeholder
// substitution, then a trailing LIMIT and FORMAT clause per spec §4.5.
func (q *QueryContext) Finalize() string {
	sql := FinalizeSQL(q.SQL, q.NamedParams, q.PositionalArgs, q.Tz)

	if q.QueryLimit > 0 && selectRe.MatchString(sql) && !limitRe.MatchString(sql) {
		sql = strings.TrimRight(sql, " \t\n;") + " LIMIT " + strconv.Itoa(q.QueryLimit)
	}

	format := q.Format
	if format == "" {
		format = "Native"
	}
	sql = strings.TrimRight(sql, " \t\n;") + " FORMAT " + format
	return sql
}

// BindParams returns the param_<name> query-string values: a copy of
// TypedBindParams. NamedParams are not included; Finalize substitutes them
// into the SQL text.
func (q *QueryContext) BindParams() map[string]string {
	out := make(map[string]string, len(q.TypedBindParams))
	for k, v := range q.TypedBindParams {
		out[k] = v
	}
	return out
}

// ResolvedSettings stringifies and validates q.Settings against catalog,
// eliding anything already carried by alreadySet.
func (q *QueryContext) ResolvedSettings(logger Logger, catalog *SettingsCatalog, alreadySet map[string]string) map[string]string {
	return catalog.ResolveSettings(logger, q.Settings, alreadySet)
}
