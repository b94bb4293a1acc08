package nativecol

import (
	"fmt"
	"net"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FormatLiteral renders v as a SQL literal per spec §4.5's scalar-formatting
// rules. It is used by SQL finalization to substitute `%(name)s`/`%s`
// placeholders.
func FormatLiteral(v any, tz Tz) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteString(t)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case time.Time:
		return formatTimeLiteral(t, tz)
	case net.IP:
		return "'" + t.String() + "'"
	case uuid.UUID:
		return "'" + t.String() + "'"
	case fmt.Stringer:
		return quoteString(t.String())
	default:
		return formatReflective(v, tz)
	}
}

func quoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// dateOnly reports whether t carries no time-of-day component, used to pick
// between the `'YYYY-MM-DD'` and full datetime literal forms.
func dateOnly(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

func formatTimeLiteral(t time.Time, tz Tz) string {
	if dateOnly(t) {
		return "'" + t.Format("2006-01-02") + "'"
	}
	loc := tz.Location()
	lt := t.In(loc)
	layout := "2006-01-02 15:04:05"
	if lt.Nanosecond() != 0 {
		layout += ".000000"
	}
	return "'" + lt.Format(layout) + "'"
}

// formatReflective handles slices, arrays, and maps generically: lists →
// `[...]`, tuples (fixed-size arrays) → `(...)`, dicts → `{k:v,...}`, and
// unwraps enum-like values via their underlying basic kind.
func formatReflective(v any, tz Tz) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = FormatLiteral(rv.Index(i).Interface(), tz)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = FormatLiteral(rv.Index(i).Interface(), tz)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case reflect.Map:
		keys := rv.MapKeys()
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s:%s", FormatLiteral(k.Interface(), tz), FormatLiteral(rv.MapIndex(k).Interface(), tz)))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.String:
		return quoteString(rv.String())
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FinalizeSQL substitutes `%(name)s`/`%s` placeholders in sql with literal-
// formatted values from named and positional, leaving `{name:Type}`-style
// typed bindings untouched (those are sent as param_<name> query params
// instead, per spec §4.5). positional is consumed left-to-right for each
// bare `%s` encountered.
func FinalizeSQL(sql string, named map[string]any, positional []any, tz Tz) string {
	if len(named) == 0 && len(positional) == 0 {
		return sql
	}
	var b strings.Builder
	i, posIdx := 0, 0
	for i < len(sql) {
		if sql[i] == '%' && i+1 < len(sql) {
			if sql[i+1] == '(' {
				end := strings.IndexByte(sql[i+2:], ')')
				if end >= 0 && i+2+end+1 < len(sql) && sql[i+2+end+1] == 's' {
					name := sql[i+2 : i+2+end]
					if v, ok := named[name]; ok {
						b.WriteString(FormatLiteral(v, tz))
						i = i + 2 + end + 2
						continue
					}
				}
			} else if sql[i+1] == 's' && posIdx < len(positional) {
				b.WriteString(FormatLiteral(positional[posIdx], tz))
				posIdx++
				i += 2
				continue
			}
		}
		b.WriteByte(sql[i])
		i++
	}
	return b.String()
}
