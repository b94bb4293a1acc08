package transport

import (
	"regexp"
	"strconv"
	"strings"
)

// legacyExceptionPrefix marks a truncated response body's trailing
// server-reported exception under the pre-25.11 protocol (spec §6:
// "Legacy: the server appends `Code: NNN. DB::Exception: ...` text at the
// end of a truncated body").
const legacyExceptionPrefix = "Code: "

var legacyCodeRe = regexp.MustCompile(`^Code: (\d+)\. DB::Exception: (.*)$`)

// ModernTag is the exception-tag trailer format spec §6 describes for
// servers ≥ 25.11: a 16-lowercase-alphanumeric tag identifying this
// response, with mid-stream aborts wrapping the message in a
// `__exception__<T>\r\n<message>\r\n<len> <T>__exception__\r\n` delimiter.
type ModernTag struct {
	Tag string
}

// Decode implements bytesio.ExceptionTrailer. tail is whatever bytes the
// transport buffered after the chunk stream reported EOF with data still
// pending.
func (m ModernTag) Decode(tail []byte) (message string, code int, ok bool) {
	if m.Tag == "" {
		return legacyDecode(tail)
	}
	s := string(tail)
	open := "__exception__" + m.Tag + "\r\n"
	start := strings.Index(s, open)
	if start < 0 {
		return legacyDecode(tail)
	}
	rest := s[start+len(open):]
	end := strings.Index(rest, "\r\n")
	if end < 0 {
		return strings.TrimSpace(rest), 0, true
	}
	return rest[:end], 0, true
}

func legacyDecode(tail []byte) (string, int, bool) {
	s := strings.TrimSpace(string(tail))
	idx := strings.LastIndex(s, legacyExceptionPrefix)
	if idx < 0 {
		return "", 0, false
	}
	m := legacyCodeRe.FindStringSubmatch(s[idx:])
	if m == nil {
		return "", 0, false
	}
	code, _ := strconv.Atoi(m[1])
	return m[2], code, true
}
