package nativecol

import (
	"time"

	"github.com/blackhowling/nativecol/types"
)

// Tz abstracts a timezone so the codec layer never touches time.Location
// directly — grounded on spec's REDESIGN FLAGS note replacing Python's
// picklable tzinfo singletons with an explicit abstraction of name/offset/
// UTC-equivalence. Wraps *time.Location; no third-party tzdata library is in
// the example pack's dependency surface, so stdlib's IANA database is the
// only available source of truth here.
type Tz struct {
	loc *time.Location
}

// UTC is the zero-value-safe UTC timezone.
var UTC = Tz{loc: time.UTC}

// LoadTz resolves an IANA zone name (e.g. "America/New_York") into a Tz.
func LoadTz(name string) (Tz, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Tz{}, err
	}
	return Tz{loc: loc}, nil
}

func (t Tz) Name() string {
	if t.loc == nil {
		return "UTC"
	}
	return t.loc.String()
}

func (t Tz) Location() *time.Location {
	if t.loc == nil {
		return time.UTC
	}
	return t.loc
}

func (t Tz) Offset(at time.Time) int {
	_, offset := at.In(t.Location()).Zone()
	return offset
}

// utcEquivalentNames lists the zone spellings spec §4.5 treats as
// interchangeable with UTC when utc_tz_aware normalization is in effect.
var utcEquivalentNames = map[string]bool{
	"UTC": true, "Etc/UTC": true, "Etc/UCT": true, "GMT": true,
	"Etc/GMT": true, "Universal": true, "Zulu": true, "UCT": true,
}

func (t Tz) IsUTCEquivalent() bool {
	return utcEquivalentNames[t.Name()]
}

// TzAwareMode selects how utc_tz_aware normalizes returned datetimes.
type TzAwareMode int

const (
	// TzAwareNaiveUTC normalizes UTC-equivalent zones to naive timestamps.
	TzAwareNaiveUTC TzAwareMode = iota
	// TzAwareKeepUTC keeps UTC-equivalent zones attached.
	TzAwareKeepUTC
	// TzAwareSchemaOnly keeps only schema-declared zones attached; bare
	// datetimes (no declared zone) stay naive regardless of server zone.
	TzAwareSchemaOnly
)

// TimezonePolicy resolves the effective timezone for one column per spec
// §4.5: per-column override > per-query override > column's declared TZ >
// server's declared TZ (when ApplyServerTimezone) > naive.
type TimezonePolicy struct {
	ApplyServerTimezone bool
	ServerTimezone      Tz
	Mode                TzAwareMode
	PerQuery            Tz
	HasPerQuery         bool
	PerColumn           map[string]Tz
}

// Resolve returns the Tz to attach to colName's values, and whether the
// result should be naive (no Tz attached) per Mode's rules.
func (p TimezonePolicy) Resolve(colName string, declared Tz, hasDeclared bool) (Tz, bool) {
	if tz, ok := p.PerColumn[colName]; ok {
		return applyMode(tz, p.Mode, true)
	}
	if p.HasPerQuery {
		return applyMode(p.PerQuery, p.Mode, true)
	}
	if hasDeclared {
		return applyMode(declared, p.Mode, true)
	}
	if p.ApplyServerTimezone {
		return applyMode(p.ServerTimezone, p.Mode, false)
	}
	return Tz{}, true
}

// applyTimezone adjusts a decoded DateTime/DateTime64 column's values to
// policy's resolved zone in place (spec §4.5); every other kind is left
// untouched. A "naive" resolution leaves the already-UTC-instant
// time.Time values as the codec produced them.
func applyTimezone(colName string, desc *types.Descriptor, data types.Column, policy TimezonePolicy) {
	if desc.Kind != types.KindDateTime && desc.Kind != types.KindDateTime64 {
		return
	}
	var declared Tz
	hasDeclared := false
	if desc.TZ != "" {
		if tz, err := LoadTz(desc.TZ); err == nil {
			declared, hasDeclared = tz, true
		}
	}
	tz, naive := policy.Resolve(colName, declared, hasDeclared)
	if naive {
		return
	}
	loc := tz.Location()
	for i, v := range data {
		if t, ok := v.(time.Time); ok {
			data[i] = t.In(loc)
		}
	}
}

// applyMode applies utc_tz_aware normalization. fromSchema distinguishes a
// schema/column/query-declared zone from one inherited from the server,
// which TzAwareSchemaOnly treats as naive.
func applyMode(tz Tz, mode TzAwareMode, fromSchema bool) (Tz, bool) {
	switch mode {
	case TzAwareNaiveUTC:
		if tz.IsUTCEquivalent() {
			return Tz{}, true
		}
		return tz, false
	case TzAwareSchemaOnly:
		if !fromSchema {
			return Tz{}, true
		}
		return tz, false
	default: // TzAwareKeepUTC
		return tz, false
	}
}
