package nativecol

import (
	"fmt"
	"strconv"
	"sync"
)

// SettingInfo describes one entry in the server-reported settings catalog
// (the result of `SELECT name, readonly FROM system.settings`).
type SettingInfo struct {
	Name     string
	ReadOnly bool
}

// transportSettings are passed through verbatim regardless of the catalog —
// they configure the HTTP exchange itself, not a server-side SQL setting.
var transportSettings = map[string]bool{
	"database":          true,
	"session_id":        true,
	"query_id":          true,
	"wait_end_of_query": true,
	"compress":          true,
}

// SettingsCatalog is the process-wide, read-mostly snapshot of the server's
// settings (spec §5 "Shared resources"). Safe for concurrent reads; Load
// replaces the snapshot wholesale.
type SettingsCatalog struct {
	mu    sync.RWMutex
	known map[string]SettingInfo
}

func newSettingsCatalog() *SettingsCatalog {
	return &SettingsCatalog{known: make(map[string]SettingInfo)}
}

// Load replaces the catalog's contents, as happens once at client
// initialization (and on reconnect).
func (c *SettingsCatalog) Load(entries []SettingInfo) {
	m := make(map[string]SettingInfo, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	c.mu.Lock()
	c.known = m
	c.mu.Unlock()
}

func (c *SettingsCatalog) lookup(name string) (SettingInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.known[name]
	return info, ok
}

// stringifySetting renders a raw Go value as the string the HTTP query
// parameter expects: bools become "1"/"0", everything else via fmt-free
// conversions to avoid allocating through fmt.Sprintf for the common cases.
func stringifySetting(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// ResolveSettings implements spec §4.5's "Settings validation": known
// transport settings pass through verbatim; everything else is checked
// against the catalog — unknown or read-only names are dropped (and logged),
// known settings are stringified. alreadySet holds the client-level settings
// already carried on every request, so an unchanged per-request override is
// elided to avoid resending it.
func (c *SettingsCatalog) ResolveSettings(logger Logger, requested map[string]any, alreadySet map[string]string) map[string]string {
	logger = getLoggerHelper(logger)
	out := make(map[string]string, len(requested))
	for name, v := range requested {
		if transportSettings[name] {
			out[name] = stringifySetting(v)
			continue
		}
		info, known := c.lookup(name)
		if !known {
			logger.Warn("dropping unknown setting", "name", name)
			continue
		}
		if info.ReadOnly {
			logger.Warn("dropping read-only setting", "name", name)
			continue
		}
		sv := stringifySetting(v)
		if already, ok := alreadySet[name]; ok && already == sv {
			continue
		}
		out[name] = sv
	}
	return out
}
