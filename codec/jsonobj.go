package codec

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// jsonSerializeVersionLegacy is the legacy wire form: an 8-byte version tag
// of 0 in the column prefix, then each row's whole JSON value written
// through the String encoder.
const jsonSerializeVersionLegacy = 0

// jsonSerializeVersionCurrent is the typed-path/dynamic-path/shared-data
// layout (spec §4.2).
const jsonSerializeVersionCurrent = 2

// jsonCodec handles the JSON object type. Reads support both the legacy
// (version 0) and current (version 2) wire layouts, selected by the
// version tag read from the column prefix; writes always use the legacy
// layout, serializing the whole row value as a JSON string through the
// String encoder (spec §4.2: "when serialization_version is 0 ... writing
// the entire JSON value through the String encoder").
type jsonCodec struct{}

type jsonTypedPath struct {
	path string
	desc *types.Descriptor
}

func init() {
	registerKind(types.KindJSON, jsonCodec{})
	types.RegisterBuilder("JSON", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		d := &types.Descriptor{Kind: types.KindJSON, JSON: td.JSON}
		return d, nil
	})
}

// pendingJSON carries prefix-resolved structure (typed-path descriptors
// and per-dynamic-path synthetic Variant descriptors) through to the
// matching ReadData call, under the pendingLowCard/pendingDynamic
// single-request-at-a-time convention.
type jsonState struct {
	version  uint64
	typed    []jsonTypedPath
	dynPaths []string
	dynDescs []*types.Descriptor
}

var pendingJSON = make(map[*types.Descriptor]*jsonState)

func (jsonCodec) ReadPrefix(d *types.Descriptor, src *bytesio.Source) error {
	version, err := src.ReadUint64()
	if err != nil {
		return err
	}
	st := &jsonState{version: version}
	if version == jsonSerializeVersionLegacy {
		pendingJSON[d] = st
		return nil
	}

	dynCount, err := src.ReadLEB128()
	if err != nil {
		return err
	}
	st.dynPaths = make([]string, dynCount)
	for i := range st.dynPaths {
		p, err := src.ReadLEB128Str()
		if err != nil {
			return err
		}
		st.dynPaths[i] = p
	}

	if d.JSON != nil {
		reg := types.Default
		for _, tp := range d.JSON.TypedPaths {
			desc, err := reg.BuildFromTypeDef(tp.Type)
			if err != nil {
				return err
			}
			if err := ReadPrefix(desc, src); err != nil {
				return err
			}
			st.typed = append(st.typed, jsonTypedPath{path: tp.Path, desc: desc})
		}
	}

	for range st.dynPaths {
		dd := &types.Descriptor{Kind: types.KindDynamic}
		if err := dynamicCodec{}.ReadPrefix(dd, src); err != nil {
			return err
		}
		st.dynDescs = append(st.dynDescs, dd)
	}

	pendingJSON[d] = st
	return nil
}

func (jsonCodec) WritePrefix(d *types.Descriptor, sink *bytesio.Sink) error {
	sink.WriteUint64(jsonSerializeVersionLegacy)
	return nil
}

func (jsonCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	st, ok := pendingJSON[d]
	if !ok {
		return nil, &bytesio.StreamFailureError{Message: "JSON data read before prefix"}
	}
	delete(pendingJSON, d)

	if st.version == jsonSerializeVersionLegacy {
		raw, err := stringCodec{}.ReadData(nil, src, n)
		if err != nil {
			return nil, err
		}
		out := make(types.Column, n)
		for i, v := range raw {
			var m map[string]any
			_ = json.Unmarshal([]byte(v.(string)), &m)
			out[i] = m
		}
		return out, nil
	}

	typedCols := make([]types.Column, len(st.typed))
	for i, tp := range st.typed {
		col, err := ReadData(tp.desc, src, n)
		if err != nil {
			return nil, err
		}
		typedCols[i] = col
	}
	dynCols := make([]types.Column, len(st.dynDescs))
	for i, dd := range st.dynDescs {
		col, err := dynamicCodec{}.ReadData(dd, src, n)
		if err != nil {
			return nil, err
		}
		dynCols[i] = col
	}
	// Shared-data auxiliary column, simplified to a per-row JSON-text
	// string of any keys not covered by a typed or dynamic path.
	sharedCol, err := stringCodec{}.ReadData(nil, src, n)
	if err != nil {
		return nil, err
	}

	out := make(types.Column, n)
	for i := 0; i < n; i++ {
		row := map[string]any{}
		for ti, tp := range st.typed {
			insertJSONPath(row, tp.path, typedCols[ti][i], jsonEscapeDots(d))
		}
		for pi, p := range st.dynPaths {
			insertJSONPath(row, p, dynCols[pi][i], jsonEscapeDots(d))
		}
		if sharedCol[i].(string) != "" {
			var extra map[string]any
			if json.Unmarshal([]byte(sharedCol[i].(string)), &extra) == nil {
				for k, v := range extra {
					row[k] = v
				}
			}
		}
		out[i] = row
	}
	return out, nil
}

func (jsonCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	strs := make(types.Column, len(col))
	for i, v := range col {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		strs[i] = string(b)
	}
	return stringCodec{}.WriteData(nil, sink, strs)
}

// jsonEscapeDots reports json_type_escape_dots_in_keys: when set, a '.' in
// a path component is a literal key character rather than a nesting
// separator. The root package's settings layer has not wired a per-column
// override through yet, so this defaults to nesting (false), matching the
// server's own default.
func jsonEscapeDots(d *types.Descriptor) bool { return false }

// insertJSONPath walks a dot-separated path (URL-percent-unescaping any
// component containing '%') and inserts v as a leaf, creating intermediate
// maps as needed (spec §4.2).
func insertJSONPath(root map[string]any, path string, v any, escapeDots bool) {
	if escapeDots {
		root[path] = v
		return
	}
	parts := strings.Split(path, ".")
	cur := root
	for i, part := range parts {
		if strings.ContainsRune(part, '%') {
			if unescaped, err := url.QueryUnescape(part); err == nil {
				part = unescaped
			}
		}
		if i == len(parts)-1 {
			cur[part] = v
			return
		}
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}
		cur = next
	}
}
