package codec

import (
	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// tupleCodec handles Tuple(T1,...,Tn): each sub-column is written/read in
// full, one field at a time (spec §4.2), then zipped into per-row tuples.
// A named tuple (FieldNames populated) reads out as map[string]any; an
// unnamed (positional) tuple reads out as []any.
type tupleCodec struct{}

func init() {
	registerKind(types.KindTuple, tupleCodec{})
	types.RegisterBuilder("Tuple", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		var fields []*types.Descriptor
		var names []string
		for _, v := range td.Values {
			fd, err := reg.BuildFromTypeDef(v.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, fd)
		}
		for _, kv := range td.Keys {
			fd, err := reg.BuildFromTypeDef(kv.Value.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, fd)
			names = append(names, kv.Key)
		}
		return &types.Descriptor{Kind: types.KindTuple, Fields: fields, FieldNames: names}, nil
	})

	registerKind(types.KindMap, mapCodec{})
	types.RegisterBuilder("Map", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		if len(td.Values) != 2 {
			return nil, &types.ParseError{Name: td.Name, Reason: "Map requires (key, value) type arguments"}
		}
		key, err := reg.BuildFromTypeDef(td.Values[0].Type)
		if err != nil {
			return nil, err
		}
		val, err := reg.BuildFromTypeDef(td.Values[1].Type)
		if err != nil {
			return nil, err
		}
		tuple := &types.Descriptor{Kind: types.KindTuple, Fields: []*types.Descriptor{key, val}}
		return &types.Descriptor{Kind: types.KindMap, Elem: tuple, Fields: []*types.Descriptor{key, val}}, nil
	})

	registerKind(types.KindNested, nestedCodec{})
	types.RegisterBuilder("Nested", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		var fields []*types.Descriptor
		var names []string
		for _, kv := range td.Keys {
			fd, err := reg.BuildFromTypeDef(kv.Value.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, fd)
			names = append(names, kv.Key)
		}
		tuple := &types.Descriptor{Kind: types.KindTuple, Fields: fields, FieldNames: names}
		return &types.Descriptor{Kind: types.KindNested, Elem: tuple, Fields: fields, FieldNames: names}, nil
	})

	// Point = Tuple(Float64, Float64); Ring/Polygon/MultiPolygon are pure
	// container compositions over it (spec §4.2).
	registerKind(types.KindPoint, pointAliasCodec{inner: tupleCodec{}})
	types.RegisterBuilder("Point", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		f64, _ := reg.Get("Float64")
		return &types.Descriptor{Kind: types.KindPoint, Fields: []*types.Descriptor{f64, f64}}, nil
	})
	registerKind(types.KindRing, ringAliasCodec{})
	types.RegisterBuilder("Ring", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		point, err := reg.Get("Point")
		if err != nil {
			return nil, err
		}
		return &types.Descriptor{Kind: types.KindRing, Elem: point}, nil
	})
	registerKind(types.KindPolygon, polygonAliasCodec{})
	types.RegisterBuilder("Polygon", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		ring, err := reg.Get("Ring")
		if err != nil {
			return nil, err
		}
		return &types.Descriptor{Kind: types.KindPolygon, Elem: ring}, nil
	})
	registerKind(types.KindMultiPolygon, multiPolygonAliasCodec{})
	types.RegisterBuilder("MultiPolygon", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		polygon, err := reg.Get("Polygon")
		if err != nil {
			return nil, err
		}
		return &types.Descriptor{Kind: types.KindMultiPolygon, Elem: polygon}, nil
	})
}

func (tupleCodec) ReadPrefix(d *types.Descriptor, src *bytesio.Source) error {
	for _, f := range d.Fields {
		if err := ReadPrefix(f, src); err != nil {
			return err
		}
	}
	return nil
}

func (tupleCodec) WritePrefix(d *types.Descriptor, sink *bytesio.Sink) error {
	for _, f := range d.Fields {
		if err := WritePrefix(f, sink); err != nil {
			return err
		}
	}
	return nil
}

func (tupleCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	cols := make([]types.Column, len(d.Fields))
	for i, f := range d.Fields {
		col, err := ReadData(f, src, n)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return columnsToRows(d, cols, n), nil
}

func (tupleCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	cols := rowsToColumns(d, col)
	for i, f := range d.Fields {
		if err := WriteData(f, sink, cols[i]); err != nil {
			return err
		}
	}
	return nil
}

func columnsToRows(d *types.Descriptor, cols []types.Column, n int) types.Column {
	out := make(types.Column, n)
	named := len(d.FieldNames) == len(d.Fields) && len(d.FieldNames) > 0
	for i := 0; i < n; i++ {
		if named {
			row := make(map[string]any, len(cols))
			for fi, name := range d.FieldNames {
				row[name] = cols[fi][i]
			}
			out[i] = row
		} else {
			row := make([]any, len(cols))
			for fi := range cols {
				row[fi] = cols[fi][i]
			}
			out[i] = row
		}
	}
	return out
}

func rowsToColumns(d *types.Descriptor, rows types.Column) []types.Column {
	cols := make([]types.Column, len(d.Fields))
	for fi := range cols {
		cols[fi] = make(types.Column, len(rows))
	}
	named := len(d.FieldNames) == len(d.Fields) && len(d.FieldNames) > 0
	for ri, v := range rows {
		if named {
			m := v.(map[string]any)
			for fi, name := range d.FieldNames {
				cols[fi][ri] = m[name]
			}
		} else {
			r := v.([]any)
			for fi := range cols {
				cols[fi][ri] = r[fi]
			}
		}
	}
	return cols
}

// mapCodec handles Map(K,V) as Array(Tuple(K,V)): offsets, then keys
// column, then values column; reads assemble a map[any]any per row (spec
// §4.2).
type mapCodec struct{}

func (mapCodec) ReadPrefix(d *types.Descriptor, src *bytesio.Source) error {
	return ReadPrefix(d.Elem, src)
}

func (mapCodec) WritePrefix(d *types.Descriptor, sink *bytesio.Sink) error {
	return WritePrefix(d.Elem, sink)
}

func (mapCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	offRaw, err := src.ReadArray(bytesio.Uint64, n)
	if err != nil {
		return nil, err
	}
	offsets := offRaw.([]uint64)
	total := 0
	if n > 0 {
		total = int(offsets[n-1])
	}
	keys, err := ReadData(d.Fields[0], src, total)
	if err != nil {
		return nil, err
	}
	vals, err := ReadData(d.Fields[1], src, total)
	if err != nil {
		return nil, err
	}
	out := make(types.Column, n)
	start := 0
	for i := 0; i < n; i++ {
		end := int(offsets[i])
		m := make(map[any]any, end-start)
		for j := start; j < end; j++ {
			m[keys[j]] = vals[j]
		}
		out[i] = m
		start = end
	}
	return out, nil
}

func (mapCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	offsets := make([]uint64, len(col))
	var keys, vals types.Column
	var cum uint64
	for i, v := range col {
		m := v.(map[any]any)
		for k, val := range m {
			keys = append(keys, k)
			vals = append(vals, val)
		}
		cum += uint64(len(m))
		offsets[i] = cum
	}
	sink.WriteArray(bytesio.Uint64, offsets)
	if err := WriteData(d.Fields[0], sink, keys); err != nil {
		return err
	}
	return WriteData(d.Fields[1], sink, vals)
}

// nestedCodec handles Nested(f1 T1,...): equivalent to Array(Tuple(...))
// with named columns (spec §4.2). flatten_nested=1's N-parallel-arrays
// form is a server-side setting the transport layer negotiates; this
// codec always reads/writes the non-flattened Array(Tuple) wire shape.
type nestedCodec struct{}

func (nestedCodec) ReadPrefix(d *types.Descriptor, src *bytesio.Source) error {
	return ReadPrefix(d.Elem, src)
}

func (nestedCodec) WritePrefix(d *types.Descriptor, sink *bytesio.Sink) error {
	return WritePrefix(d.Elem, sink)
}

func (nestedCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	offRaw, err := src.ReadArray(bytesio.Uint64, n)
	if err != nil {
		return nil, err
	}
	offsets := offRaw.([]uint64)
	total := 0
	if n > 0 {
		total = int(offsets[n-1])
	}
	rows, err := ReadData(d.Elem, src, total)
	if err != nil {
		return nil, err
	}
	out := make(types.Column, n)
	start := 0
	for i := 0; i < n; i++ {
		end := int(offsets[i])
		sub := make([]any, end-start)
		copy(sub, rows[start:end])
		out[i] = sub
		start = end
	}
	return out, nil
}

func (nestedCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	offsets := make([]uint64, len(col))
	var flat types.Column
	var cum uint64
	for i, v := range col {
		rows := v.([]any)
		cum += uint64(len(rows))
		offsets[i] = cum
		flat = append(flat, rows...)
	}
	sink.WriteArray(bytesio.Uint64, offsets)
	return WriteData(d.Elem, sink, flat)
}

// Geometric aliases: Point = Tuple(Float64, Float64); Ring = Array(Point);
// Polygon = Array(Ring); MultiPolygon = Array(Polygon). Each delegates
// entirely to the composed kind's own codec.

type pointAliasCodec struct{ inner tupleCodec }

func (c pointAliasCodec) ReadPrefix(d *types.Descriptor, src *bytesio.Source) error {
	return c.inner.ReadPrefix(d, src)
}
func (c pointAliasCodec) WritePrefix(d *types.Descriptor, sink *bytesio.Sink) error {
	return c.inner.WritePrefix(d, sink)
}
func (c pointAliasCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	return c.inner.ReadData(d, src, n)
}
func (c pointAliasCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	return c.inner.WriteData(d, sink, col)
}

type ringAliasCodec struct{}

func (ringAliasCodec) ReadPrefix(d *types.Descriptor, src *bytesio.Source) error {
	return ReadPrefix(d.Elem, src)
}
func (ringAliasCodec) WritePrefix(d *types.Descriptor, sink *bytesio.Sink) error {
	return WritePrefix(d.Elem, sink)
}
func (ringAliasCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	return arrayCodec{}.ReadData(&types.Descriptor{Kind: types.KindArray, Elem: d.Elem}, src, n)
}
func (ringAliasCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	return arrayCodec{}.WriteData(&types.Descriptor{Kind: types.KindArray, Elem: d.Elem}, sink, col)
}

type polygonAliasCodec struct{ ringAliasCodec }
type multiPolygonAliasCodec struct{ ringAliasCodec }
