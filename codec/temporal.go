package codec

import (
	"time"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// dateTime64Codec handles DateTime64(P, [tz]): i64 ticks of 10^-P seconds
// (spec §4.2). The time zone name, if present, is carried on the
// descriptor's TZ field for the query-context timezone policy to consume;
// the codec itself always decodes/encodes through time.Time in UTC.
type dateTime64Codec struct{ noPrefix }

func init() {
	registerKind(types.KindDateTime64, dateTime64Codec{})
	types.RegisterBuilder("DateTime64", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		if len(td.Values) == 0 {
			return nil, &types.ParseError{Name: td.Name, Reason: "DateTime64 requires a precision argument"}
		}
		d := &types.Descriptor{Kind: types.KindDateTime64, Precision: int(td.Values[0].Int)}
		if len(td.Values) > 1 {
			d.TZ = td.Values[1].Str
		}
		return d, nil
	})

	registerKind(types.KindTime, timeCodec{width: 4})
	types.RegisterBuilder("Time", func(*types.Registry, *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindTime}, nil
	})
	registerKind(types.KindTime64, timeCodec{width: 8})
	types.RegisterBuilder("Time64", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		d := &types.Descriptor{Kind: types.KindTime64}
		if len(td.Values) > 0 {
			d.Precision = int(td.Values[0].Int)
		}
		return d, nil
	})
}

func tickDivisor(precision int) int64 {
	d := int64(1)
	for i := 0; i < precision; i++ {
		d *= 10
	}
	return d
}

func (dateTime64Codec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	raw, err := src.ReadArray(bytesio.Int64, n)
	if err != nil {
		return nil, err
	}
	div := tickDivisor(d.Precision)
	out := make(types.Column, n)
	for i, v := range raw.([]int64) {
		sec := v / div
		rem := v % div
		nsec := rem * (1_000_000_000 / div)
		out[i] = time.Unix(sec, nsec).UTC()
	}
	return out, nil
}

func (dateTime64Codec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	div := tickDivisor(d.Precision)
	vals := make([]int64, len(col))
	for i, v := range col {
		t := v.(time.Time).UTC()
		vals[i] = t.Unix()*div + int64(t.Nanosecond())/(1_000_000_000/div)
	}
	sink.WriteArray(bytesio.Int64, vals)
	return nil
}

// timeCodec handles Time (i32 seconds) and Time64(P) (i64 ticks of 10^-P
// seconds), both signed durations bounded at +-999:59:59[.frac] (spec
// §4.2), represented here as time.Duration.
type timeCodec struct {
	noPrefix
	width int
}

func (c timeCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	out := make(types.Column, n)
	if c.width == 4 {
		raw, err := src.ReadArray(bytesio.Int32, n)
		if err != nil {
			return nil, err
		}
		for i, v := range raw.([]int32) {
			out[i] = time.Duration(v) * time.Second
		}
		return out, nil
	}
	raw, err := src.ReadArray(bytesio.Int64, n)
	if err != nil {
		return nil, err
	}
	div := tickDivisor(d.Precision)
	for i, v := range raw.([]int64) {
		secs := v / div
		frac := v % div
		nsec := frac * (1_000_000_000 / div)
		out[i] = time.Duration(secs)*time.Second + time.Duration(nsec)
	}
	return out, nil
}

func (c timeCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	if c.width == 4 {
		vals := make([]int32, len(col))
		for i, v := range col {
			vals[i] = int32(v.(time.Duration) / time.Second)
		}
		sink.WriteArray(bytesio.Int32, vals)
		return nil
	}
	div := tickDivisor(d.Precision)
	vals := make([]int64, len(col))
	for i, v := range col {
		dur := v.(time.Duration)
		secs := int64(dur / time.Second)
		nsec := int64(dur % time.Second)
		vals[i] = secs*div + nsec/(1_000_000_000/div)
	}
	sink.WriteArray(bytesio.Int64, vals)
	return nil
}
