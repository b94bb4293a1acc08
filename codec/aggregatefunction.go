package codec

import (
	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// unsupportedCodec backs AggregateFunction and any other opaque type: the
// parser accepts the type name (so DDL reflection over a table with such a
// column still succeeds), but any attempt to actually read or write the
// column raises NotSupportedError carrying the full type name (spec §4.2).
type unsupportedCodec struct{ noPrefix }

func init() {
	registerKind(types.KindAggregateFunction, unsupportedCodec{})
	types.RegisterBuilder("AggregateFunction", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindAggregateFunction, Def: td}, nil
	})
	types.RegisterBuilder("SimpleAggregateFunction", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindAggregateFunction, Def: td}, nil
	})
}

func (unsupportedCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	return nil, &NotSupportedError{TypeName: d.CanonicalName()}
}

func (unsupportedCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	return &NotSupportedError{TypeName: d.CanonicalName()}
}

// NotSupportedError reports an attempt to encode or decode a type the
// codec flags unsupported.
type NotSupportedError struct {
	TypeName string
}

func (e *NotSupportedError) Error() string {
	return "nativecol: type not supported by the codec: " + e.TypeName
}
