package codec

import (
	"encoding/binary"
	"net"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// ipv4Codec handles IPv4: the address's integer value (a.b.c.d read as a
// big-endian word) stored as a little-endian u32 on the wire, so the wire
// bytes are the address bytes in reverse order (spec §4.2: "IPv4 as u32
// big-endian-in-little-endian word").
type ipv4Codec struct{ noPrefix }

// ipv6Codec handles IPv6: 16 big-endian bytes. A plain IPv4 input (4-byte
// net.IP, or an IPv4-mapped net.IP) is promoted by prepending the 12-byte
// mask 00..00 FF FF.
type ipv6Codec struct{ noPrefix }

func init() {
	registerKind(types.KindIPv4, ipv4Codec{})
	types.RegisterBuilder("IPv4", func(*types.Registry, *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindIPv4}, nil
	})
	registerKind(types.KindIPv6, ipv6Codec{})
	types.RegisterBuilder("IPv6", func(*types.Registry, *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindIPv6}, nil
	})
}

func (ipv4Codec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	raw, err := src.ReadArray(bytesio.Uint32, n)
	if err != nil {
		return nil, err
	}
	out := make(types.Column, n)
	for i, w := range raw.([]uint32) {
		be := w // the LE-read word already equals the big-endian address integer
		ip := make(net.IP, 4)
		binary.BigEndian.PutUint32(ip, be)
		out[i] = ip
	}
	return out, nil
}

func (ipv4Codec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	vals := make([]uint32, len(col))
	for i, v := range col {
		ip := v.(net.IP).To4()
		vals[i] = binary.BigEndian.Uint32(ip)
	}
	sink.WriteArray(bytesio.Uint32, vals)
	return nil
}

var ipv4MappedPrefix = []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff}

func (ipv6Codec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	out := make(types.Column, n)
	for i := 0; i < n; i++ {
		raw, err := src.ReadBytes(16)
		if err != nil {
			return nil, err
		}
		ip := make(net.IP, 16)
		copy(ip, raw)
		out[i] = ip
	}
	return out, nil
}

func (ipv6Codec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	for _, v := range col {
		ip := v.(net.IP)
		if v4 := ip.To4(); v4 != nil && len(ip) == 4 {
			buf := make([]byte, 16)
			copy(buf, ipv4MappedPrefix)
			copy(buf[12:], v4)
			sink.WriteBytes(buf)
			continue
		}
		v6 := ip.To16()
		sink.WriteBytes(v6)
	}
	return nil
}
