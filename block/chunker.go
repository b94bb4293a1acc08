package block

import "github.com/blackhowling/nativecol/types"

// DefaultBlockRowCount is the default row-count ceiling per insert block
// (spec §4.6: "block_row_count defaults to 262144").
const DefaultBlockRowCount = 262144

// DefaultBlockMaxBytes is the default estimated-byte-size ceiling per
// insert block (spec §4.6: "a ceiling (default ~1 MiB per block)").
const DefaultBlockMaxBytes = 1 << 20

// Chunker groups column-oriented insert data into Blocks sized to at most
// RowCount rows and an estimated MaxBytes bytes, the byte estimate coming
// from each column's type via SizePerRow; no row values are sampled.
type Chunker struct {
	RowCount int
	MaxBytes int
}

// NewChunker returns a Chunker with the spec's default ceilings.
func NewChunker() *Chunker {
	return &Chunker{RowCount: DefaultBlockRowCount, MaxBytes: DefaultBlockMaxBytes}
}

// rowsPerBlock derives an effective row-count ceiling from MaxBytes and a
// per-row byte estimate, never exceeding RowCount.
func (c *Chunker) rowsPerBlock(bytesPerRow int) int {
	n := c.RowCount
	if bytesPerRow > 0 {
		if byBytes := c.MaxBytes / bytesPerRow; byBytes > 0 && byBytes < n {
			n = byBytes
		}
	}
	return n
}

// Split partitions names/descs/cols (column-oriented, all of equal length)
// into Blocks honoring the row-count and byte-size ceilings. bytesPerRow is
// the sum of each column's estimated per-row width, as computed by the caller.
func Split(names []string, descs []*types.Descriptor, cols []types.Column, bytesPerRow int, c *Chunker) []*Block {
	if len(cols) == 0 {
		return nil
	}
	total := len(cols[0])
	step := c.rowsPerBlock(bytesPerRow)
	if step <= 0 {
		step = total
	}
	var out []*Block
	for start := 0; start < total; start += step {
		end := start + step
		if end > total {
			end = total
		}
		cs := make([]Column, len(cols))
		for i := range cols {
			cs[i] = Column{Name: names[i], Desc: descs[i], Data: cols[i][start:end]}
		}
		out = append(out, &Block{Columns: cs, NumRows: end - start})
	}
	return out
}

// SizePerRow estimates a descriptor's average on-wire bytes per row, used
// to derive bytesPerRow for Split. Fixed-width kinds return their known
// width; everything else falls back to a coarse constant. The estimate
// depends on the type alone and never looks at actual values.
func SizePerRow(d *types.Descriptor) int {
	switch {
	case d.Nullable:
		return 1 + SizePerRow(d.WithoutNullable())
	case d.LowCard:
		return 2 // amortized index width guess; real size depends on dictionary reuse
	}
	switch d.Kind.String() {
	case "Int8", "UInt8", "Bool":
		return 1
	case "Int16", "UInt16", "Date":
		return 2
	case "Int32", "UInt32", "Float32", "DateTime", "IPv4":
		return 4
	case "Int64", "UInt64", "Float64", "DateTime64":
		return 8
	case "Int128", "UInt128", "Decimal128":
		return 16
	case "Int256", "UInt256", "Decimal256":
		return 32
	case "UUID", "IPv6":
		return 16
	default:
		return 16 // String/Array/Tuple/etc.: coarse average
	}
}
