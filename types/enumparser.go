package types

// parseEnumArgs parses Enum8/16's distinct 'key' = value, ... argument
// list (spec section 4.1: Enum's grammar is not the generic positional/
// named-field form other container types use). kind is "Enum8" or
// "Enum16"; the parenthesized argument list is consumed in full.
func (p *parser) parseEnumArgs(kind string) (*TypeDef, error) {
	if err := p.expectByte('('); err != nil {
		return nil, err
	}
	var keys []KeyValue
	p.skipSpace()
	if p.peekByte() != ')' {
		for {
			p.skipSpace()
			name, err := p.parseQuotedString()
			if err != nil {
				return nil, err
			}
			p.skipSpace()
			if err := p.expectByte('='); err != nil {
				return nil, err
			}
			p.skipSpace()
			n, err := p.parseInt()
			if err != nil {
				return nil, err
			}
			keys = append(keys, KeyValue{Key: name, Value: Value{Kind: ValueInt, Int: n}})
			p.skipSpace()
			if p.peekByte() == ',' {
				p.pos++
				continue
			}
			break
		}
	}
	if err := p.expectByte(')'); err != nil {
		return nil, err
	}
	return &TypeDef{Name: kind, Keys: keys}, nil
}
