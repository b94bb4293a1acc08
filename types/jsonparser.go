package types

import "strconv"

// parseJSONArgs parses the JSON(...) argument list: an optional
// max_dynamic_paths=N, an optional max_dynamic_types=N, any number of SKIP
// <path> / SKIP REGEXP '<pattern>' clauses, and any number of
// <path> <type-expr> typed-path declarations (spec section 4.1's dedicated
// JSON sub-grammar, recorded on TypeDef.JSON rather than forced into the
// generic Values/Keys shape). A bare "JSON" with no parentheses is valid
// and yields an empty JSONSpec.
func (p *parser) parseJSONArgs() (*TypeDef, error) {
	spec := &JSONSpec{MaxDynamicPaths: -1, MaxDynamicTypes: -1}
	p.skipSpace()
	if p.peekByte() != '(' {
		return &TypeDef{Name: "JSON", JSON: spec}, nil
	}
	p.pos++ // consume '('
	p.skipSpace()
	if p.peekByte() != ')' {
		for {
			p.skipSpace()
			if err := p.parseJSONClause(spec); err != nil {
				return nil, err
			}
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
	return &TypeDef{Name: "JSON", JSON: spec}, nil
}

func (p *parser) parseJSONClause(spec *JSONSpec) error {
	start := p.pos
	word, err := p.parseDottedPath()
	if err != nil {
		return err
	}

	switch word {
	case "max_dynamic_paths":
		p.skipSpace()
		if err := p.expectByte('='); err != nil {
			return err
		}
		p.skipSpace()
		n, err := p.parseInt()
		if err != nil {
			return err
		}
		spec.MaxDynamicPaths = int(n)
		return nil
	case "max_dynamic_types":
		p.skipSpace()
		if err := p.expectByte('='); err != nil {
			return err
		}
		p.skipSpace()
		n, err := p.parseInt()
		if err != nil {
			return err
		}
		spec.MaxDynamicTypes = int(n)
		return nil
	case "SKIP":
		p.skipSpace()
		savedPos := p.pos
		kw, err := p.parseIdent()
		if err == nil && kw == "REGEXP" {
			p.skipSpace()
			pattern, err := p.parseQuotedString()
			if err != nil {
				return err
			}
			spec.Skips = append(spec.Skips, SkipSpec{Regexp: true, Pattern: pattern})
			return nil
		}
		p.pos = savedPos
		path, err := p.parseDottedPath()
		if err != nil {
			return err
		}
		spec.Skips = append(spec.Skips, SkipSpec{Pattern: path})
		return nil
	}

	// Not a keyword: word is a typed-path declaration's dotted path name,
	// followed by its type expression.
	p.pos = start
	path, err := p.parseDottedPath()
	if err != nil {
		return err
	}
	p.skipSpace()
	td, err := p.parseTypeExpr()
	if err != nil {
		return err
	}
	spec.TypedPaths = append(spec.TypedPaths, TypedPath{Path: path, Type: td})
	return nil
}

// parseDottedPath parses a JSON path component: identifier characters and
// '.' separators (e.g. "a.b.c").
func (p *parser) parseDottedPath() (string, error) {
	start := p.pos
	for p.pos < len(p.s) && (isIdentByte(p.s[p.pos]) || p.s[p.pos] == '.') {
		p.pos++
	}
	if p.pos == start {
		return "", &ParseError{Name: p.s, Reason: "expected path at byte " + strconv.Itoa(start)}
	}
	return p.s[start:p.pos], nil
}
