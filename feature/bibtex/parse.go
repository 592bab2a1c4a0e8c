package bibtex

import (
	"fmt"
	"io"
	"strings"

	"bibsync/core/reconcile"
)

// ParseError reports malformed input with the line where the problem was found.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Parse reads a .bib document into a snapshot. The snapshot source is left
// unset; the scanner labels it.
func Parse(r io.Reader) (*reconcile.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses a .bib document held in memory.
func ParseString(src string) (*reconcile.Snapshot, error) {
	p := &parser{src: src, line: 1, snap: &reconcile.Snapshot{}}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.snap, nil
}

type parser struct {
	src  string
	pos  int
	line int

	snap *reconcile.Snapshot
}

func (p *parser) parse() error {
	for {
		i := strings.IndexByte(p.src[p.pos:], '@')
		if i < 0 {
			return nil
		}
		p.advance(i + 1)
		if err := p.item(); err != nil {
			return err
		}
	}
}

// item parses one @-block. An @ that is not followed by a type name and an
// opening delimiter is free text and skipped.
func (p *parser) item() error {
	start := p.line
	typ := strings.ToLower(p.token(isTypeChar))
	if typ == "" {
		return nil
	}

	p.skipSpace()
	var closer byte
	switch p.peek() {
	case '{':
		closer = '}'
	case '(':
		closer = ')'
	default:
		return nil
	}
	p.advance(1)

	switch typ {
	case "comment":
		body, err := p.balanced(closer, start)
		if err != nil {
			return err
		}
		return p.comment(body, start)
	case "preamble":
		p.skipSpace()
		v, err := p.value(closer)
		if err != nil {
			return err
		}
		if err := p.expect(closer); err != nil {
			return err
		}
		p.snap.Preamble = &v
		return nil
	case "string":
		return p.definition(closer)
	default:
		return p.entry(typ, closer)
	}
}

func (p *parser) definition(closer byte) error {
	p.skipSpace()
	name := p.token(isNameChar)
	if name == "" {
		return p.errorf("expected string name")
	}
	if err := p.expect('='); err != nil {
		return err
	}
	p.skipSpace()
	v, err := p.value(closer)
	if err != nil {
		return err
	}
	if err := p.expect(closer); err != nil {
		return err
	}

	p.snap.Definitions = append(p.snap.Definitions, reconcile.Definition{
		ID:      fmt.Sprintf("s%d", len(p.snap.Definitions)+1),
		Name:    name,
		Content: v,
	})
	return nil
}

func (p *parser) entry(typ string, closer byte) error {
	rec := reconcile.Record{Type: typ, Fields: map[string]string{}}

	p.skipSpace()
	keyStart := p.pos
	for !p.eof() && p.peek() != ',' && p.peek() != closer {
		p.advance(1)
	}
	if p.eof() {
		return p.errorf("unterminated @%s entry", typ)
	}
	rec.Key = strings.TrimSpace(p.src[keyStart:p.pos])

	if p.peek() == closer {
		p.advance(1)
		p.snap.Records = append(p.snap.Records, rec)
		return nil
	}
	p.advance(1)

	for {
		p.skipSpace()
		if p.eof() {
			return p.errorf("unterminated @%s entry", typ)
		}
		if p.peek() == closer {
			p.advance(1)
			break
		}

		name := p.token(isNameChar)
		if name == "" {
			return p.errorf("expected field name in @%s entry", typ)
		}
		if err := p.expect('='); err != nil {
			return err
		}
		p.skipSpace()
		v, err := p.value(closer)
		if err != nil {
			return err
		}
		rec.Fields[strings.ToLower(name)] = v

		p.skipSpace()
		switch {
		case p.eof():
			return p.errorf("unterminated @%s entry", typ)
		case p.peek() == ',':
			p.advance(1)
		case p.peek() == closer:
		default:
			return p.errorf("expected , or %c after field %s", closer, name)
		}
	}

	p.snap.Records = append(p.snap.Records, rec)
	return nil
}

// value parses a field value: one or more parts joined with #. A single
// braced or quoted part yields its inner text; anything else is kept as
// written.
func (p *parser) value(closer byte) (string, error) {
	start := p.pos
	var (
		parts   int
		inner   string
		wrapped bool
	)

	for {
		switch p.peek() {
		case '{':
			s, err := p.delimited('{', '}')
			if err != nil {
				return "", err
			}
			inner, wrapped = s, true
		case '"':
			s, err := p.delimited('"', '"')
			if err != nil {
				return "", err
			}
			inner, wrapped = s, true
		default:
			tok := p.token(func(c byte) bool { return isBareChar(c) && c != closer })
			if tok == "" {
				return "", p.errorf("expected value")
			}
			wrapped = false
		}
		parts++

		end := p.pos
		p.skipSpace()
		if p.peek() != '#' {
			if parts == 1 && wrapped {
				return inner, nil
			}
			return strings.TrimSpace(p.src[start:end]), nil
		}
		p.advance(1)
		p.skipSpace()
	}
}

// delimited reads a braced or quoted part and returns its inner text. Braces
// nest in both forms; a quote only ends a quoted part at brace depth zero.
func (p *parser) delimited(opener, closer byte) (string, error) {
	start := p.line
	p.advance(1)
	from := p.pos
	depth := 0
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '{':
			depth++
		case c == '}' && depth > 0:
			depth--
		case c == closer && depth == 0:
			s := p.src[from:p.pos]
			p.advance(1)
			return s, nil
		}
		p.advance(1)
	}
	return "", &ParseError{Line: start, Msg: fmt.Sprintf("unterminated %c value", opener)}
}

// balanced reads raw text up to the closer that ends the current block.
func (p *parser) balanced(closer byte, start int) (string, error) {
	from := p.pos
	depth := 0
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '{':
			depth++
		case c == '}' && depth > 0:
			depth--
		case c == closer && depth == 0:
			s := p.src[from:p.pos]
			p.advance(1)
			return s, nil
		}
		p.advance(1)
	}
	return "", &ParseError{Line: start, Msg: "unterminated @comment"}
}

func (p *parser) comment(body string, line int) error {
	rest, ok := strings.CutPrefix(strings.TrimSpace(body), metaPrefix)
	if !ok {
		return nil
	}
	return parseMeta(&p.snap.Metadata, rest, line)
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.eof() || p.peek() != c {
		return p.errorf("expected %c", c)
	}
	p.advance(1)
	return nil
}

func (p *parser) token(accept func(byte) bool) string {
	from := p.pos
	n := 0
	for from+n < len(p.src) && accept(p.src[from+n]) {
		n++
	}
	p.advance(n)
	return p.src[from:p.pos]
}

func (p *parser) skipSpace() {
	n := 0
	for p.pos+n < len(p.src) && isSpace(p.src[p.pos+n]) {
		n++
	}
	p.advance(n)
}

func (p *parser) advance(n int) {
	p.line += strings.Count(p.src[p.pos:p.pos+n], "\n")
	p.pos += n
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) errorf(format string, args ...any) error {
	if p.eof() {
		return &ParseError{Line: p.line, Msg: "unexpected end of input: " + fmt.Sprintf(format, args...)}
	}
	return &ParseError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isTypeChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNameChar(c byte) bool {
	return isTypeChar(c) || c >= '0' && c <= '9' || strings.IndexByte("_-:.+/'", c) >= 0
}

func isBareChar(c byte) bool {
	return c != 0 && !isSpace(c) && strings.IndexByte(`,#{}()="`, c) < 0
}
