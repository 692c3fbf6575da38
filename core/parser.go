package core

import (
	"fmt"
	"io"
	"strconv"
)

// ReferenceResolver resolves indirect references during parsing. It is
// needed when a stream's /Length is itself an indirect object.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser parses PDF objects from a reader, using a Lexer for tokenization
// and one token of lookahead to recognize "n g R" reference triples.
type Parser struct {
	lexer    *Lexer
	cur      *Token
	peek     *Token
	resolver ReferenceResolver
}

// NewParser creates a parser reading from r and primes the lookahead.
func NewParser(r io.Reader) *Parser {
	p := &Parser{lexer: NewLexer(r)}
	p.advance()
	p.advance()
	return p
}

// SetReferenceResolver installs a resolver for indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// advance shifts the lookahead window by one token. When the current token
// becomes the "stream" keyword the lexer stops, because what follows is
// binary payload that must not be tokenized.
func (p *Parser) advance() error {
	p.cur = p.peek

	if p.cur != nil && p.cur.Type == TokenKeyword && string(p.cur.Value) == "stream" {
		p.peek = nil
		return nil
	}

	token, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.peek = token
	return nil
}

func (p *Parser) skipComments() error {
	for p.cur != nil && p.cur.Type == TokenComment {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

// ParseObject parses the next PDF object from the input: null, boolean,
// number, string, name, array, dictionary, or indirect reference.
func (p *Parser) ParseObject() (Object, error) {
	if err := p.skipComments(); err != nil {
		return nil, err
	}
	if p.cur == nil {
		return nil, fmt.Errorf("unexpected end of input")
	}

	switch p.cur.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenKeyword:
		switch keyword := string(p.cur.Value); keyword {
		case "null":
			p.advance()
			return Null{}, nil
		case "true":
			p.advance()
			return Bool(true), nil
		case "false":
			p.advance()
			return Bool(false), nil
		default:
			return nil, fmt.Errorf("unexpected keyword %q", keyword)
		}

	case TokenInteger:
		return p.parseNumberOrRef()

	case TokenReal:
		val, err := strconv.ParseFloat(string(p.cur.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number: %w", err)
		}
		p.advance()
		return Real(val), nil

	case TokenString:
		val := string(p.cur.Value)
		p.advance()
		return String(val), nil

	case TokenHexString:
		decoded, err := decodeHexDigits(p.cur.Value)
		if err != nil {
			return nil, err
		}
		p.advance()
		return String(decoded), nil

	case TokenName:
		val := string(p.cur.Value)
		p.advance()
		return Name(val), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()

	default:
		return nil, fmt.Errorf("unexpected token type %v at offset %d", p.cur.Type, p.cur.Pos)
	}
}

// parseNumberOrRef parses an integer, distinguishing the "n g R" indirect
// reference pattern via lookahead.
func (p *Parser) parseNumberOrRef() (Object, error) {
	first, err := strconv.ParseInt(string(p.cur.Value), 10, 64)
	if err != nil {
		f, err := strconv.ParseFloat(string(p.cur.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p.cur.Value)
		}
		p.advance()
		return Real(f), nil
	}

	if p.peek != nil && p.peek.Type == TokenInteger {
		second, err := strconv.ParseInt(string(p.peek.Value), 10, 64)
		if err == nil {
			p.advance() // now at the second integer
			if p.peek != nil && p.peek.Type == TokenIndirectRef {
				p.advance() // at R
				p.advance() // past R
				return IndirectRef{Number: int(first), Generation: int(second)}, nil
			}
			// Not a reference; the second integer stays current.
			return Int(first), nil
		}
	}

	p.advance()
	return Int(first), nil
}

func (p *Parser) parseArray() (Object, error) {
	if p.cur.Type != TokenArrayStart {
		return nil, fmt.Errorf("expected '[', got %v", p.cur.Type)
	}
	p.advance()

	var arr Array
	for {
		if err := p.skipComments(); err != nil {
			return nil, err
		}
		if p.cur == nil {
			return nil, fmt.Errorf("unexpected end of input in array")
		}
		if p.cur.Type == TokenArrayEnd {
			p.advance()
			break
		}
		if p.cur.Type == TokenEOF {
			return nil, fmt.Errorf("unexpected EOF in array")
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		arr = append(arr, obj)
	}
	return arr, nil
}

func (p *Parser) parseDict() (Object, error) {
	if p.cur.Type != TokenDictStart {
		return nil, fmt.Errorf("expected '<<', got %v", p.cur.Type)
	}
	p.advance()

	dict := make(Dict)
	for {
		if err := p.skipComments(); err != nil {
			return nil, err
		}
		if p.cur == nil {
			return nil, fmt.Errorf("unexpected end of input in dictionary")
		}
		if p.cur.Type == TokenDictEnd {
			p.advance()
			break
		}
		if p.cur.Type == TokenEOF {
			return nil, fmt.Errorf("unexpected EOF in dictionary")
		}

		if p.cur.Type != TokenName {
			return nil, fmt.Errorf("expected name for dictionary key, got %v", p.cur.Type)
		}
		key := string(p.cur.Value)
		p.advance()

		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("dictionary value for key %q: %w", key, err)
		}
		dict[key] = value
	}
	return dict, nil
}

// ParseIndirectObject parses an indirect object definition:
// "n g obj <object> endobj", optionally with a stream payload between the
// object dictionary and endobj.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	if err := p.skipComments(); err != nil {
		return nil, err
	}

	if p.cur.Type != TokenInteger {
		return nil, fmt.Errorf("expected object number, got %v", p.cur.Type)
	}
	num, err := strconv.ParseInt(string(p.cur.Value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid object number: %w", err)
	}
	p.advance()

	if p.cur.Type != TokenInteger {
		return nil, fmt.Errorf("expected generation number, got %v", p.cur.Type)
	}
	gen, err := strconv.ParseInt(string(p.cur.Value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid generation number: %w", err)
	}
	p.advance()

	if p.cur.Type != TokenKeyword || string(p.cur.Value) != "obj" {
		return nil, fmt.Errorf("expected 'obj' keyword, got %v", p.cur)
	}
	p.advance()

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("indirect object value: %w", err)
	}

	if p.cur != nil && p.cur.Type == TokenKeyword && string(p.cur.Value) == "stream" {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("stream keyword must follow a dictionary, got %T", obj)
		}
		stream, err := p.parseStream(dict)
		if err != nil {
			return nil, fmt.Errorf("stream: %w", err)
		}
		obj = stream
	}

	if p.cur == nil || p.cur.Type != TokenKeyword || string(p.cur.Value) != "endobj" {
		return nil, fmt.Errorf("expected 'endobj' keyword, got %v", p.cur)
	}
	p.advance()

	return &IndirectObject{
		Ref:    IndirectRef{Number: int(num), Generation: int(gen)},
		Object: obj,
	}, nil
}

// parseStream reads the binary payload after the "stream" keyword. The
// payload length comes from the /Length entry, which may be an indirect
// reference requiring the installed resolver.
func (p *Parser) parseStream(dict Dict) (*Stream, error) {
	lengthObj := dict.Get("Length")
	if lengthObj == nil {
		return nil, fmt.Errorf("stream dictionary missing /Length")
	}

	var length int
	switch v := lengthObj.(type) {
	case Int:
		length = int(v)
	case IndirectRef:
		if p.resolver == nil {
			return nil, fmt.Errorf("indirect stream length requires a reference resolver")
		}
		resolved, err := p.resolver.ResolveReference(v)
		if err != nil {
			return nil, fmt.Errorf("resolve stream length: %w", err)
		}
		n, ok := resolved.(Int)
		if !ok {
			return nil, fmt.Errorf("stream length resolved to %T, expected Int", resolved)
		}
		length = int(n)
	default:
		return nil, fmt.Errorf("invalid type for stream length: %T", lengthObj)
	}
	if length < 0 {
		return nil, fmt.Errorf("negative stream length %d", length)
	}

	// The lexer is positioned just past the "stream" keyword. A mandatory
	// EOL separates the keyword from the payload.
	if err := p.lexer.SkipStreamEOL(); err != nil {
		return nil, fmt.Errorf("EOL after stream keyword: %w", err)
	}

	data, err := p.lexer.ReadBytes(length)
	if err != nil {
		return nil, fmt.Errorf("stream payload: %w", err)
	}

	token, err := p.lexer.NextToken()
	if err != nil {
		return nil, fmt.Errorf("token after stream payload: %w", err)
	}
	if token.Type != TokenKeyword || string(token.Value) != "endstream" {
		return nil, fmt.Errorf("expected 'endstream', got %q", token.Value)
	}

	// Re-prime the lookahead so the caller can continue at endobj.
	p.cur = nil
	p.peek = nil
	p.advance()
	p.advance()

	return &Stream{Dict: dict, Data: data}, nil
}

// decodeHexDigits converts the digits of a hex string token into bytes,
// padding a trailing odd digit with zero per the PDF spec.
func decodeHexDigits(digits []byte) (string, error) {
	n := len(digits)
	out := make([]byte, 0, (n+1)/2)
	for i := 0; i < n; i += 2 {
		hi := digits[i]
		lo := byte('0')
		if i+1 < n {
			lo = digits[i+1]
		}
		if !isHexDigit(hi) || !isHexDigit(lo) {
			return "", fmt.Errorf("invalid hex string digit")
		}
		out = append(out, hexValue(hi)<<4|hexValue(lo))
	}
	return string(out), nil
}
