package core

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// TokenType classifies a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword     // true, false, null, obj, endobj, stream, endstream, ...
	TokenInteger     // 123
	TokenReal        // 3.14
	TokenString      // (hello)
	TokenHexString   // <48656C6C6F>
	TokenName        // /Type
	TokenArrayStart  // [
	TokenArrayEnd    // ]
	TokenDictStart   // <<
	TokenDictEnd     // >>
	TokenIndirectRef // R
)

// Token is a single lexical token with its byte offset in the input.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int64
}

// Lexer tokenizes PDF syntax from a reader.
type Lexer struct {
	reader *bufio.Reader
	pos    int64
}

// NewLexer creates a lexer reading from r.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{reader: bufio.NewReader(r)}
}

// NextToken returns the next token from the input. Whitespace between
// tokens is consumed silently; an EOF token is returned at end of input.
func (l *Lexer) NextToken() (*Token, error) {
	l.skipWhitespace()

	b, err := l.peek()
	if err == io.EOF {
		return &Token{Type: TokenEOF, Pos: l.pos}, nil
	}
	if err != nil {
		return nil, err
	}

	if b == '%' {
		return l.readComment()
	}

	switch b {
	case '[':
		l.readByte()
		return &Token{Type: TokenArrayStart, Value: []byte{'['}, Pos: l.pos - 1}, nil
	case ']':
		l.readByte()
		return &Token{Type: TokenArrayEnd, Value: []byte{']'}, Pos: l.pos - 1}, nil
	case '(':
		return l.readString()
	case '<':
		// << opens a dictionary, anything else is a hex string
		next, err := l.peekN(2)
		if err == nil && len(next) == 2 && next[1] == '<' {
			l.readByte()
			l.readByte()
			return &Token{Type: TokenDictStart, Value: []byte("<<"), Pos: l.pos - 2}, nil
		}
		return l.readHexString()
	case '>':
		next, err := l.peekN(2)
		if err == nil && len(next) == 2 && next[1] == '>' {
			l.readByte()
			l.readByte()
			return &Token{Type: TokenDictEnd, Value: []byte(">>"), Pos: l.pos - 2}, nil
		}
		return nil, fmt.Errorf("unexpected '>' at offset %d", l.pos)
	case '/':
		return l.readName()
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		return l.readNumber()
	}
	if isAlpha(b) {
		return l.readKeyword()
	}

	return nil, fmt.Errorf("unexpected character %q at offset %d", b, l.pos)
}

func (l *Lexer) readByte() (byte, error) {
	b, err := l.reader.ReadByte()
	if err != nil {
		return 0, err
	}
	l.pos++
	return b, nil
}

func (l *Lexer) peek() (byte, error) {
	buf, err := l.reader.Peek(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (l *Lexer) peekN(n int) ([]byte, error) {
	return l.reader.Peek(n)
}

func (l *Lexer) skipWhitespace() {
	for {
		b, err := l.peek()
		if err != nil || !isWhitespace(b) {
			return
		}
		l.readByte()
	}
}

// readComment consumes a comment from % to end of line.
func (l *Lexer) readComment() (*Token, error) {
	startPos := l.pos
	var buf bytes.Buffer

	b, err := l.readByte()
	if err != nil {
		return nil, err
	}
	buf.WriteByte(b)

	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if b == '\r' || b == '\n' {
			l.readByte()
			if b == '\r' {
				if next, err := l.peek(); err == nil && next == '\n' {
					l.readByte()
				}
			}
			break
		}
		b, err = l.readByte()
		if err != nil {
			return nil, err
		}
		buf.WriteByte(b)
	}

	return &Token{Type: TokenComment, Value: buf.Bytes(), Pos: startPos}, nil
}

// readString reads a literal string, resolving escape sequences and
// balancing nested parentheses.
func (l *Lexer) readString() (*Token, error) {
	startPos := l.pos
	var buf bytes.Buffer

	if b, err := l.readByte(); err != nil {
		return nil, err
	} else if b != '(' {
		return nil, fmt.Errorf("expected '(' at offset %d", l.pos-1)
	}

	depth := 1
	for depth > 0 {
		b, err := l.readByte()
		if err != nil {
			return nil, err
		}

		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth > 0 {
				buf.WriteByte(b)
			}
		case '\\':
			next, err := l.readByte()
			if err != nil {
				return nil, err
			}
			switch next {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '(', ')', '\\':
				buf.WriteByte(next)
			case '\r', '\n':
				// line continuation
				if next == '\r' {
					if peeked, err := l.peek(); err == nil && peeked == '\n' {
						l.readByte()
					}
				}
			case '0', '1', '2', '3', '4', '5', '6', '7':
				// octal escape \ddd, up to three digits
				val := next - '0'
				for i := 0; i < 2; i++ {
					peeked, err := l.peek()
					if err != nil || !isOctalDigit(peeked) {
						break
					}
					d, _ := l.readByte()
					val = val*8 + (d - '0')
				}
				buf.WriteByte(val)
			default:
				// unknown escape: the backslash is ignored
				buf.WriteByte(next)
			}
		default:
			buf.WriteByte(b)
		}
	}

	return &Token{Type: TokenString, Value: buf.Bytes(), Pos: startPos}, nil
}

// readHexString reads the hex digits of a <...> string. The token value
// holds the digits, not the decoded bytes.
func (l *Lexer) readHexString() (*Token, error) {
	startPos := l.pos
	var buf bytes.Buffer

	if b, err := l.readByte(); err != nil {
		return nil, err
	} else if b != '<' {
		return nil, fmt.Errorf("expected '<' at offset %d", l.pos-1)
	}

	for {
		b, err := l.readByte()
		if err != nil {
			return nil, err
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		if !isHexDigit(b) {
			return nil, fmt.Errorf("invalid hex digit %q at offset %d", b, l.pos-1)
		}
		buf.WriteByte(b)
	}

	return &Token{Type: TokenHexString, Value: buf.Bytes(), Pos: startPos}, nil
}

// readName reads a name object, resolving #xx escapes.
func (l *Lexer) readName() (*Token, error) {
	startPos := l.pos
	var buf bytes.Buffer

	if b, err := l.readByte(); err != nil {
		return nil, err
	} else if b != '/' {
		return nil, fmt.Errorf("expected '/' at offset %d", l.pos-1)
	}

	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isWhitespace(b) || isDelimiter(b) {
			break
		}

		b, err = l.readByte()
		if err != nil {
			return nil, err
		}

		if b == '#' {
			h1, err := l.readByte()
			if err != nil {
				return nil, err
			}
			h2, err := l.readByte()
			if err != nil {
				return nil, err
			}
			if !isHexDigit(h1) || !isHexDigit(h2) {
				return nil, fmt.Errorf("invalid hex escape in name at offset %d", l.pos-2)
			}
			buf.WriteByte(hexValue(h1)<<4 | hexValue(h2))
		} else {
			buf.WriteByte(b)
		}
	}

	return &Token{Type: TokenName, Value: buf.Bytes(), Pos: startPos}, nil
}

// readNumber reads an integer or real number.
func (l *Lexer) readNumber() (*Token, error) {
	startPos := l.pos
	var buf bytes.Buffer
	hasDecimal := false

	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if b == '.' {
			if hasDecimal {
				break
			}
			hasDecimal = true
			b, _ = l.readByte()
			buf.WriteByte(b)
		} else if isDigit(b) || (buf.Len() == 0 && (b == '-' || b == '+')) {
			b, _ = l.readByte()
			buf.WriteByte(b)
		} else {
			break
		}
	}

	tokenType := TokenInteger
	if hasDecimal {
		tokenType = TokenReal
	}
	return &Token{Type: tokenType, Value: buf.Bytes(), Pos: startPos}, nil
}

// readKeyword reads an alphanumeric keyword. A bare "R" is classified as
// an indirect reference marker.
func (l *Lexer) readKeyword() (*Token, error) {
	startPos := l.pos
	var buf bytes.Buffer

	for {
		b, err := l.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !isAlpha(b) && !isDigit(b) && b != '*' {
			break
		}
		b, _ = l.readByte()
		buf.WriteByte(b)
	}

	value := buf.Bytes()
	if len(value) == 1 && value[0] == 'R' {
		return &Token{Type: TokenIndirectRef, Value: value, Pos: startPos}, nil
	}
	return &Token{Type: TokenKeyword, Value: value, Pos: startPos}, nil
}

// ReadBytes reads exactly n bytes of raw data from the underlying reader.
// It is used to pull binary stream payloads out of the token stream.
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	data := make([]byte, n)
	read, err := io.ReadFull(l.reader, data)
	l.pos += int64(read)
	if err != nil {
		return data[:read], fmt.Errorf("short read: wanted %d bytes, got %d", n, read)
	}
	return data, nil
}

// SkipStreamEOL consumes the single end-of-line marker that the PDF spec
// requires between the "stream" keyword and the stream payload: either a
// lone LF or a CR LF pair.
func (l *Lexer) SkipStreamEOL() error {
	b, err := l.peek()
	if err != nil {
		return err
	}
	if b == '\r' {
		l.readByte()
		b, err = l.peek()
		if err != nil {
			return err
		}
	}
	if b == '\n' {
		l.readByte()
	}
	return nil
}

// Helper predicates shared by the lexer and parsers.

func isWhitespace(b byte) bool {
	// PDF whitespace: space, tab, LF, CR, FF, null
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isOctalDigit(b byte) bool { return b >= '0' && b <= '7' }

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func hexValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
