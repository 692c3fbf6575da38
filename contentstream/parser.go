package contentstream

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/tsawler/ghostink/core"
)

// Operation is a single content stream operation, an operator plus the
// operands that preceded it.
type Operation struct {
	Operator string
	Operands []core.Object
}

// Float returns operand i as a float64. It reports false when the
// operand is missing or not numeric.
func (op Operation) Float(i int) (float64, bool) {
	if i < 0 || i >= len(op.Operands) {
		return 0, false
	}
	switch v := op.Operands[i].(type) {
	case core.Int:
		return float64(v), true
	case core.Real:
		return float64(v), true
	}
	return 0, false
}

// Name returns operand i as a name. It reports false when the operand
// is missing or not a name.
func (op Operation) Name(i int) (string, bool) {
	if i < 0 || i >= len(op.Operands) {
		return "", false
	}
	if name, ok := op.Operands[i].(core.Name); ok {
		return string(name), true
	}
	return "", false
}

// Str returns operand i as a string. It reports false when the operand
// is missing or not a string.
func (op Operation) Str(i int) (string, bool) {
	if i < 0 || i >= len(op.Operands) {
		return "", false
	}
	if s, ok := op.Operands[i].(core.String); ok {
		return string(s), true
	}
	return "", false
}

// Parser parses a decoded content stream into its sequence of
// operations.
type Parser struct {
	data     []byte
	pos      int
	ops      []Operation
	operands []core.Object
}

// NewParser creates a content stream parser over data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Parse returns all operations in stream order.
func (p *Parser) Parse() ([]Operation, error) {
	p.ops = make([]Operation, 0)
	p.operands = p.operands[:0]

	for {
		p.skipWhitespaceAndComments()
		if p.pos >= len(p.data) {
			break
		}
		if err := p.parseNext(); err != nil {
			return nil, err
		}
	}

	return p.ops, nil
}

// parseNext handles one token: operands are pushed, an operator consumes
// the pending operands into an Operation.
func (p *Parser) parseNext() error {
	start := p.pos
	c := p.data[p.pos]

	if isLetter(c) || c == '\'' || c == '"' {
		return p.parseOperator()
	}

	operand, err := p.parseOperand()
	if err != nil {
		return fmt.Errorf("at position %d: %w", start, err)
	}

	p.operands = append(p.operands, operand)
	return nil
}

func (p *Parser) parseOperator() error {
	start := p.pos

	var buf bytes.Buffer
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isLetter(c) || c == '\'' || c == '"' || c == '*' || isDigit(c) && buf.Len() > 0 {
			buf.WriteByte(c)
			p.pos++
		} else {
			break
		}
	}

	operator := buf.String()
	if operator == "" {
		return fmt.Errorf("empty operator at position %d", start)
	}

	// The keywords that look like operators but are operands.
	switch operator {
	case "true":
		p.operands = append(p.operands, core.Bool(true))
		return nil
	case "false":
		p.operands = append(p.operands, core.Bool(false))
		return nil
	case "null":
		p.operands = append(p.operands, core.Null{})
		return nil
	}

	operation := Operation{
		Operator: operator,
		Operands: make([]core.Object, len(p.operands)),
	}
	copy(operation.Operands, p.operands)
	p.ops = append(p.ops, operation)
	p.operands = p.operands[:0]

	if operator == "BI" {
		return p.skipInlineImage()
	}

	return nil
}

// skipInlineImage advances past the key/value pairs and binary data of
// an inline image, through the closing EI. The image itself is not
// retained; only its presence matters to callers.
func (p *Parser) skipInlineImage() error {
	// Skip dictionary entries up to the ID operator.
	for {
		p.skipWhitespaceAndComments()
		if p.pos >= len(p.data) {
			return fmt.Errorf("inline image missing ID")
		}
		if p.data[p.pos] == 'I' && p.pos+1 < len(p.data) && p.data[p.pos+1] == 'D' {
			p.pos += 2
			break
		}
		if _, err := p.parseOperand(); err != nil {
			// Entry keys and values we cannot parse are skipped a byte
			// at a time until the ID marker shows up.
			p.pos++
		}
	}

	// One whitespace byte separates ID from the image data.
	if p.pos < len(p.data) && isWhitespace(p.data[p.pos]) {
		p.pos++
	}

	// Scan for EI delimited by whitespace on both sides.
	for p.pos+1 < len(p.data) {
		if p.data[p.pos] == 'E' && p.data[p.pos+1] == 'I' &&
			(p.pos == 0 || isWhitespace(p.data[p.pos-1])) &&
			(p.pos+2 >= len(p.data) || isWhitespace(p.data[p.pos+2]) || isDelimiter(p.data[p.pos+2])) {
			p.pos += 2
			return nil
		}
		p.pos++
	}

	return fmt.Errorf("inline image missing EI")
}

func (p *Parser) parseOperand() (core.Object, error) {
	p.skipWhitespaceAndComments()

	if p.pos >= len(p.data) {
		return nil, fmt.Errorf("unexpected end of stream")
	}

	c := p.data[p.pos]

	switch {
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return p.parseNumber()
	case c == '(':
		return p.parseString()
	case c == '<' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '<':
		return p.parseDict()
	case c == '<':
		return p.parseHexString()
	case c == '/':
		return p.parseName()
	case c == '[':
		return p.parseArray()
	}

	return nil, fmt.Errorf("unexpected character %q at position %d", c, p.pos)
}

func (p *Parser) parseNumber() (core.Object, error) {
	start := p.pos
	hasDecimal := false

	if p.data[p.pos] == '+' || p.data[p.pos] == '-' {
		p.pos++
	}

	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isDigit(c) {
			p.pos++
		} else if c == '.' && !hasDecimal {
			hasDecimal = true
			p.pos++
		} else {
			break
		}
	}

	numStr := string(p.data[start:p.pos])

	if hasDecimal {
		val, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number %q: %w", numStr, err)
		}
		return core.Real(val), nil
	}

	val, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q: %w", numStr, err)
	}
	return core.Int(val), nil
}

func (p *Parser) parseString() (core.Object, error) {
	p.pos++ // skip '('

	var result bytes.Buffer
	depth := 1

	for p.pos < len(p.data) && depth > 0 {
		c := p.data[p.pos]

		switch {
		case c == '\\' && p.pos+1 < len(p.data):
			p.pos++
			next := p.data[p.pos]
			switch next {
			case 'n':
				result.WriteByte('\n')
				p.pos++
			case 'r':
				result.WriteByte('\r')
				p.pos++
			case 't':
				result.WriteByte('\t')
				p.pos++
			case 'b':
				result.WriteByte('\b')
				p.pos++
			case 'f':
				result.WriteByte('\f')
				p.pos++
			case '(', ')', '\\':
				result.WriteByte(next)
				p.pos++
			case '\r':
				p.pos++
				if p.pos < len(p.data) && p.data[p.pos] == '\n' {
					p.pos++
				}
			case '\n':
				p.pos++
			case '0', '1', '2', '3', '4', '5', '6', '7':
				octalVal := int(next - '0')
				p.pos++
				for i := 0; i < 2 && p.pos < len(p.data); i++ {
					digit := p.data[p.pos]
					if digit < '0' || digit > '7' {
						break
					}
					octalVal = octalVal*8 + int(digit-'0')
					p.pos++
				}
				result.WriteByte(byte(octalVal & 0xFF))
			default:
				result.WriteByte(next)
				p.pos++
			}
		case c == '(':
			depth++
			result.WriteByte(c)
			p.pos++
		case c == ')':
			depth--
			if depth > 0 {
				result.WriteByte(c)
			}
			p.pos++
		default:
			result.WriteByte(c)
			p.pos++
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("unclosed string")
	}

	return core.String(result.String()), nil
}

func (p *Parser) parseHexString() (core.Object, error) {
	p.pos++ // skip '<'

	var digits []byte
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == '>' {
			p.pos++

			if len(digits)%2 == 1 {
				digits = append(digits, '0')
			}
			result := make([]byte, len(digits)/2)
			for i := 0; i < len(result); i++ {
				result[i] = (hexValue(digits[2*i]) << 4) | hexValue(digits[2*i+1])
			}
			return core.String(result), nil
		}
		if isWhitespace(c) {
			p.pos++
			continue
		}
		if !isHexDigit(c) {
			return nil, fmt.Errorf("invalid hex digit %q", c)
		}
		digits = append(digits, c)
		p.pos++
	}

	return nil, fmt.Errorf("unclosed hex string")
}

func (p *Parser) parseName() (core.Object, error) {
	p.pos++ // skip '/'

	var result bytes.Buffer
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}

		if c == '#' && p.pos+2 < len(p.data) &&
			isHexDigit(p.data[p.pos+1]) && isHexDigit(p.data[p.pos+2]) {
			result.WriteByte((hexValue(p.data[p.pos+1]) << 4) | hexValue(p.data[p.pos+2]))
			p.pos += 3
			continue
		}

		result.WriteByte(c)
		p.pos++
	}

	return core.Name(result.String()), nil
}

func (p *Parser) parseArray() (core.Object, error) {
	p.pos++ // skip '['

	arr := core.Array{}
	for {
		p.skipWhitespaceAndComments()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("unclosed array")
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return arr, nil
		}

		obj, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (core.Object, error) {
	p.pos += 2 // skip '<<'

	dict := make(core.Dict)
	for {
		p.skipWhitespaceAndComments()
		if p.pos+1 >= len(p.data) {
			return nil, fmt.Errorf("unclosed dictionary")
		}
		if p.data[p.pos] == '>' && p.data[p.pos+1] == '>' {
			p.pos += 2
			return dict, nil
		}

		if p.data[p.pos] != '/' {
			return nil, fmt.Errorf("dictionary key at position %d is not a name", p.pos)
		}

		key, err := p.parseName()
		if err != nil {
			return nil, err
		}

		value, err := p.parseOperand()
		if err != nil {
			return nil, err
		}

		dict[string(key.(core.Name))] = value
	}
}

func (p *Parser) skipWhitespaceAndComments() {
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isWhitespace(c) {
			p.pos++
			continue
		}
		if c == '%' {
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
			continue
		}
		break
	}
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isDelimiter(c byte) bool {
	return c == '(' || c == ')' || c == '<' || c == '>' ||
		c == '[' || c == ']' || c == '{' || c == '}' ||
		c == '/' || c == '%'
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
