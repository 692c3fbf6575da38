package core

import (
	"strings"
	"testing"
)

func TestLexerEOF(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"whitespace only", "   \t\n\r  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(strings.NewReader(tt.input))
			token, err := lexer.NextToken()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.Type != TokenEOF {
				t.Errorf("expected TokenEOF, got %v", token.Type)
			}
		})
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType TokenType
		want     string
	}{
		{"integer", "123", TokenInteger, "123"},
		{"negative integer", "-42", TokenInteger, "-42"},
		{"explicit positive", "+7", TokenInteger, "+7"},
		{"real", "3.14", TokenReal, "3.14"},
		{"leading dot", ".5", TokenReal, ".5"},
		{"negative real", "-0.002", TokenReal, "-0.002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(strings.NewReader(tt.input))
			token, err := lexer.NextToken()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.Type != tt.wantType {
				t.Errorf("type = %v, want %v", token.Type, tt.wantType)
			}
			if string(token.Value) != tt.want {
				t.Errorf("value = %q, want %q", token.Value, tt.want)
			}
		})
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "(hello)", "hello"},
		{"nested parens", "(a (b) c)", "a (b) c"},
		{"escaped paren", `(a \) b)`, "a ) b"},
		{"newline escape", `(a\nb)`, "a\nb"},
		{"octal escape", `(\101\102)`, "AB"},
		{"short octal", `(\53)`, "+"},
		{"line continuation", "(a\\\nb)", "ab"},
		{"unknown escape keeps char", `(\q)`, "q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(strings.NewReader(tt.input))
			token, err := lexer.NextToken()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.Type != TokenString {
				t.Fatalf("type = %v, want TokenString", token.Type)
			}
			if string(token.Value) != tt.want {
				t.Errorf("value = %q, want %q", token.Value, tt.want)
			}
		})
	}
}

func TestLexerHexStrings(t *testing.T) {
	// The token keeps the digits; decoding happens in the parser.
	lexer := NewLexer(strings.NewReader("<48 65 6C6C 6F>"))
	token, err := lexer.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.Type != TokenHexString {
		t.Fatalf("type = %v, want TokenHexString", token.Type)
	}
	if string(token.Value) != "48656C6C6F" {
		t.Errorf("value = %q, want %q", token.Value, "48656C6C6F")
	}
}

func TestLexerNames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "/Type", "Type"},
		{"hex escape", "/Name#20With#20Spaces", "Name With Spaces"},
		{"stops at delimiter", "/Font/Helvetica", "Font"},
		{"empty name", "/ ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(strings.NewReader(tt.input))
			token, err := lexer.NextToken()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.Type != TokenName {
				t.Fatalf("type = %v, want TokenName", token.Type)
			}
			if string(token.Value) != tt.want {
				t.Errorf("value = %q, want %q", token.Value, tt.want)
			}
		})
	}
}

func TestLexerDictDelimiters(t *testing.T) {
	lexer := NewLexer(strings.NewReader("<< /K 1 >>"))

	wantTypes := []TokenType{TokenDictStart, TokenName, TokenInteger, TokenDictEnd, TokenEOF}
	for i, want := range wantTypes {
		token, err := lexer.NextToken()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if token.Type != want {
			t.Errorf("token %d: type = %v, want %v", i, token.Type, want)
		}
	}
}

func TestLexerIndirectRefMarker(t *testing.T) {
	lexer := NewLexer(strings.NewReader("12 0 R"))

	token, _ := lexer.NextToken()
	if token.Type != TokenInteger {
		t.Fatalf("first token = %v, want TokenInteger", token.Type)
	}
	token, _ = lexer.NextToken()
	if token.Type != TokenInteger {
		t.Fatalf("second token = %v, want TokenInteger", token.Type)
	}
	token, _ = lexer.NextToken()
	if token.Type != TokenIndirectRef {
		t.Errorf("third token = %v, want TokenIndirectRef", token.Type)
	}
}

func TestLexerComments(t *testing.T) {
	lexer := NewLexer(strings.NewReader("%PDF-1.7\n42"))

	token, err := lexer.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.Type != TokenComment {
		t.Fatalf("type = %v, want TokenComment", token.Type)
	}
	if string(token.Value) != "%PDF-1.7" {
		t.Errorf("value = %q, want %q", token.Value, "%PDF-1.7")
	}

	token, _ = lexer.NextToken()
	if token.Type != TokenInteger || string(token.Value) != "42" {
		t.Errorf("after comment got %v %q, want integer 42", token.Type, token.Value)
	}
}

func TestSkipStreamEOL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  byte
	}{
		{"LF", "\nX", 'X'},
		{"CRLF", "\r\nX", 'X'},
		{"no EOL", "X", 'X'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(strings.NewReader(tt.input))
			if err := lexer.SkipStreamEOL(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			data, err := lexer.ReadBytes(1)
			if err != nil {
				t.Fatalf("read after EOL: %v", err)
			}
			if data[0] != tt.want {
				t.Errorf("next byte = %q, want %q", data[0], tt.want)
			}
		})
	}
}
