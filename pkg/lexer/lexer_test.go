package lexer

import (
	"strings"
	"testing"
)

// helper to tokenize and fail on error
func mustTokenize(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := Tokenize(source, "test.mica")
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return tokens
}

// helper that strips the trailing EOF for easier assertions
func mustTokenizeNoEOF(t *testing.T, source string) []Token {
	t.Helper()
	tokens := mustTokenize(t, source)
	if len(tokens) == 0 {
		t.Fatal("expected at least one token (EOF)")
	}
	if tokens[len(tokens)-1].Type != TokEOF {
		t.Fatal("last token is not EOF")
	}
	return tokens[:len(tokens)-1]
}

// ---------------------------------------------------------------------------
// Test: empty input produces only EOF
// ---------------------------------------------------------------------------
func TestEmptyInput(t *testing.T) {
	tokens := mustTokenize(t, "")
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token (EOF), got %d", len(tokens))
	}
	if tokens[0].Type != TokEOF {
		t.Errorf("expected TokEOF, got %v", tokens[0].Type)
	}
}

// ---------------------------------------------------------------------------
// Test: all keywords
// ---------------------------------------------------------------------------
func TestKeywords(t *testing.T) {
	tests := []struct {
		keyword  string
		expected TokenType
	}{
		{"let", TokLet},
		{"fun", TokFun},
		{"return", TokReturn},
		{"if", TokIf},
		{"else", TokElse},
		{"while", TokWhile},
		{"for", TokFor},
		{"in", TokIn},
		{"true", TokTrue},
		{"false", TokFalse},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.keyword)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tokens[0].Type)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: the @mut annotation
// ---------------------------------------------------------------------------
func TestMutAnnotation(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "let @mut x = 1")
	types := []TokenType{TokLet, TokAtMut, TokIdent, TokEquals, TokIntLit}
	if len(tokens) != len(types) {
		t.Fatalf("expected %d tokens, got %d", len(types), len(tokens))
	}
	for i, want := range types {
		if tokens[i].Type != want {
			t.Errorf("token %d: expected %v, got %v", i, want, tokens[i].Type)
		}
	}
}

func TestUnknownAnnotation(t *testing.T) {
	_, err := Tokenize("let @frozen x = 1", "test.mica")
	if err == nil {
		t.Fatal("expected lex error for unknown annotation")
	}
	if !strings.Contains(err.Error(), "annotation") {
		t.Errorf("expected annotation error, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Test: operators and punctuation
// ---------------------------------------------------------------------------
func TestOperators(t *testing.T) {
	tests := []struct {
		source   string
		expected TokenType
	}{
		{"+", TokPlus},
		{"-", TokMinus},
		{"*", TokStar},
		{"/", TokSlash},
		{"%", TokPercent},
		{"==", TokEqEq},
		{"!=", TokBangEq},
		{"<", TokLt},
		{">", TokGt},
		{"<=", TokLtEq},
		{">=", TokGtEq},
		{"&&", TokAndAnd},
		{"||", TokOrOr},
		{"!", TokBang},
		{"=", TokEquals},
		{"{", TokLBrace},
		{"}", TokRBrace},
		{"[", TokLBracket},
		{"]", TokRBracket},
		{"(", TokLParen},
		{")", TokRParen},
		{",", TokComma},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.source)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tokens[0].Type)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: number literals
// ---------------------------------------------------------------------------
func TestNumbers(t *testing.T) {
	tests := []struct {
		source   string
		expected TokenType
		value    string
	}{
		{"0", TokIntLit, "0"},
		{"42", TokIntLit, "42"},
		{"1234567890", TokIntLit, "1234567890"},
		{"3.14", TokFloatLit, "3.14"},
		{"0.5", TokFloatLit, "0.5"},
		{"1e10", TokFloatLit, "1e10"},
		{"2.5e-3", TokFloatLit, "2.5e-3"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.source)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tokens[0].Type)
			}
			if tokens[0].Value != tt.value {
				t.Errorf("expected value %q, got %q", tt.value, tokens[0].Value)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: string literals and escapes
// ---------------------------------------------------------------------------
func TestStrings(t *testing.T) {
	tests := []struct {
		name   string
		source string
		value  string
	}{
		{"simple", `"hello"`, "hello"},
		{"empty", `""`, ""},
		{"escaped quote", `"say \"hi\""`, `say "hi"`},
		{"escaped backslash", `"a\\b"`, `a\b`},
		{"newline", `"a\nb"`, "a\nb"},
		{"tab", `"a\tb"`, "a\tb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.source)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != TokStringLit {
				t.Errorf("expected TokStringLit, got %v", tokens[0].Type)
			}
			if tokens[0].Value != tt.value {
				t.Errorf("expected value %q, got %q", tt.value, tokens[0].Value)
			}
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	_, err := Tokenize(`"never ends`, "test.mica")
	if err == nil {
		t.Fatal("expected lex error for unterminated string")
	}
}

func TestInvalidEscape(t *testing.T) {
	_, err := Tokenize(`"bad \q escape"`, "test.mica")
	if err == nil {
		t.Fatal("expected lex error for invalid escape")
	}
}

// ---------------------------------------------------------------------------
// Test: comments are skipped
// ---------------------------------------------------------------------------
func TestComments(t *testing.T) {
	source := "let x = 1 // trailing comment\n// full line\nlet y = 2"
	tokens := mustTokenizeNoEOF(t, source)
	types := []TokenType{TokLet, TokIdent, TokEquals, TokIntLit, TokLet, TokIdent, TokEquals, TokIntLit}
	if len(tokens) != len(types) {
		t.Fatalf("expected %d tokens, got %d", len(types), len(tokens))
	}
	for i, want := range types {
		if tokens[i].Type != want {
			t.Errorf("token %d: expected %v, got %v", i, want, tokens[i].Type)
		}
	}
}

// ---------------------------------------------------------------------------
// Test: spans carry accurate line and column information
// ---------------------------------------------------------------------------
func TestSpans(t *testing.T) {
	source := "let x = 1\nlet y = 2"
	tokens := mustTokenizeNoEOF(t, source)

	// the second "let" starts at line 2, col 1
	second := tokens[4]
	if second.Type != TokLet {
		t.Fatalf("expected TokLet, got %v", second.Type)
	}
	if second.Span.StartLine != 2 {
		t.Errorf("expected line 2, got %d", second.Span.StartLine)
	}
	if second.Span.StartCol != 1 {
		t.Errorf("expected col 1, got %d", second.Span.StartCol)
	}
	if second.Span.File != "test.mica" {
		t.Errorf("expected file test.mica, got %s", second.Span.File)
	}
}

// ---------------------------------------------------------------------------
// Test: identifiers allow letters, digits, underscores
// ---------------------------------------------------------------------------
func TestIdentifiers(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "foo _bar baz2 camelCase")
	if len(tokens) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(tokens))
	}
	wants := []string{"foo", "_bar", "baz2", "camelCase"}
	for i, want := range wants {
		if tokens[i].Type != TokIdent {
			t.Errorf("token %d: expected TokIdent, got %v", i, tokens[i].Type)
		}
		if tokens[i].Value != want {
			t.Errorf("token %d: expected %q, got %q", i, want, tokens[i].Value)
		}
	}
}

// ---------------------------------------------------------------------------
// Test: unexpected characters produce a lex error
// ---------------------------------------------------------------------------
func TestUnexpectedCharacter(t *testing.T) {
	for _, bad := range []string{"#", "$", "`", "~", "?"} {
		t.Run(bad, func(t *testing.T) {
			_, err := Tokenize(bad, "test.mica")
			if err == nil {
				t.Fatalf("expected lex error for %q", bad)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: a realistic program tokenizes cleanly
// ---------------------------------------------------------------------------
func TestFullProgram(t *testing.T) {
	source := `
let @mut total = 0
let items = [1, 2, 3]
for item in items {
    total = total + item
}
fun describe(n) {
    if n >= 2 {
        return "big"
    }
    return "small"
}
print(describe(total))
`
	tokens := mustTokenize(t, source)
	if len(tokens) < 20 {
		t.Fatalf("expected a full token stream, got %d tokens", len(tokens))
	}
	if tokens[len(tokens)-1].Type != TokEOF {
		t.Error("expected EOF as last token")
	}
}
