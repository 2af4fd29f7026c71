package lexer

import (
	"testing"
)

// FuzzTokenize feeds random inputs to the lexer to catch panics.
// The lexer should never panic — it should return an error for invalid input.
func FuzzTokenize(f *testing.F) {
	// Seed corpus with valid tokens and edge cases
	seeds := []string{
		// Keywords
		`let fun return`,
		`if else while for in`,
		`true false`,
		// Annotations
		`let @mut x = 1`,
		`@mut @frozen @`,
		// Literals
		`42 3.14 0 1e10 2.5e-3`,
		`"hello" "with\nescape" "quote\""`,
		// Operators
		`+ - * / % > < >= <= == != && || !`,
		// Delimiters
		`{ } [ ] ( ) , =`,
		// Identifiers
		`x foo bar_baz myVar _lead`,
		// Comments
		`// this is a comment`,
		`let x = 1 // trailing`,
		// Mixed
		`let x = 42`,
		`fun add(a, b) { return a + b }`,
		`for item in [1, 2, 3] { print(item) }`,
		// Edge cases
		``,
		`   `,
		"\t\n\r",
		`"unterminated`,
		`"""`,
		`@#$^&`,
		`\x00`,
		`&`,
		`|`,
		// Numbers
		`0 00 0.0 .5 1e10`,
		// Long input
		`let aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa = 1`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		// Tokenize should never panic, regardless of input.
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Tokenize panicked on input %q: %v", input, r)
				}
			}()
			Tokenize(input, "fuzz.mica")
		}()
	})
}
