package parser_test

import (
	"testing"

	"github.com/micalang/mica/pkg/parser"
)

// FuzzParse feeds random inputs to the parser to catch panics.
// The parser should report diagnostics, never panic.
func FuzzParse(f *testing.F) {
	seeds := []string{
		`let x = 42`,
		`let @mut count = 0`,
		`fun add(a, b) { return a + b }`,
		`if x > 0 { print("pos") } else { print("neg") }`,
		`while x < 10 { x = x + 1 }`,
		`for item in [1, 2, 3] { print(item) }`,
		`print(1 + 2 * 3)`,
		`[1, [2, 3], "four"]`,
		`f(1)(2)[3]`,
		`!a && -b || c`,
		`return`,
		`return 1`,
		// Malformed
		``,
		`let`,
		`fun f(`,
		`{ } } {`,
		`((((`,
		`= = =`,
		`let let let`,
		`"unterminated`,
		`@`,
		`1 + + 2`,
		`if if if { }`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Parse panicked on input %q: %v", input, r)
				}
			}()
			parser.Parse(input, "fuzz.mica")
		}()
	})
}
