package diagnostics_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/micalang/mica/pkg/ast"
	"github.com/micalang/mica/pkg/diagnostics"
)

func TestMakeDiag(t *testing.T) {
	span := &ast.Span{File: "test.mica", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 5}
	d := diagnostics.MakeDiag(diagnostics.EParse, "unexpected token", span, "check syntax")

	if d.Code != diagnostics.EParse {
		t.Errorf("got Code = %q, want %q", d.Code, diagnostics.EParse)
	}
	if d.Message != "unexpected token" {
		t.Errorf("got Message = %q, want %q", d.Message, "unexpected token")
	}
	if d.Hint != "check syntax" {
		t.Errorf("got Hint = %q, want %q", d.Hint, "check syntax")
	}
}

func TestFormatDiagnosticPretty(t *testing.T) {
	span := &ast.Span{File: "test.mica", StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 10}
	d := diagnostics.MakeDiag(diagnostics.EUnbound, "undefined variable 'x'", span, "did you mean 'y'?")

	out := diagnostics.FormatDiagnostic(d, true)
	if !strings.Contains(out, "error[E_UNBOUND]") {
		t.Errorf("expected error code in output, got: %s", out)
	}
	if !strings.Contains(out, "test.mica:3:5") {
		t.Errorf("expected location in output, got: %s", out)
	}
	if !strings.Contains(out, "hint:") {
		t.Errorf("expected hint in output, got: %s", out)
	}
}

func TestFormatDiagnosticPrettyNoSpan(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ELex, "bad token", nil, "")
	out := diagnostics.FormatDiagnostic(d, true)
	if !strings.Contains(out, "<unknown>") {
		t.Errorf("expected <unknown> location, got: %s", out)
	}
	if strings.Contains(out, "hint:") {
		t.Errorf("expected no hint line, got: %s", out)
	}
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ELex, "bad token", nil, "")
	out := diagnostics.FormatDiagnostic(d, false)
	if !strings.Contains(out, `"code":"E_LEX"`) {
		t.Errorf("expected JSON code in output, got: %s", out)
	}

	// output must be valid JSON
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
}

func TestFormatDiagnosticsPretty(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.EDupParam, "duplicate parameter 'a'", nil, ""),
		diagnostics.MakeDiag(diagnostics.EReturnOutsideFn, "return outside of a function", nil, ""),
	}
	out := diagnostics.FormatDiagnostics(diags, true)
	if !strings.Contains(out, "E_DUP_PARAM") || !strings.Contains(out, "E_RETURN_OUTSIDE_FN") {
		t.Errorf("expected both codes in output, got: %s", out)
	}
}

func TestFormatDiagnosticsJSONIsArray(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.EType, "type mismatch", nil, ""),
	}
	out := diagnostics.FormatDiagnostics(diags, false)
	var decoded []map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(decoded) != 1 {
		t.Errorf("expected 1 element, got %d", len(decoded))
	}
}
