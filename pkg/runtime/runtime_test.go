package runtime_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/micalang/mica/pkg/diagnostics"
	"github.com/micalang/mica/pkg/evaluator"
	"github.com/micalang/mica/pkg/runtime"
)

func TestRunProgram(t *testing.T) {
	var stdout bytes.Buffer
	rt := runtime.New(runtime.WithStdout(&stdout))

	res, err := rt.Run(context.Background(), `print("hi")`+"\n1 + 2", "test.mica")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := res.Value.(evaluator.IntValue)
	if !ok || n.Value != 3 {
		t.Errorf("expected Int 3, got %#v", res.Value)
	}
	if stdout.String() != "hi\n" {
		t.Errorf("got stdout %q, want %q", stdout.String(), "hi\n")
	}
}

func TestRunParseErrorReturnsDiagnostics(t *testing.T) {
	rt := runtime.New(runtime.WithStdout(&bytes.Buffer{}))
	_, err := rt.Run(context.Background(), "let = 5", "test.mica")

	var dErr *runtime.DiagnosticError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected DiagnosticError, got %T: %v", err, err)
	}
	if len(dErr.Diagnostics) == 0 {
		t.Fatal("expected at least one diagnostic")
	}
	if dErr.Diagnostics[0].Code != diagnostics.EParse {
		t.Errorf("got code %s, want %s", dErr.Diagnostics[0].Code, diagnostics.EParse)
	}
}

func TestRunValidationErrorReturnsDiagnostics(t *testing.T) {
	rt := runtime.New(runtime.WithStdout(&bytes.Buffer{}))
	_, err := rt.Run(context.Background(), "return 1", "test.mica")

	var dErr *runtime.DiagnosticError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected DiagnosticError, got %T: %v", err, err)
	}
	if dErr.Diagnostics[0].Code != diagnostics.EReturnOutsideFn {
		t.Errorf("got code %s, want %s", dErr.Diagnostics[0].Code, diagnostics.EReturnOutsideFn)
	}
}

func TestRunRuntimeError(t *testing.T) {
	rt := runtime.New(runtime.WithStdout(&bytes.Buffer{}))
	_, err := rt.Run(context.Background(), "1 / 0", "test.mica")

	var rtErr *evaluator.RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected RuntimeError, got %T: %v", err, err)
	}
	if rtErr.Code != diagnostics.EDivZero {
		t.Errorf("got code %s, want %s", rtErr.Code, diagnostics.EDivZero)
	}
}

func TestRunWithMaxSteps(t *testing.T) {
	rt := runtime.New(
		runtime.WithStdout(&bytes.Buffer{}),
		runtime.WithMaxSteps(50),
	)
	_, err := rt.Run(context.Background(), "let @mut i = 0\nwhile true {\n    i = i + 1\n}", "test.mica")

	var rtErr *evaluator.RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected RuntimeError, got %T: %v", err, err)
	}
	if rtErr.Code != diagnostics.EBudget {
		t.Errorf("got code %s, want %s", rtErr.Code, diagnostics.EBudget)
	}
}

func TestCheck(t *testing.T) {
	rt := runtime.New(runtime.WithStdout(&bytes.Buffer{}))

	if diags := rt.Check("let x = 1\nprint(x)", "test.mica"); len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %v", diags)
	}

	diags := rt.Check("fun f(a, a) {\n    return a\n}", "test.mica")
	if len(diags) == 0 {
		t.Fatal("expected diagnostics")
	}
	if diags[0].Code != diagnostics.EDupParam {
		t.Errorf("got code %s, want %s", diags[0].Code, diagnostics.EDupParam)
	}
}

func TestCheckDoesNotExecute(t *testing.T) {
	var stdout bytes.Buffer
	rt := runtime.New(runtime.WithStdout(&stdout))

	// runtime errors like division by zero are not check failures
	if diags := rt.Check(`print("side effect")`+"\n1 / 0", "test.mica"); len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %v", diags)
	}
	if stdout.Len() != 0 {
		t.Errorf("check must not run the program, got output %q", stdout.String())
	}
}

func TestFormat(t *testing.T) {
	rt := runtime.New(runtime.WithStdout(&bytes.Buffer{}))

	out, err := rt.Format("let   x=1", "test.mica")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "let x = 1\n" {
		t.Errorf("got %q, want %q", out, "let x = 1\n")
	}

	if _, err := rt.Format("let = 1", "test.mica"); err == nil {
		t.Error("expected error for malformed source")
	}
}

func TestDiagnosticErrorMessage(t *testing.T) {
	err := &runtime.DiagnosticError{
		Diagnostics: []diagnostics.Diagnostic{
			diagnostics.MakeDiag(diagnostics.EParse, "unexpected token", nil, ""),
			diagnostics.MakeDiag(diagnostics.EDupParam, "duplicate parameter 'a'", nil, ""),
		},
	}
	msg := err.Error()
	want := "E_PARSE: unexpected token; E_DUP_PARAM: duplicate parameter 'a'"
	if msg != want {
		t.Errorf("got %q, want %q", msg, want)
	}
}
