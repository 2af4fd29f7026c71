// Package runtime provides the top-level Mica runtime orchestrator.
package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/micalang/mica/pkg/diagnostics"
	"github.com/micalang/mica/pkg/evaluator"
	"github.com/micalang/mica/pkg/formatter"
	"github.com/micalang/mica/pkg/parser"
	"github.com/micalang/mica/pkg/stdlib"
	"github.com/micalang/mica/pkg/validator"
)

// Result holds the outcome of a program execution.
type Result struct {
	Value evaluator.Value
}

// Runtime wires together all Mica components for program execution.
type Runtime struct {
	stdout       io.Writer
	builtins     *stdlib.Registry
	maxSteps     int64
	maxCallDepth int64
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdout sets the writer that print output goes to.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithBuiltins replaces the default builtin registry.
func WithBuiltins(r *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.builtins = r
	}
}

// WithMaxSteps caps executed statements and loop iterations; 0 = unlimited.
func WithMaxSteps(n int64) Option {
	return func(rt *Runtime) {
		rt.maxSteps = n
	}
}

// WithMaxCallDepth caps call nesting; 0 keeps the evaluator default.
func WithMaxCallDepth(n int64) Option {
	return func(rt *Runtime) {
		rt.maxCallDepth = n
	}
}

// New creates a new Runtime with the given options.
// By default the standard builtins are registered and print writes to
// os.Stdout.
func New(opts ...Option) *Runtime {
	rt := &Runtime{stdout: os.Stdout}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.builtins == nil {
		reg := stdlib.NewRegistry()
		stdlib.RegisterDefaults(reg, rt.stdout)
		rt.builtins = reg
	}
	return rt
}

// Run parses, validates, and executes a Mica program.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (*Result, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}

	vDiags := validator.Validate(program)
	if len(vDiags) > 0 {
		return nil, &DiagnosticError{Diagnostics: vDiags}
	}

	result, err := evaluator.Execute(ctx, program, rt.buildExecOptions())
	if err != nil {
		return nil, err
	}
	return &Result{Value: result.Value}, nil
}

// Check parses and validates a Mica program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(program)
}

// Format parses and formats a Mica program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// buildExecOptions constructs evaluator options from the runtime's
// configuration.
func (rt *Runtime) buildExecOptions() evaluator.ExecOptions {
	return evaluator.ExecOptions{
		Builtins:     rt.builtins.All(),
		MaxSteps:     rt.maxSteps,
		MaxCallDepth: rt.maxCallDepth,
	}
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
