// Package validator implements semantic validation of Mica AST programs.
package validator

import (
	"fmt"

	"github.com/micalang/mica/pkg/ast"
	"github.com/micalang/mica/pkg/diagnostics"
)

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate runs pre-execution checks over a program: duplicate function
// parameters and `return` outside any function. Name resolution and
// mutability are left to the evaluator since functions are first-class
// and may run before or after bindings appear.
func Validate(program *ast.Program) []diagnostics.Diagnostic {
	v := &validator{}
	v.checkStmts(program.Statements, false)
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, hint))
}

func (v *validator) checkStmts(stmts []ast.Stmt, inFunction bool) {
	for _, stmt := range stmts {
		v.checkStmt(stmt, inFunction)
	}
}

func (v *validator) checkStmt(stmt ast.Stmt, inFunction bool) {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		if !inFunction {
			v.addDiag(diagnostics.EReturnOutsideFn,
				"return outside of a function",
				s.Span,
				"return is only allowed inside a fun body")
		}

	case *ast.FunDecl:
		seen := make(map[string]bool, len(s.Params))
		for _, param := range s.Params {
			if seen[param] {
				v.addDiag(diagnostics.EDupParam,
					fmt.Sprintf("duplicate parameter '%s' in function '%s'", param, s.Name),
					s.Span,
					"")
			}
			seen[param] = true
		}
		v.checkStmts(s.Body, true)

	case *ast.IfStmt:
		v.checkStmts(s.ThenBody, inFunction)
		v.checkStmts(s.ElseBody, inFunction)

	case *ast.WhileStmt:
		v.checkStmts(s.Body, inFunction)

	case *ast.ForStmt:
		v.checkStmts(s.Body, inFunction)
	}
}
